package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Show your fingerprint and shareable contact card",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		fp, err := n.Fingerprint()
		if err != nil {
			return err
		}
		card, err := n.ExportContact()
		if err != nil {
			return err
		}

		fmt.Printf("%s %s\n", color.CyanString("fingerprint:"), fp)
		fmt.Printf("%s\n%s\n", color.CyanString("contact card (send this to peers):"), card)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
}
