package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nahan-im/nahan/pkg/header"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity [cover-file]",
	Short: "Report how many bytes each algorithm can hide in a cover text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		raw, err := readInput(path)
		if err != nil {
			return err
		}
		cover := strings.TrimSpace(string(raw))

		report, err := n.CapacityReport(cover)
		if err != nil {
			return err
		}

		for _, id := range header.All() {
			c := report[id]
			label := fmt.Sprintf("%d bytes", c)
			if c == 0 {
				label = color.RedString("unusable for this cover")
			}
			fmt.Printf("%s  %s\n", color.YellowString(string(id)), label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capacityCmd)
}
