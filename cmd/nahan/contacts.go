package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage known peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		list, err := n.Contacts()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no contacts yet; import a card with 'nahan contacts import'")
			return nil
		}
		for _, c := range list {
			fmt.Printf("%s  %s\n", color.YellowString(c.Fingerprint), c.DisplayName)
		}
		return nil
	},
}

var contactsImportCmd = &cobra.Command{
	Use:   "import <card>",
	Short: "Import one or more contact cards from a share string",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		cards, err := n.ImportContacts(args[0])
		if err != nil {
			return err
		}
		for _, c := range cards {
			fmt.Printf("%s imported %s (%s)\n", color.GreenString("✓"), c.DisplayName, c.Fingerprint)
		}
		return nil
	},
}

func init() {
	contactsCmd.AddCommand(contactsImportCmd)
	rootCmd.AddCommand(contactsCmd)
}
