package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create the local identity if it does not exist yet",
	Long: `Generate and persist the local keypairs under the data directory.
Running it against an existing identity is harmless and just prints the
fingerprint.`,
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
		fmt.Printf("%s identity ready, fingerprint %s\n", color.GreenString("✓"), color.YellowString(fp))
		fmt.Println("share your card with 'nahan id'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
