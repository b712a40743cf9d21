package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nahan-im/nahan/pkg/clipboard"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the clipboard for incoming hidden messages",
	Long: `Poll the clipboard and report every hidden message or contact card
that shows up. Content already seen or already imported is suppressed.
Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		fmt.Fprintf(os.Stderr, "watching clipboard every %s, Ctrl-C to stop\n", watchInterval)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return nil
			case <-ticker.C:
				res, err := n.Analyze(cmd.Context())
				switch {
				case errors.Is(err, clipboard.ErrDuplicateMessage):
					// Already imported; stay quiet.
				case errors.Is(err, clipboard.ErrSenderUnknown):
					fmt.Printf("%s message from an unknown sender; import their card first\n", color.YellowString("!"))
				case err != nil:
					fmt.Printf("%s %v\n", color.RedString("✗"), err)
				case res.Kind == clipboard.KindMessage:
					printMessage(res)
				case res.Kind == clipboard.KindContact:
					for _, c := range res.Contacts {
						fmt.Printf("%s contact card on clipboard: %s (%s); import with 'nahan contacts import'\n",
							color.CyanString("→"), c.DisplayName, c.Fingerprint)
					}
				}
			}
		}
	},
}

func printMessage(res clipboard.Result) {
	tag := "encrypted"
	if res.Broadcast {
		tag = "broadcast"
	}
	if res.Recovered {
		fmt.Printf("%s carrier was damaged, payload recovered\n", color.YellowString("!"))
	}
	fmt.Printf("%s %s message from %s (%s, via %s):\n%s\n",
		color.GreenString("✓"), tag, color.CyanString(res.SenderName),
		res.SenderFingerprint, res.Source, string(res.Plaintext))
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "polling interval")
	rootCmd.AddCommand(watchCmd)
}
