package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nahan-im/nahan/pkg/header"
	"github.com/nahan-im/nahan/pkg/imagestego"
	"github.com/nahan-im/nahan/pkg/stego"
)

var (
	decodeAlgo      string
	decodeImageFile string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Recover a hidden message from text or an image",
	Long: `Read stego text from a file (or stdin) and recover the hidden
message. The codec is auto-detected unless --algo pins one. With
--image, the payload is dug out of a PNG instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		var text string
		if decodeImageFile != "" {
			pngData, err := os.ReadFile(decodeImageFile)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			payload, err := imagestego.ExtractPNG(pngData)
			if err != nil {
				return err
			}
			text = string(payload)
			decodeAlgo = string(header.NH07)
		} else {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			raw, err := readInput(path)
			if err != nil {
				return err
			}
			text = strings.TrimRight(string(raw), "\n")
		}

		algo := header.Algorithm(strings.ToUpper(decodeAlgo))
		if decodeAlgo != "" && !algo.Valid() {
			return fmt.Errorf("unknown algorithm %q, want NH01..NH07", decodeAlgo)
		}

		opened, used, err := n.DecodeText(cmd.Context(), text, algo)
		if err != nil {
			if decodeAlgo == "" && errors.Is(err, stego.ErrNoPayload) {
				return fmt.Errorf("no recognizable payload; pin a codec with --algo if you know it")
			}
			return err
		}

		kind := "encrypted"
		if opened.Broadcast {
			kind = "signed broadcast"
		}
		fmt.Fprintf(os.Stderr, "%s %s message via %s\n", color.GreenString("✓"), kind, used)
		fmt.Println(string(opened.Plaintext))
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeAlgo, "algo", "", "pin the embedding algorithm instead of auto-detecting")
	decodeCmd.Flags().StringVar(&decodeImageFile, "image", "", "recover from this PNG instead of text")
	rootCmd.AddCommand(decodeCmd)
}
