package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nahan-im/nahan/pkg/header"
)

var (
	encodeTo        string
	encodeAlgo      string
	encodeCoverFile string
	encodeBroadcast bool
	encodeImageFile string
	encodeOutFile   string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <message>",
	Short: "Encrypt a message and hide it in a carrier",
	Long: `Encrypt (or sign, with --broadcast) a message and embed the result
with the chosen algorithm. Cover-based algorithms (NH01, NH02, NH04,
NH05, NH06) need --cover; NH03 synthesizes emoji; NH07 with --image
hides the payload in a PNG.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, done, err := openInstance(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		algo := header.Algorithm(strings.ToUpper(encodeAlgo))
		if !algo.Valid() {
			return fmt.Errorf("unknown algorithm %q, want NH01..NH07", encodeAlgo)
		}

		var cover string
		if encodeCoverFile != "" {
			raw, err := readInput(encodeCoverFile)
			if err != nil {
				return fmt.Errorf("read cover text: %w", err)
			}
			cover = strings.TrimSpace(string(raw))
		}

		plaintext := []byte(args[0])

		if encodeImageFile != "" {
			if encodeBroadcast {
				return fmt.Errorf("--image does not support --broadcast")
			}
			coverPNG, err := os.ReadFile(encodeImageFile)
			if err != nil {
				return fmt.Errorf("read cover image: %w", err)
			}
			stegoPNG, err := n.EncodeImage(cmd.Context(), encodeTo, plaintext, coverPNG)
			if err != nil {
				return err
			}
			out := encodeOutFile
			if out == "" {
				out = "nahan-out.png"
			}
			if err := os.WriteFile(out, stegoPNG, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s wrote %s\n", color.GreenString("✓"), out)
			return nil
		}

		var stego string
		if encodeBroadcast {
			stego, err = n.EncodeBroadcast(cmd.Context(), plaintext, algo, cover)
		} else {
			if encodeTo == "" {
				return fmt.Errorf("--to <fingerprint> is required unless --broadcast")
			}
			stego, err = n.EncodeMessage(cmd.Context(), encodeTo, plaintext, algo, cover)
		}
		if err != nil {
			return err
		}

		if encodeOutFile != "" {
			return os.WriteFile(encodeOutFile, []byte(stego), 0o644)
		}
		fmt.Println(stego)
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeTo, "to", "", "recipient fingerprint")
	encodeCmd.Flags().StringVar(&encodeAlgo, "algo", "NH02", "embedding algorithm (NH01..NH07)")
	encodeCmd.Flags().StringVar(&encodeCoverFile, "cover", "", "cover text file, '-' for stdin")
	encodeCmd.Flags().BoolVar(&encodeBroadcast, "broadcast", false, "sign instead of encrypting; anyone with your card can read it")
	encodeCmd.Flags().StringVar(&encodeImageFile, "image", "", "cover PNG; switches to the image carrier")
	encodeCmd.Flags().StringVarP(&encodeOutFile, "out", "o", "", "write output here instead of stdout")
	rootCmd.AddCommand(encodeCmd)
}
