package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	nahan "github.com/nahan-im/nahan"
	"github.com/nahan-im/nahan/internal/logging"
)

var (
	dataDir     string
	displayName string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "nahan",
	Short: "Hide encrypted messages inside ordinary text and images",
	Long: `Nahan embeds encrypted or signed messages into innocuous-looking
carriers: invisible Unicode characters, spacing patterns, Persian
kashida, look-alike letters, emoji sequences, or image pixels. The
carrier travels over any channel you already use; nahan recovers and
verifies the hidden payload on the other side.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDir := ".nahan"
	if home, err := os.UserHomeDir(); err == nil {
		defaultDir = filepath.Join(home, ".nahan")
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "directory for keys, contacts and messages")
	rootCmd.PersistentFlags().StringVar(&displayName, "name", "", "display name on exported contact cards")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// openInstance starts a Nahan handle for one command invocation and
// hands back its shutdown func.
func openInstance(ctx context.Context) (*nahan.Nahan, func(), error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	n, err := nahan.New(nahan.Config{
		DataDir:     dataDir,
		DisplayName: displayName,
		Logger:      logging.New(level),
	})
	if err != nil {
		return nil, nil, err
	}
	if err := n.Start(ctx); err != nil {
		return nil, nil, err
	}
	return n, func() { _ = n.Close(context.Background()) }, nil
}

// readInput returns the named file's content, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
