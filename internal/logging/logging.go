// Package logging provides the default colored slog handler used by the
// CLI and by components that were not handed a logger.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a colored text logger writing to stderr at the given
// level. Library code should accept an injected *slog.Logger instead of
// calling this directly.
func New(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}
