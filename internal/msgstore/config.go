package msgstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/disk"
)

// StoreConfig configures the message store.
type StoreConfig struct {
	Path          string // database directory, created if missing
	MinimumFreeGB int    // refuse to open below this much free disk
	Logger        *slog.Logger
}

func (sc *StoreConfig) check() error {
	if sc.Path == "" {
		return errors.New("no path provided")
	}

	if err := os.MkdirAll(sc.Path, 0o700); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	if sc.MinimumFreeGB <= 0 {
		return nil
	}

	usage, err := disk.Usage(sc.Path)
	if err != nil {
		return fmt.Errorf("read disk usage: %w", err)
	}
	freeGB := usage.Free / (1024 * 1024 * 1024)
	if int(freeGB) < sc.MinimumFreeGB {
		return fmt.Errorf("only %d GB free on disk, need %d", freeGB, sc.MinimumFreeGB)
	}
	return nil
}
