package monitor

import (
	"fmt"

	"github.com/b3nj5m1n/pfui/internal/config"
	"github.com/b3nj5m1n/pfui/internal/drives"
	"github.com/b3nj5m1n/pfui/internal/emit"
	"github.com/b3nj5m1n/pfui/internal/mounttable"
	"github.com/b3nj5m1n/pfui/internal/watcher"
	"go.uber.org/zap"
)

// Open installs the watches described by cfg and returns a ready Monitor. Errors are setup
// failures and should end the process.
func Open(cfg *config.Config, emitter emit.Emitter, log *zap.Logger) (*Monitor, error) {
	table, err := mounttable.New(cfg.MountTable)
	if err != nil {
		return nil, err
	}

	source, err := watcher.Open(watcher.Options{
		DeviceDir: cfg.DeviceDir,
		MountRoot: cfg.MountRoot,
		Backend:   cfg.WatchBackend,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch for devices: %w", err)
	}

	opts := Options{
		Source:     source,
		Table:      table,
		Emitter:    emitter,
		Classifier: drives.NewClassifier(cfg.Ignore, log),
		MountRoot:  cfg.MountRoot,
		Retry:      cfg.Retry,
		Logger:     log,
	}
	if cfg.ScanExisting {
		opts.Scan = watcher.ScanPartitions
	}
	return New(opts), nil
}
