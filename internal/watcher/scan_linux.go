//go:build linux

package watcher

import (
	"context"
	"slices"

	"github.com/pilebones/go-udev/crawler"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// ScanPartitions 扫描 /sys/devices 下已存在的块设备分区
// It returns the device-node names (e.g. sdb1) of every partition the kernel already knows
// about on removable media, so devices plugged in before startup can be registered. Internal
// disks are skipped.
func ScanPartitions(ctx context.Context) ([]string, error) {
	fsys := afero.NewOsFs()

	queue := make(chan crawler.Device)
	// buffered: the crawler may report a walk error after we stopped listening
	errs := make(chan error, 8)
	quit := crawler.ExistingDevices(queue, errs, nil)

	var names []string
	var scanErr error
	for {
		select {
		case dev, more := <-queue:
			if !more {
				// the walk error is sent just before the queue closes
				slices.Sort(names)
				return names, drainErrors(errs, scanErr)
			}
			if name, ok := removablePartition(fsys, dev.KObj, dev.Env); ok {
				names = append(names, name)
			}
		case err := <-errs:
			scanErr = multierr.Append(scanErr, err)
		case <-ctx.Done():
			close(quit)
			// unblock the crawler if it is mid-send
			go func() {
				for range queue {
				}
			}()
			return nil, ctx.Err()
		}
	}
}
