package mounttable

import (
	"context"
	"fmt"

	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/shirou/gopsutil/v4/disk"
)

// Proc reads the kernel mount table (/proc/self/mountinfo and friends) through gopsutil.
type Proc struct{}

func NewProc() *Proc { return &Proc{} }

func (*Proc) Entries(ctx context.Context) ([]model.MountEntry, error) {
	// all=true: removable media often uses fuse or exfat which the physical filter may drop
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}

	entries := make([]model.MountEntry, 0, len(partitions))
	for _, p := range partitions {
		if p.Device == "" || p.Mountpoint == "" {
			continue
		}
		entries = append(entries, model.MountEntry{
			Device:    p.Device,
			MountPath: p.Mountpoint,
		})
	}
	return entries, nil
}
