// Package mounttable reads the live mount table. Results are never cached: the kernel is the
// only source of truth and the table may change between two reads.
package mounttable

import (
	"context"
	"fmt"

	"github.com/b3nj5m1n/pfui/internal/model"
)

const (
	KindProc    = "proc"
	KindUDisks2 = "udisks2"
)

// Reader snapshots the current mount table.
type Reader interface {
	Entries(ctx context.Context) ([]model.MountEntry, error)
}

// New returns the reader for the configured backend.
func New(kind string) (Reader, error) {
	switch kind {
	case KindProc, "":
		return NewProc(), nil
	case KindUDisks2:
		return NewUDisks2(), nil
	default:
		return nil, fmt.Errorf("unknown mount table backend %q", kind)
	}
}

// Static is a fixed table, used for tests and for one-shot lookups.
type Static []model.MountEntry

func (s Static) Entries(context.Context) ([]model.MountEntry, error) {
	out := make([]model.MountEntry, len(s))
	copy(out, s)
	return out, nil
}
