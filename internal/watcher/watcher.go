package watcher

import (
	"errors"
	"fmt"

	"github.com/b3nj5m1n/pfui/internal/model"
)

const (
	BackendInotify  = "inotify"
	BackendFsnotify = "fsnotify"
)

var ErrClosed = errors.New("event source closed")

// EventSource 定义接口
// It owns two watches, one on the device-node directory and one on the mount root, both
// interested in entry creation and deletion only.
type EventSource interface {
	// Watches returns the handles events carry for the device dir and the mount root.
	Watches() (device, mount model.WatchHandle)
	// NextBatch blocks until at least one event is available and returns everything
	// available at that instant, in delivery order.
	NextBatch() ([]model.RawEvent, error)
	Close() error
}

type Options struct {
	DeviceDir string
	MountRoot string
	Backend   string
}

// DefaultBackend is the backend used when none is configured.
func DefaultBackend() string { return defaultBackend }

// Open installs both watches. Either directory missing or unwatchable is an error the
// caller should treat as fatal: retrying cannot fix the host environment.
func Open(opts Options) (EventSource, error) {
	backend := opts.Backend
	if backend == "" {
		backend = defaultBackend
	}
	switch backend {
	case BackendInotify:
		return newInotifySource(opts.DeviceDir, opts.MountRoot)
	case BackendFsnotify:
		return newFsnotifySource(opts.DeviceDir, opts.MountRoot)
	default:
		return nil, fmt.Errorf("unknown watch backend %q", backend)
	}
}
