package watcher

import (
	"fmt"
	"path/filepath"

	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/fsnotify/fsnotify"
)

// Handles reported by the fsnotify backend. Zero is never a valid watch.
const (
	fsnotifyDeviceWatch model.WatchHandle = 1
	fsnotifyMountWatch  model.WatchHandle = 2
)

type fsnotifySource struct {
	w         *fsnotify.Watcher
	deviceDir string
	mountRoot string
}

func newFsnotifySource(deviceDir, mountRoot string) (EventSource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify init failed: %w", err)
	}
	if err := w.Add(deviceDir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch device dir %s: %w", deviceDir, err)
	}
	if err := w.Add(mountRoot); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch mount root %s: %w", mountRoot, err)
	}
	return &fsnotifySource{
		w:         w,
		deviceDir: filepath.Clean(deviceDir),
		mountRoot: filepath.Clean(mountRoot),
	}, nil
}

func (s *fsnotifySource) Watches() (model.WatchHandle, model.WatchHandle) {
	return fsnotifyDeviceWatch, fsnotifyMountWatch
}

func (s *fsnotifySource) NextBatch() ([]model.RawEvent, error) {
	for {
		var batch []model.RawEvent
		select {
		case ev, ok := <-s.w.Events:
			if !ok {
				return nil, ErrClosed
			}
			batch = s.appendEvent(batch, ev)
		case err, ok := <-s.w.Errors:
			if !ok {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("fsnotify: %w", err)
		}

	drain:
		for {
			select {
			case ev, ok := <-s.w.Events:
				if !ok {
					break drain
				}
				batch = s.appendEvent(batch, ev)
			default:
				break drain
			}
		}

		// writes, chmods and renames are outside the interest set; keep waiting
		if len(batch) > 0 {
			return batch, nil
		}
	}
}

func (s *fsnotifySource) Close() error {
	return s.w.Close()
}

func (s *fsnotifySource) appendEvent(batch []model.RawEvent, ev fsnotify.Event) []model.RawEvent {
	var action model.Action
	switch {
	case ev.Has(fsnotify.Create):
		action = model.ActionCreated
	case ev.Has(fsnotify.Remove):
		action = model.ActionDeleted
	default:
		return batch
	}

	path := filepath.Clean(ev.Name)
	raw := model.RawEvent{Action: action, Mask: uint32(ev.Op)}
	switch path {
	case s.deviceDir:
		raw.Watch = fsnotifyDeviceWatch
	case s.mountRoot:
		raw.Watch = fsnotifyMountWatch
	default:
		raw.Name = []byte(filepath.Base(path))
		switch filepath.Dir(path) {
		case s.deviceDir:
			raw.Watch = fsnotifyDeviceWatch
		case s.mountRoot:
			raw.Watch = fsnotifyMountWatch
		}
	}
	return append(batch, raw)
}
