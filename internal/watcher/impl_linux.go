//go:build linux

package watcher

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/b3nj5m1n/pfui/internal/model"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

const defaultBackend = BackendInotify

const watchMask = unix.IN_CREATE | unix.IN_DELETE

type inotifySource struct {
	fd     int
	device model.WatchHandle
	mount  model.WatchHandle
	buf    [4096]byte // must hold at least one event with a NAME_MAX name

	closeOnce sync.Once
	closeErr  error
}

func newInotifySource(deviceDir, mountRoot string) (EventSource, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify init failed: %w", err)
	}

	dwd, err := unix.InotifyAddWatch(fd, deviceDir, watchMask)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to watch device dir %s: %w", deviceDir, err)
	}
	mwd, err := unix.InotifyAddWatch(fd, mountRoot, watchMask)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to watch mount root %s: %w", mountRoot, err)
	}
	// the kernel hands out one wd per inode
	if dwd == mwd {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("device dir %s and mount root %s are the same directory", deviceDir, mountRoot)
	}

	return &inotifySource{
		fd:     fd,
		device: model.WatchHandle(dwd),
		mount:  model.WatchHandle(mwd),
	}, nil
}

func (s *inotifySource) Watches() (model.WatchHandle, model.WatchHandle) {
	return s.device, s.mount
}

func (s *inotifySource) NextBatch() ([]model.RawEvent, error) {
	for {
		n, err := unix.Read(s.fd, s.buf[:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.EBADF) {
			return nil, ErrClosed
		}
		if err != nil {
			return nil, fmt.Errorf("inotify read failed: %w", err)
		}
		if n < model.InotifyEventHeaderSize {
			return nil, fmt.Errorf("short inotify read: %d bytes", n)
		}
		return parseEvents(s.buf[:n])
	}
}

func (s *inotifySource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = multierr.Combine(
			rmWatch(s.fd, s.device),
			rmWatch(s.fd, s.mount),
			unix.Close(s.fd),
		)
	})
	return s.closeErr
}

func rmWatch(fd int, wd model.WatchHandle) error {
	_, err := unix.InotifyRmWatch(fd, uint32(wd))
	// EINVAL: the watch is already gone, e.g. the directory was removed
	if errors.Is(err, unix.EINVAL) {
		return nil
	}
	return err
}

// parseEvents decodes a buffer returned by read(2) on an inotify fd.
// 事件结构：[inotify_event 头部 16 字节] + [name: Len 字节, \0 填充] ...
func parseEvents(buf []byte) ([]model.RawEvent, error) {
	reader := bytes.NewReader(buf)
	var events []model.RawEvent
	for reader.Len() > 0 {
		var hdr model.InotifyEventHeader
		if err := binary.Read(reader, binary.NativeEndian, &hdr); err != nil {
			return events, fmt.Errorf("inotify event header: %w", err)
		}

		name := make([]byte, hdr.Len)
		if _, err := io.ReadFull(reader, name); err != nil {
			return events, fmt.Errorf("inotify event name: %w", err)
		}
		// bytes.IndexByte 找第一个 null 字符
		if idx := bytes.IndexByte(name, 0); idx != -1 {
			name = name[:idx]
		}

		events = append(events, model.RawEvent{
			Watch:  model.WatchHandle(hdr.Wd),
			Name:   name,
			Action: actionFromMask(hdr.Mask),
			Mask:   hdr.Mask,
		})
	}
	return events, nil
}

func actionFromMask(mask uint32) model.Action {
	switch {
	case mask&unix.IN_CREATE != 0:
		return model.ActionCreated
	case mask&unix.IN_DELETE != 0:
		return model.ActionDeleted
	default:
		return model.ActionUnknown
	}
}
