//go:build !linux

package watcher

import "errors"

const defaultBackend = BackendFsnotify

func newInotifySource(string, string) (EventSource, error) {
	return nil, errors.New("inotify backend is only available on linux")
}
