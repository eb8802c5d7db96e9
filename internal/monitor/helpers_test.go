package monitor

import (
	"bytes"
	"context"
	"strings"

	"github.com/b3nj5m1n/pfui/internal/drives"
	"github.com/b3nj5m1n/pfui/internal/emit"
	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/b3nj5m1n/pfui/internal/mounttable"
	"github.com/b3nj5m1n/pfui/internal/watcher"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	deviceWatch model.WatchHandle = 1
	mountWatch  model.WatchHandle = 2
	mountRoot                     = "/run/media/alice"
)

// fakeSource replays batches, then reports the source as closed.
type fakeSource struct {
	batches [][]model.RawEvent
	closed  bool
}

func (s *fakeSource) Watches() (model.WatchHandle, model.WatchHandle) {
	return deviceWatch, mountWatch
}

func (s *fakeSource) NextBatch() ([]model.RawEvent, error) {
	if len(s.batches) == 0 {
		return nil, watcher.ErrClosed
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// tb is the part of testing.TB that *rapid.T also provides.
type tb interface {
	Helper()
	Fatalf(format string, args ...any)
}

type harness struct {
	mon  *Monitor
	src  *fakeSource
	out  *bytes.Buffer
	logs *observer.ObservedLogs
}

func newHarness(t tb, table mounttable.Reader, batches ...[]model.RawEvent) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	src := &fakeSource{batches: batches}
	out := &bytes.Buffer{}
	if table == nil {
		table = mounttable.Static(nil)
	}
	mon := New(Options{
		Source:    src,
		Table:     table,
		Emitter:   emit.New(out),
		MountRoot: mountRoot,
		// no sleeps, three lookups
		Retry:  drives.RetryPolicy{Attempts: 3},
		Logger: zap.New(core),
	})
	return &harness{mon: mon, src: src, out: out, logs: logs}
}

func (h *harness) handle(t tb, ev model.RawEvent) {
	t.Helper()
	if err := h.mon.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent(%s): %v", ev, err)
	}
}

func (h *harness) lines() []string {
	s := strings.TrimSuffix(h.out.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func device(action model.Action, name string) model.RawEvent {
	return model.RawEvent{Watch: deviceWatch, Name: []byte(name), Action: action}
}

func mount(action model.Action, name string) model.RawEvent {
	return model.RawEvent{Watch: mountWatch, Name: []byte(name), Action: action}
}
