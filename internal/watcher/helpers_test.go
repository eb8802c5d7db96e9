package watcher

import (
	"testing"

	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/stretchr/testify/require"
)

// collect reads batches until at least n events have been seen.
func collect(t *testing.T, src EventSource, n int) []model.RawEvent {
	t.Helper()

	var events []model.RawEvent
	for len(events) < n {
		batch, err := src.NextBatch()
		require.NoError(t, err)
		events = append(events, batch...)
	}
	return events
}

func withoutMask(events []model.RawEvent) []model.RawEvent {
	out := make([]model.RawEvent, len(events))
	for i, ev := range events {
		ev.Mask = 0
		out[i] = ev
	}
	return out
}
