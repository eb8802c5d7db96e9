package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/b3nj5m1n/pfui/internal/drives"
	"github.com/b3nj5m1n/pfui/internal/emit"
	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/b3nj5m1n/pfui/internal/mounttable"
	"github.com/b3nj5m1n/pfui/internal/watcher"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrUnknownWatch is reported for events whose watch handle is neither the device dir nor the
// mount root. The loop logs and skips them.
var ErrUnknownWatch = errors.New("event from unknown watch")

const scanTimeout = 5 * time.Second

type Options struct {
	Source     watcher.EventSource
	Table      mounttable.Reader
	Emitter    emit.Emitter
	Classifier *drives.Classifier
	MountRoot  string
	Retry      drives.RetryPolicy
	Clock      clockwork.Clock
	Logger     *zap.Logger
	// Scan lists partitions attached before startup. Nil disables the startup scan.
	Scan func(ctx context.Context) ([]string, error)
}

// Monitor keeps the drive registry in sync with device and mount-directory events and emits
// a snapshot after every event that may have changed it.
type Monitor struct {
	source     watcher.EventSource
	emitter    emit.Emitter
	registry   *drives.Registry
	classifier *drives.Classifier
	correlator *drives.Correlator
	scan       func(ctx context.Context) ([]string, error)
	log        *zap.Logger

	deviceWatch model.WatchHandle
	mountWatch  model.WatchHandle
}

func New(opts Options) *Monitor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = drives.NewClassifier(nil, log)
	}

	registry := drives.NewRegistry()
	m := &Monitor{
		source:     opts.Source,
		emitter:    opts.Emitter,
		registry:   registry,
		classifier: classifier,
		correlator: drives.NewCorrelator(drives.CorrelatorOptions{
			Table:     opts.Table,
			Registry:  registry,
			MountRoot: opts.MountRoot,
			Policy:    opts.Retry,
			Clock:     opts.Clock,
			Logger:    log,
		}),
		scan: opts.Scan,
		log:  log,
	}
	m.deviceWatch, m.mountWatch = opts.Source.Watches()
	return m
}

// Registry exposes the live registry. Only read it from the goroutine running Run.
func (m *Monitor) Registry() *drives.Registry { return m.registry }

func (m *Monitor) Close() error { return m.source.Close() }

// Run processes events until reading the event source fails or ctx is done. Cancellation is
// only observed between batches and while the correlator waits; a blocked read is not
// interrupted.
func (m *Monitor) Run(ctx context.Context) error {
	if m.scan != nil {
		if err := m.seed(ctx); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := m.source.NextBatch()
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		for _, ev := range batch {
			if err := m.HandleEvent(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// HandleEvent applies one raw event and emits the registry if the event is one that renders.
// Only emitter failures and context errors are returned.
func (m *Monitor) HandleEvent(ctx context.Context, ev model.RawEvent) error {
	render, err := m.apply(ctx, ev)
	if err != nil {
		if errors.Is(err, ErrUnknownWatch) {
			m.log.Warn("Skipping event", zap.Stringer("event", ev), zap.Error(err))
			return nil
		}
		return err
	}
	if !render {
		return nil
	}
	return m.render()
}

func (m *Monitor) apply(ctx context.Context, ev model.RawEvent) (bool, error) {
	if !ev.HasName() {
		m.log.Warn("Invalid disk name, skipping event", zap.Stringer("event", ev))
		return false, nil
	}

	switch ev.Watch {
	case m.mountWatch:
		return m.handleMount(ctx, ev)
	case m.deviceWatch:
		return m.handleDevice(ev), nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownWatch, ev.Watch)
	}
}

func (m *Monitor) handleMount(ctx context.Context, ev model.RawEvent) (bool, error) {
	name := string(ev.Name)
	switch ev.Action {
	case model.ActionCreated:
		outcome, err := m.correlator.MountCreated(ctx, name)
		if err != nil {
			return false, err
		}
		m.log.Debug("Mount correlation finished", zap.String("name", name), zap.Stringer("outcome", outcome))
		return true, nil
	case model.ActionDeleted:
		m.correlator.MountDeleted(name)
		return true, nil
	default:
		m.log.Warn("Uncaught mount event", zap.Stringer("event", ev), zap.Uint32("mask", ev.Mask))
		return false, nil
	}
}

func (m *Monitor) handleDevice(ev model.RawEvent) bool {
	key, ok := m.classifier.Classify(ev.Name)
	if !ok {
		return false
	}

	switch ev.Action {
	case model.ActionCreated:
		if m.registry.Attach(key) {
			m.log.Info("✅ Drive attached", zap.String("key", key))
		}
	case model.ActionDeleted:
		if m.registry.Detach(key) {
			m.log.Info("❌ Drive removed", zap.String("key", key))
		}
	default:
		m.log.Warn("Uncaught device event", zap.Stringer("event", ev), zap.Uint32("mask", ev.Mask))
		return false
	}
	return true
}

func (m *Monitor) render() error {
	if m.registry.Len() == 0 {
		return m.emitter.EmitAbsent()
	}
	return m.emitter.Emit(m.registry.Snapshot())
}

// seed registers partitions that were attached before the watches existed. Scan failures are
// diagnostics only: the watches still deliver everything from now on.
func (m *Monitor) seed(ctx context.Context) error {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	names, err := m.scan(scanCtx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn("Failed to scan existing partitions", zap.Error(err))
	}

	for _, name := range names {
		if key, ok := m.classifier.Classify([]byte(name)); ok {
			m.registry.Attach(key)
		}
	}
	if m.registry.Len() > 0 {
		if _, err := m.correlator.ResolveExisting(ctx); err != nil {
			m.log.Warn("Failed to resolve existing mounts", zap.Error(err))
		}
	}

	m.log.Info("🔍 Startup scan finished", zap.Strings("drives", m.registry.Keys()))
	return m.render()
}
