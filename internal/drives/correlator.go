package drives

import (
	"context"
	"path/filepath"
	"time"

	"github.com/b3nj5m1n/pfui/internal/model"
	"github.com/b3nj5m1n/pfui/internal/mounttable"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// RetryPolicy bounds how long a mount-directory create waits for the mount to show up in the
// mount table. The directory appears before mount(2) returns, so the first lookup is delayed.
type RetryPolicy struct {
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
	Delay        time.Duration `mapstructure:"delay" validate:"gte=0"`
	Attempts     int           `mapstructure:"attempts" validate:"min=1"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		Delay:        100 * time.Millisecond,
		Attempts:     10,
	}
}

// Outcome is the terminal result of correlating one mount-directory create.
type Outcome int

const (
	// OutcomeResolved: the mount path was recorded on the device's registry entry.
	OutcomeResolved Outcome = iota
	// OutcomeOrphaned: the mount was found but its device is not in the registry.
	OutcomeOrphaned
	// OutcomeAbandoned: the retry budget ran out. Nothing re-polls later.
	OutcomeAbandoned
	// OutcomeCanceled: the context ended while waiting.
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeOrphaned:
		return "orphaned"
	case OutcomeAbandoned:
		return "abandoned"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

type correlationState int

const (
	waitingForMount correlationState = iota
	resolved
	abandoned
)

type CorrelatorOptions struct {
	Table     mounttable.Reader
	Registry  *Registry
	MountRoot string
	Policy    RetryPolicy
	Clock     clockwork.Clock
	Logger    *zap.Logger
}

// Correlator turns mount-directory events into registry mount paths.
type Correlator struct {
	table     mounttable.Reader
	registry  *Registry
	mountRoot string
	policy    RetryPolicy
	clock     clockwork.Clock
	log       *zap.Logger
}

func NewCorrelator(opts CorrelatorOptions) *Correlator {
	c := &Correlator{
		table:     opts.Table,
		registry:  opts.Registry,
		mountRoot: filepath.Clean(opts.MountRoot),
		policy:    opts.Policy,
		clock:     opts.Clock,
		log:       opts.Logger,
	}
	if c.policy.Attempts <= 0 {
		c.policy = DefaultRetryPolicy()
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// MountCreated resolves the mount directory name to a device and records its mount path.
// It sleeps on the calling goroutine: InitialDelay, then Delay between failed lookups.
// The only error returned is the context's.
func (c *Correlator) MountCreated(ctx context.Context, name string) (Outcome, error) {
	if err := c.wait(ctx, c.policy.InitialDelay); err != nil {
		return OutcomeCanceled, err
	}

	state := waitingForMount
	var match model.MountEntry
	for attempt := 1; state == waitingForMount; attempt++ {
		if entry, ok := c.lookup(ctx, name, attempt); ok {
			match = entry
			state = resolved
			continue
		}
		if attempt >= c.policy.Attempts {
			state = abandoned
			continue
		}
		if err := c.wait(ctx, c.policy.Delay); err != nil {
			return OutcomeCanceled, err
		}
	}

	if state == abandoned {
		c.log.Warn("Giving up on mount correlation, device stays unmounted until the next event",
			zap.String("name", name),
			zap.Int("attempts", c.policy.Attempts))
		return OutcomeAbandoned, nil
	}

	key := Key(filepath.Base(match.Device))
	if !c.registry.SetMount(key, match.MountPath) {
		c.log.Warn("Mounted device is not in the registry",
			zap.String("device", match.Device),
			zap.String("mount", match.MountPath),
			zap.Strings("known", c.registry.Keys()))
		return OutcomeOrphaned, nil
	}
	c.log.Info("Drive mounted",
		zap.String("key", key),
		zap.String("mount", match.MountPath))
	return OutcomeResolved, nil
}

// MountDeleted clears the mount path of every entry mounted at a directory called name.
// No mount table lookup: the mount is already gone.
func (c *Correlator) MountDeleted(name string) []string {
	keys := c.registry.Unmount(name)
	if len(keys) > 0 {
		c.log.Info("Drive unmounted", zap.Strings("keys", keys), zap.String("name", name))
	}
	return keys
}

// ResolveExisting records mount paths for already registered keys from one table read,
// considering only mounts directly below the mount root. It returns how many were set.
func (c *Correlator) ResolveExisting(ctx context.Context) (int, error) {
	entries, err := c.table.Entries(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if filepath.Dir(filepath.Clean(e.MountPath)) != c.mountRoot {
			continue
		}
		if c.registry.SetMount(Key(filepath.Base(e.Device)), e.MountPath) {
			n++
		}
	}
	return n, nil
}

func (c *Correlator) lookup(ctx context.Context, name string, attempt int) (model.MountEntry, bool) {
	entries, err := c.table.Entries(ctx)
	if err != nil {
		c.log.Debug("Mount table read failed", zap.Int("attempt", attempt), zap.Error(err))
		return model.MountEntry{}, false
	}
	entry, ok := FindMount(entries, c.mountRoot, name)
	if !ok {
		c.log.Debug("Mount not visible yet", zap.String("name", name), zap.Int("attempt", attempt))
	}
	return entry, ok
}

func (c *Correlator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-c.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FindMount returns the entry mounted at mountRoot/name, or failing that the first entry
// whose mount path leaf is name.
func FindMount(entries []model.MountEntry, mountRoot, name string) (model.MountEntry, bool) {
	want := filepath.Join(mountRoot, name)

	var fallback model.MountEntry
	found := false
	for _, e := range entries {
		path := filepath.Clean(e.MountPath)
		if path == want {
			return e, true
		}
		if !found && filepath.Base(path) == name {
			fallback = e
			found = true
		}
	}
	return fallback, found
}
