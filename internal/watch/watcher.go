package watch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
	"github.com/providerpulse/providerpulse/internal/kvstore"
	"github.com/providerpulse/providerpulse/internal/notify"
)

// Default watcher timings.
const (
	// DefaultInterval is the time between polls.
	DefaultInterval = 30 * time.Second

	// DefaultCooldown is the minimum time between two notifications for
	// the same provider.
	DefaultCooldown = 5 * time.Minute
)

// Config holds configuration for the watcher.
type Config struct {
	// Source lists current provider health each cycle. Required.
	Source health.Source

	// Store persists the watcher state. If nil, an in-memory store is
	// used and state does not survive a restart.
	Store *StateStore

	// Notifier receives emitted events. If nil, events are discarded.
	Notifier notify.Notifier

	// Interval between polls. Default: DefaultInterval.
	Interval time.Duration

	// Cooldown is the minimum time between notifications for one
	// provider. Default: DefaultCooldown.
	Cooldown time.Duration

	// Logger for watcher diagnostics.
	Logger zerolog.Logger

	// Now returns the current time. Defaults to time.Now; tests inject
	// a fake clock to drive the cooldown gate.
	Now func() time.Time
}

// Watcher polls a health source, diffs consecutive snapshots, and
// notifies on provider state transitions. One Watcher owns one
// NotificationState; construct separate instances for isolated tests.
type Watcher struct {
	source   health.Source
	store    *StateStore
	notifier notify.Notifier
	interval time.Duration
	cooldown time.Duration
	logger   zerolog.Logger
	now      func() time.Time
	metrics  *metrics

	// mu guards the lifecycle fields.
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// pollMu serializes poll cycles so a manual poll never overlaps a
	// scheduled one.
	pollMu sync.Mutex

	// stateMu guards the notification state and poll bookkeeping.
	stateMu       sync.RWMutex
	state         *NotificationState
	seeded        bool
	lastPollAt    time.Time
	lastPollError string
}

// NewWatcher creates a watcher and loads any persisted state. A state
// that cannot be read or parsed is logged and replaced with a fresh
// empty one.
func NewWatcher(ctx context.Context, cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = NewStateStore(kvstore.NewMemoryStore())
	}

	state, err := cfg.Store.Load(ctx)
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("could not load persisted state, starting fresh")
	}

	m, err := newMetrics()
	if err != nil {
		cfg.Logger.Warn().Err(err).Msg("could not create watcher metrics")
		m = nil
	}

	return &Watcher{
		source:   cfg.Source,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		interval: cfg.Interval,
		cooldown: cfg.Cooldown,
		logger:   cfg.Logger,
		now:      cfg.Now,
		metrics:  m,
		state:    state,
	}
}

// Start launches the polling loop: one immediate poll, then one every
// interval until the context is canceled or Stop is called. Calling
// Start while the loop is active is a no-op. Start never blocks on the
// first poll.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Debug().Msg("watcher already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.running = true
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Dur("cooldown", w.cooldown).
		Msg("starting health watcher")

	go w.run(runCtx, done)
}

// Stop cancels the polling loop and waits for it to exit. Idempotent
// and safe to call when not started. An in-flight fetch is canceled and
// its cycle discarded.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.running = false
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the polling loop is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer func() {
		// If the context died without Stop, mark this generation of the
		// loop as stopped.
		w.mu.Lock()
		if w.done == done {
			w.running = false
			w.cancel = nil
			w.done = nil
		}
		w.mu.Unlock()
		close(done)
	}()

	_ = w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("health watcher stopped")
			return
		case <-ticker.C:
			_ = w.poll(ctx)
		}
	}
}

// PollNow runs one poll cycle synchronously and returns the fetch
// error, if any. It shares the cycle lock with the background loop.
func (w *Watcher) PollNow(ctx context.Context) error {
	return w.poll(ctx)
}

// poll runs a single cycle: fetch, diff, persist, notify. A fetch
// failure aborts the cycle with no state change; the interval stays
// fixed, with no backoff.
func (w *Watcher) poll(ctx context.Context) error {
	w.pollMu.Lock()
	defer w.pollMu.Unlock()

	started := w.now()

	records, err := w.source.Fetch(ctx)
	if err != nil {
		w.metrics.recordPoll(ctx, false)
		w.setLastPoll(started, err)
		if ctx.Err() != nil {
			w.logger.Debug().Msg("poll aborted by shutdown")
			return err
		}
		w.logger.Warn().Err(err).Msg("health fetch failed, keeping previous state")
		return err
	}

	current := health.NewSnapshot(records)
	events := w.apply(ctx, current)

	w.metrics.recordPoll(ctx, true)
	w.setLastPoll(started, nil)

	for _, event := range events {
		w.emit(ctx, event)
	}
	return nil
}

// apply diffs the new snapshot against the previous one, updates and
// persists the state, and returns the events that passed the mute and
// cooldown gates. The state write happens before any notifier runs, so
// a crash right after emission cannot replay a notification inside its
// cooldown window.
func (w *Watcher) apply(ctx context.Context, current health.Snapshot) []health.Event {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	now := w.now()
	var events []health.Event

	if !w.seeded {
		// The first successful poll of a session only seeds the
		// snapshot. Diffing a restored snapshot against fresh data here
		// would replay the whole outage history as a burst.
		w.seeded = true
		w.logger.Info().Int("providers", len(current)).Msg("seeded provider snapshot")
	} else {
		for name, curr := range current {
			if w.state.MutedProviders[name] {
				continue
			}

			prev, known := w.state.LastProviders[name]
			if !known {
				// First sighting; nothing to compare against.
				continue
			}

			event, ok := health.Classify(prev, curr)
			if !ok {
				continue
			}

			if last, notified := w.state.LastNotificationTime[name]; notified && now.Sub(last) < w.cooldown {
				w.logger.Debug().
					Str("provider", name).
					Time("last_notified", last).
					Msg("notification suppressed by cooldown")
				continue
			}

			w.state.LastNotificationTime[name] = now
			events = append(events, event)
		}
	}

	// Muted and unchanged providers are refreshed too: the whole
	// snapshot is replaced, never merged.
	w.state.LastProviders = current

	if err := w.store.Save(ctx, w.state); err != nil {
		// The user-visible alert outranks cooldown durability.
		w.logger.Error().Err(err).Msg("failed to persist watcher state")
	}

	return events
}

func (w *Watcher) emit(ctx context.Context, event health.Event) {
	w.metrics.recordNotification(ctx, event)
	w.logger.Debug().
		Str("provider", event.Provider).
		Str("kind", string(event.Kind)).
		Str("severity", string(event.Severity)).
		Msg("emitting notification")

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Interface("panic", r).
				Str("provider", event.Provider).
				Msg("notifier panicked")
		}
	}()

	if err := w.notifier.Notify(ctx, event); err != nil {
		w.logger.Error().
			Err(err).
			Str("provider", event.Provider).
			Msg("notification delivery failed")
	}
}

func (w *Watcher) setLastPoll(at time.Time, err error) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	w.lastPollAt = at
	if err != nil {
		w.lastPollError = err.Error()
	} else {
		w.lastPollError = ""
	}
}

// MuteProvider adds name to the persisted mute set. Muting takes effect
// on the next poll; it does not retract notifications already emitted.
// The mute applies immediately in memory even when persistence fails.
func (w *Watcher) MuteProvider(ctx context.Context, name string) error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	w.state.MutedProviders[name] = true
	if err := w.store.Save(ctx, w.state); err != nil {
		w.logger.Error().Err(err).Str("provider", name).Msg("failed to persist mute")
		return err
	}

	w.logger.Info().Str("provider", name).Msg("provider muted")
	return nil
}

// UnmuteProvider removes name from the persisted mute set.
func (w *Watcher) UnmuteProvider(ctx context.Context, name string) error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	delete(w.state.MutedProviders, name)
	if err := w.store.Save(ctx, w.state); err != nil {
		w.logger.Error().Err(err).Str("provider", name).Msg("failed to persist unmute")
		return err
	}

	w.logger.Info().Str("provider", name).Msg("provider unmuted")
	return nil
}

// IsProviderMuted reports whether name is currently muted.
func (w *Watcher) IsProviderMuted(name string) bool {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state.MutedProviders[name]
}

// MutedProviders returns the currently muted provider names, sorted.
func (w *Watcher) MutedProviders() []string {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()

	names := make([]string, 0, len(w.state.MutedProviders))
	for name := range w.state.MutedProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the last observed provider snapshot.
func (w *Watcher) Snapshot() health.Snapshot {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state.LastProviders.Clone()
}

// Status is a point-in-time view of the watcher for the ops API.
type Status struct {
	// Running reports whether the polling loop is active.
	Running bool

	// Seeded reports whether a baseline snapshot exists for this
	// session.
	Seeded bool

	// Interval between polls.
	Interval time.Duration

	// Cooldown between notifications for one provider.
	Cooldown time.Duration

	// LastPollAt is when the most recent poll started (zero before the
	// first poll).
	LastPollAt time.Time

	// LastPollError is the most recent fetch error, empty after a
	// successful poll.
	LastPollError string

	// ProviderCount is the number of providers in the last snapshot.
	ProviderCount int

	// MutedCount is the number of muted providers.
	MutedCount int
}

// Status returns the watcher's current status.
func (w *Watcher) Status() Status {
	running := w.Running()

	w.stateMu.RLock()
	defer w.stateMu.RUnlock()

	return Status{
		Running:       running,
		Seeded:        w.seeded,
		Interval:      w.interval,
		Cooldown:      w.cooldown,
		LastPollAt:    w.lastPollAt,
		LastPollError: w.lastPollError,
		ProviderCount: len(w.state.LastProviders),
		MutedCount:    len(w.state.MutedProviders),
	}
}
