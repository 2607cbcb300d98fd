package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"apartment-tracker/models"
	"apartment-tracker/notify"
	"apartment-tracker/storage"
	"apartment-tracker/utils"
)

var (
	// ErrFetch wraps every failure to obtain a trustworthy current snapshot.
	ErrFetch = errors.New("fetch failed")
	// ErrStore wraps failures to load or save the last-seen snapshot.
	ErrStore = errors.New("snapshot store failed")
)

// State is a phase of the tracking loop.
type State int

const (
	StateStarting State = iota
	StateChecking
	StateNotifying
	StatePersisting
	StateWaiting
	StateErrorBackoff
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateChecking:
		return "CHECKING"
	case StateNotifying:
		return "NOTIFYING"
	case StatePersisting:
		return "PERSISTING"
	case StateWaiting:
		return "WAITING"
	case StateErrorBackoff:
		return "ERROR_BACKOFF"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Source produces the current snapshot of the listing site.
type Source interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

// TrackerConfig holds the timing knobs of the loop.
type TrackerConfig struct {
	CheckInterval           time.Duration
	ErrorBackoff            time.Duration
	FetchTimeout            time.Duration
	NotifyTimeout           time.Duration
	SkipStartupNotification bool
}

// TrackerDeps are the collaborators a Tracker drives.
type TrackerDeps struct {
	Source   Source
	Store    storage.SnapshotStore
	Matcher  Matcher
	Notifier notify.Notifier
	Cleaner  *Cleaner
	Reporter *Reporter
	Logger   *utils.Logger
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithSleep replaces the context-aware sleep used between cycles.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(t *Tracker) { t.sleep = sleep }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker runs fetch → diff → filter → notify → persist on a fixed cadence.
// Only one cycle ever runs at a time.
type Tracker struct {
	cfg  TrackerConfig
	deps TrackerDeps

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	state State
}

// NewTracker creates a Tracker. Cleaner and Reporter default to no-frills
// instances when left nil.
func NewTracker(cfg TrackerConfig, deps TrackerDeps, opts ...Option) *Tracker {
	if deps.Cleaner == nil {
		deps.Cleaner = NewCleaner(deps.Logger)
	}
	if deps.Reporter == nil {
		deps.Reporter = NewReporter(nil)
	}
	t := &Tracker{
		cfg:   cfg,
		deps:  deps,
		sleep: utils.Sleep,
		now:   time.Now,
		newID: uuid.NewString,
		state: StateStarting,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the phase the loop is currently in.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) setState(s State) {
	t.mu.Lock()
	prev := t.state
	t.state = s
	t.mu.Unlock()
	if prev != s {
		t.deps.Logger.Debug("[tracker] %s -> %s", prev, s)
	}
}

// Run sends the startup notification and then cycles until ctx is cancelled.
// Cycle failures never end the loop; they only shorten the next wait.
// Run returns nil once it has stopped because of cancellation.
func (t *Tracker) Run(ctx context.Context) error {
	log := t.deps.Logger
	t.setState(StateStarting)
	log.Info("[tracker] Starting apartment tracker (interval %v, error backoff %v, filter: %s)",
		t.cfg.CheckInterval, t.cfg.ErrorBackoff, t.deps.Matcher)

	if !t.cfg.SkipStartupNotification {
		_ = t.notify(ctx, startupTitle, startupMessage)
	}

	for {
		if ctx.Err() != nil {
			return t.stop()
		}

		res, err := t.RunCycle(ctx)

		wait, next := t.cfg.CheckInterval, StateWaiting
		if err != nil {
			if ctx.Err() != nil {
				return t.stop()
			}
			log.Error("[tracker] Cycle failed: %v", err)
			wait, next = t.cfg.ErrorBackoff, StateErrorBackoff
		} else {
			log.Info("[tracker] %s", t.deps.Reporter.Summary(res))
		}

		t.setState(next)
		log.Info("[tracker] Waiting %v before next check", wait)
		if err := t.sleep(ctx, wait); err != nil {
			return t.stop()
		}
	}
}

func (t *Tracker) stop() error {
	t.setState(StateStopped)
	t.deps.Logger.Info("[tracker] Shutdown requested, tracker stopped")
	return nil
}

// RunCycle performs a single check. On a fetch or load failure the stored
// snapshot is left untouched and nothing is sent.
func (t *Tracker) RunCycle(ctx context.Context) (res *models.CycleResult, err error) {
	res = &models.CycleResult{CycleID: t.newID(), StartedAt: t.now()}
	log := t.deps.Logger.With("cycle", shortID(res.CycleID))
	defer func() { res.Duration = t.now().Sub(res.StartedAt) }()

	t.setState(StateChecking)
	log.Info("[tracker] Checking for new listings")

	current, err := t.fetch(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	previous, err := t.deps.Store.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: load: %w", ErrStore, err)
	}

	res.Current = current
	res.New = FindNew(current, previous)
	res.Removed = FindRemoved(current, previous)
	res.Matched = Filter(res.New, t.deps.Matcher)
	log.Debug("[tracker] %d current, %d previous, %d new, %d matched",
		len(current), len(previous), len(res.New), len(res.Matched))

	if len(res.Matched) > 0 {
		t.setState(StateNotifying)
		log.Info("[tracker] Found %d new matching listings", len(res.Matched))
		t.deps.Reporter.PrintNew(res.Matched)
		res.NotifyErr = t.notify(ctx, aggregateTitle, AggregateMessage(res.Matched, t.deps.Matcher))
	}

	// The fetched data is already in hand; finish writing it even when a
	// shutdown arrives mid-cycle.
	t.setState(StatePersisting)
	if err := t.deps.Store.Save(context.WithoutCancel(ctx), current); err != nil {
		return res, fmt.Errorf("%w: save: %w", ErrStore, err)
	}
	res.Persisted = true
	return res, nil
}

func (t *Tracker) fetch(ctx context.Context) (models.Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, t.cfg.FetchTimeout)
	defer cancel()

	raw, err := t.deps.Source.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}
	return t.deps.Cleaner.Clean(raw)
}

// notify delivers one alert within NotifyTimeout. Failures are logged and
// returned for the cycle record, never propagated as cycle errors.
func (t *Tracker) notify(ctx context.Context, title, message string) error {
	notifyCtx, cancel := context.WithTimeout(ctx, t.cfg.NotifyTimeout)
	defer cancel()

	if err := t.deps.Notifier.Notify(notifyCtx, title, message); err != nil {
		t.deps.Logger.Warn("[tracker] Notification %q failed: %v", title, err)
		return err
	}
	return nil
}
