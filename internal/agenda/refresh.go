package agenda

import (
	"context"
	"sync"
	"time"

	appLog "upnext/internal/log"
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// WakeScheduler arms a one-shot wake-up at a given instant. Arming
// replaces any previously armed wake-up.
type WakeScheduler interface {
	Arm(at time.Time)
	Cancel()
}

// VisibilityNotifier is told whether the surrounding UI should show the
// panel at all; refreshes that produce an empty store hide it.
type VisibilityNotifier interface {
	PanelVisible(visible bool)
}

// Runner is the single logical refresh worker. Triggers arriving while a
// refresh is in flight coalesce into one follow-up run; refreshes never
// interleave.
type Runner struct {
	agg    *Aggregator
	opts   Options
	clock  Clock
	wake   WakeScheduler
	notify VisibilityNotifier

	holder  Holder
	trigger chan struct{}

	mu      sync.Mutex
	started bool
}

// NewRunner wires a runner. wake and notify may be nil when the caller
// only wants on-demand refreshes (tests, --once runs).
func NewRunner(agg *Aggregator, opts Options, clock Clock, wake WakeScheduler, notify VisibilityNotifier) *Runner {
	if clock == nil {
		clock = RealClock{}
	}
	return &Runner{
		agg:     agg,
		opts:    opts,
		clock:   clock,
		wake:    wake,
		notify:  notify,
		trigger: make(chan struct{}, 1),
	}
}

// Options returns the display configuration the runner refreshes under.
func (r *Runner) Options() Options {
	return r.opts
}

// Store returns the current item store snapshot.
func (r *Runner) Store() *Store {
	return r.holder.Load()
}

// Trigger requests a refresh. Safe from any goroutine; requests arriving
// during an in-flight refresh collapse into a single follow-up.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run services triggers until ctx is canceled, then clears the store.
// It must be called at most once.
func (r *Runner) Run(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		panic("agenda: Runner.Run called twice")
	}
	r.started = true
	r.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			if r.wake != nil {
				r.wake.Cancel()
			}
			r.holder.Clear()
			return
		case <-r.trigger:
			r.RefreshNow(ctx)
		}
	}
}

// RefreshNow runs one aggregation pass immediately, swaps the store,
// signals visibility and re-arms the wake-up.
func (r *Runner) RefreshNow(ctx context.Context) *Store {
	now := r.clock.Now()
	store := r.agg.Refresh(ctx, now, r.opts)
	r.holder.Swap(store)

	if r.notify != nil {
		r.notify.PanelVisible(!store.Empty())
	}

	at := NextRefreshAt(store, now, r.opts)
	if r.wake != nil {
		r.wake.Cancel()
		if at.After(time.Time{}) {
			r.wake.Arm(at)
		}
	}

	appLog.Debug("refresh complete",
		"items", store.Len(),
		"next_refresh", at.Format(time.RFC3339),
	)
	return store
}

// TimerWake is the in-process WakeScheduler: a plain one-shot timer that
// fires a callback, typically Runner.Trigger.
type TimerWake struct {
	Fire func()

	mu    sync.Mutex
	timer *time.Timer
}

func (w *TimerWake) Arm(at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	w.timer = time.AfterFunc(d, w.Fire)
}

func (w *TimerWake) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
