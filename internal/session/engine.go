// Package session owns the per-list lifecycle: detecting the active list,
// restoring its read position, then tracking the new one.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gitune/twitter-list-scroller/internal/marker"
	"github.com/gitune/twitter-list-scroller/internal/post"
	"github.com/gitune/twitter-list-scroller/internal/restore"
	"github.com/gitune/twitter-list-scroller/internal/surface"
	"github.com/gitune/twitter-list-scroller/internal/track"
	"github.com/gitune/twitter-list-scroller/internal/waitfor"
)

type Phase int

const (
	PhaseNoList Phase = iota
	PhaseSwitching
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseNoList:
		return "no list"
	case PhaseSwitching:
		return "switching"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the engine for display.
type Status struct {
	List        string
	Phase       Phase
	LastRestore string
}

type Config struct {
	Threshold     float64
	SaveDelay     time.Duration
	MutationDelay time.Duration
	NavDelay      time.Duration
	ReadyInterval time.Duration
	ReadyAttempts int
	SaveTimeout   time.Duration
}

// Engine is the orchestrator. Exactly one list session is live at a time;
// a session owns its tracker, watcher and any in-flight restoration, and all
// three are torn down before the next session starts.
type Engine struct {
	surf     surface.Surface
	detector *Detector
	store    *marker.Store
	restorer *restore.Restorer
	labels   post.Labels
	cfg      Config
	log      *slog.Logger

	navDebounce *waitfor.Debouncer

	mu            sync.Mutex
	phase         Phase
	current       string
	switching     bool
	switchTarget  string
	restoreGen    int
	cancelRestore context.CancelFunc
	tracker       *track.Tracker
	watcher       *track.Watcher
	lastRestore   string
}

func New(surf surface.Surface, store *marker.Store, restorer *restore.Restorer, labels post.Labels, excluded []string, cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		surf:        surf,
		detector:    NewDetector(surf, excluded),
		store:       store,
		restorer:    restorer,
		labels:      labels,
		cfg:         cfg,
		log:         log.With("component", "session"),
		navDebounce: waitfor.NewDebouncer(cfg.NavDelay),
	}
}

// Status returns a display snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{List: e.current, Phase: e.phase, LastRestore: e.lastRestore}
}

// Run consumes surface events until ctx is cancelled. It must be called at
// most once.
func (e *Engine) Run(ctx context.Context) error {
	events, unsubscribe := e.surf.Subscribe()
	defer unsubscribe()
	defer e.navDebounce.Cancel()
	defer e.shutdown()

	e.checkList(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case surface.EventNavChanged:
				e.navDebounce.Call(func() { e.checkList(ctx) })
			case surface.EventTimelineChanged:
				e.mu.Lock()
				watcher := e.watcher
				e.mu.Unlock()
				if watcher != nil {
					watcher.OnMutation()
				}
			case surface.EventViewportMoved:
				e.mu.Lock()
				tracker := e.tracker
				e.mu.Unlock()
				if tracker != nil {
					tracker.Observe()
				}
			case surface.EventUserInput:
				// The restorer subscribes for its own one-shot abort.
			}
		}
	}
}

// checkList compares the detector's view with the session's and drives the
// NoList/Active -> Switching and Active -> NoList transitions. While a
// switch is in progress the outer watcher is effectively paused: a changed
// target only cancels the in-flight restoration, the full re-check runs when
// the switch completes.
func (e *Engine) checkList(ctx context.Context) {
	name := e.detector.Current()

	e.mu.Lock()
	if e.switching {
		if name != e.switchTarget && e.cancelRestore != nil {
			e.cancelRestore()
		}
		e.mu.Unlock()
		return
	}
	if name == e.current {
		e.mu.Unlock()
		return
	}
	if name == "" {
		e.log.Info("leaving list surface", "list", e.current)
		e.teardownLocked()
		e.current = ""
		e.phase = PhaseNoList
		e.mu.Unlock()
		return
	}

	e.log.Info("list switch detected", "from", e.current, "to", name)
	e.switching = true
	e.switchTarget = name
	e.phase = PhaseSwitching
	e.teardownLocked()
	e.mu.Unlock()

	go e.switchTo(ctx, name)
}

// switchTo runs one switch: wait for the timeline, load the marker, start
// the trackers suppressed, restore, then release the save path. Any outcome
// of the restoration marks the list current.
func (e *Engine) switchTo(ctx context.Context, name string) {
	defer func() {
		e.mu.Lock()
		e.switching = false
		e.switchTarget = ""
		e.mu.Unlock()
		// Catch anything that changed while the outer watcher was paused.
		e.checkList(ctx)
	}()

	ready := func() bool {
		return e.surf.TimelineReady() && len(e.surf.Posts()) > 0
	}
	if err := waitfor.Poll(ctx, ready, e.cfg.ReadyInterval, e.cfg.ReadyAttempts); err != nil {
		e.log.Error("timeline load timed out", "list", name, "error", err)
		e.mu.Lock()
		e.current = ""
		e.phase = PhaseNoList
		e.mu.Unlock()
		return
	}

	m, err := e.store.Get(ctx, name)
	if err != nil {
		e.log.Error("marker load failed", "list", name, "error", err)
		m = nil
	}

	rctx, cancel := context.WithCancel(ctx)

	// The tracker goes live before the search so timeline mutations keep its
	// watch-set current, but its save path stays suppressed: the restoration's
	// own scrolling must not advance the marker.
	tracker := track.NewTracker(e.surf, e.labels, e.cfg.Threshold, e.cfg.SaveDelay,
		e.stillActive(name), e.saveFunc(name), e.log)
	tracker.Suppress(true)
	watcher := track.NewWatcher(e.surf, tracker, e.cfg.MutationDelay)

	e.mu.Lock()
	e.restoreGen++
	gen := e.restoreGen
	e.cancelRestore = cancel
	e.tracker = tracker
	e.watcher = watcher
	e.mu.Unlock()

	watcher.Sync()

	outcome := e.restorer.Run(rctx, m)
	cancel()

	if ctx.Err() != nil {
		// Engine stopping; shutdown tears the watchers down.
		return
	}

	e.mu.Lock()
	if e.restoreGen == gen && e.cancelRestore != nil {
		// Only the run that registered this signal may clear it; a stale
		// callback must not detach a superseding restoration's signal.
		e.cancelRestore = nil
	}
	e.current = name
	e.lastRestore = outcome.String()
	e.phase = PhaseActive
	e.mu.Unlock()

	tracker.Suppress(false)
	e.log.Info("session active", "list", name, "restore", outcome.String())
	watcher.Sync()
}

func (e *Engine) stillActive(name string) func() bool {
	return func() bool {
		return e.detector.Current() == name
	}
}

func (e *Engine) saveFunc(name string) track.SaveFunc {
	return func(postID string, ts *time.Time) {
		timeout := e.cfg.SaveTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := e.store.Set(ctx, name, postID, ts); err != nil {
			// Non-fatal: the next debounce cycle retries naturally.
			e.log.Error("marker save failed", "list", name, "error", err)
		}
	}
}

// teardownLocked disconnects the live session's watchers and aborts any
// in-flight restoration. Callers hold e.mu.
func (e *Engine) teardownLocked() {
	if e.watcher != nil {
		e.watcher.Stop()
		e.watcher = nil
	}
	if e.tracker != nil {
		e.tracker.Stop()
		e.tracker = nil
	}
	if e.cancelRestore != nil {
		e.cancelRestore()
		e.cancelRestore = nil
	}
}

func (e *Engine) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.teardownLocked()
	e.current = ""
	e.phase = PhaseNoList
}
