package track

import (
	"time"

	"github.com/gitune/twitter-list-scroller/internal/surface"
	"github.com/gitune/twitter-list-scroller/internal/waitfor"
)

// Watcher keeps the tracker's watch-set equal to the posts currently in the
// timeline, coalescing mutation bursts into one resync per quiet window.
type Watcher struct {
	surf     surface.Surface
	tracker  *Tracker
	debounce *waitfor.Debouncer
}

func NewWatcher(surf surface.Surface, tracker *Tracker, delay time.Duration) *Watcher {
	return &Watcher{
		surf:     surf,
		tracker:  tracker,
		debounce: waitfor.NewDebouncer(delay),
	}
}

// OnMutation is called for every structural timeline change.
func (w *Watcher) OnMutation() {
	w.debounce.Call(w.resync)
}

// Sync rebuilds the watch-set immediately, bypassing the debounce. Used once
// at session start.
func (w *Watcher) Sync() {
	w.resync()
}

func (w *Watcher) resync() {
	w.tracker.SetWatchSet(w.surf.Posts())
	w.tracker.Observe()
}

func (w *Watcher) Stop() {
	w.debounce.Cancel()
}
