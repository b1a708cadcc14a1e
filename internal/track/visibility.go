package track

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gitune/twitter-list-scroller/internal/post"
	"github.com/gitune/twitter-list-scroller/internal/surface"
	"github.com/gitune/twitter-list-scroller/internal/waitfor"
)

// SaveFunc commits a read position. ts is nil when the topmost valid post is
// a repost and carries no authoritative time.
type SaveFunc func(postID string, ts *time.Time)

// Tracker watches the current watch-set of rendered posts and reports the
// topmost sufficiently-visible one as the reading position, debounced.
type Tracker struct {
	surf        surface.Surface
	labels      post.Labels
	threshold   float64
	stillActive func() bool
	save        SaveFunc
	debounce    *waitfor.Debouncer
	log         *slog.Logger

	mu         sync.Mutex
	watch      []surface.PostHandle
	suppressed bool
}

func NewTracker(surf surface.Surface, labels post.Labels, threshold float64, saveDelay time.Duration, stillActive func() bool, save SaveFunc, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		surf:        surf,
		labels:      labels,
		threshold:   threshold,
		stillActive: stillActive,
		save:        save,
		debounce:    waitfor.NewDebouncer(saveDelay),
		log:         log.With("component", "track"),
	}
}

// SetWatchSet replaces the watched posts with exactly the currently rendered
// ones. The set never accumulates across timeline mutations.
func (t *Tracker) SetWatchSet(posts []surface.PostHandle) {
	t.mu.Lock()
	t.watch = posts
	t.mu.Unlock()
}

// Suppress pauses (or resumes) the save path. While a restoration scroll is
// in flight its induced visibility changes must not advance the marker.
func (t *Tracker) Suppress(on bool) {
	t.mu.Lock()
	t.suppressed = on
	t.mu.Unlock()
	if on {
		t.debounce.Cancel()
	}
}

// Observe evaluates the watch-set against the viewport and schedules a
// debounced save for the topmost valid visible post.
func (t *Tracker) Observe() {
	t.mu.Lock()
	if t.suppressed {
		t.mu.Unlock()
		return
	}
	watch := t.watch
	t.mu.Unlock()

	target, view := t.topmostValid(watch)
	if target == nil {
		return
	}
	if view.ID == "" {
		// A post without a permalink cannot anchor a position.
		return
	}
	if !t.stillActive() {
		return
	}

	id := view.ID
	var ts *time.Time
	if !view.Retweet {
		ts = view.Timestamp
	}
	t.debounce.Call(func() {
		t.mu.Lock()
		suppressed := t.suppressed
		t.mu.Unlock()
		if suppressed || !t.stillActive() {
			return
		}
		t.save(id, ts)
	})
}

// Stop drops any pending save.
func (t *Tracker) Stop() {
	t.debounce.Cancel()
}

// topmostValid picks the intersecting post with the smallest top offset that
// is neither promoted nor a reply-parent. Reposts stay eligible: the user may
// have last seen a repost specifically.
func (t *Tracker) topmostValid(watch []surface.PostHandle) (surface.PostHandle, post.View) {
	viewportH := t.surf.ViewportHeight()

	visible := make([]surface.PostHandle, 0, len(watch))
	for _, p := range watch {
		if p.Bounds().VisibleRatio(viewportH) >= t.threshold {
			visible = append(visible, p)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Bounds().Top < visible[j].Bounds().Top
	})

	for _, p := range visible {
		view := post.Classify(p.Article(), t.labels)
		if view.Promoted || view.ReplyParent {
			continue
		}
		return p, view
	}
	return nil, post.View{}
}
