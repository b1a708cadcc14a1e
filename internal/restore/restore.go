// Package restore implements the scroll-search that brings a remembered read
// position back on screen.
package restore

import (
	"context"
	"log/slog"
	"time"

	"github.com/gitune/twitter-list-scroller/internal/marker"
	"github.com/gitune/twitter-list-scroller/internal/post"
	"github.com/gitune/twitter-list-scroller/internal/surface"
)

// Outcome is the terminal state of one restoration run.
type Outcome int

const (
	// OutcomeSkipped means there was no marker to restore.
	OutcomeSkipped Outcome = iota
	// OutcomeFound means the remembered post (or its overshoot neighbor) is
	// back on screen.
	OutcomeFound
	// OutcomeAborted means user input or session teardown cancelled the run.
	OutcomeAborted
	// OutcomeTimedOut means the safety bound on load-more attempts ran out.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFound:
		return "found"
	case OutcomeAborted:
		return "aborted"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

type Config struct {
	// RetryInterval is the fixed wait between load-more attempts.
	RetryInterval time.Duration
	// MaxRetries bounds load-more attempts. The search would terminate via
	// cancellation alone, but a marker pointing into a fully deleted region
	// would otherwise loop forever; <= 0 means unbounded.
	MaxRetries int
	// TopOffset is how far below the viewport top the target lands.
	TopOffset float64
	// HighlightFor is the duration of the transient arrival accent.
	HighlightFor time.Duration
}

// Restorer runs the cancellable scroll-search loop.
type Restorer struct {
	surf   surface.Surface
	labels post.Labels
	cfg    Config
	log    *slog.Logger
}

func New(surf surface.Surface, labels post.Labels, cfg Config, log *slog.Logger) *Restorer {
	if log == nil {
		log = slog.Default()
	}
	return &Restorer{
		surf:   surf,
		labels: labels,
		cfg:    cfg,
		log:    log.With("component", "restore"),
	}
}

// Run searches for the marked post, loading more content until it is found,
// the context is cancelled, or the retry bound is exhausted. The first
// user-initiated input aborts the run and detaches itself. Cancellation is
// checked at iteration boundaries only; an in-flight smooth scroll is never
// force-stopped.
func (r *Restorer) Run(ctx context.Context, m *marker.Marker) Outcome {
	if m == nil || (m.PostID == "" && m.Timestamp == nil) {
		return OutcomeSkipped
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, unsubscribe := r.surf.Subscribe()
	defer unsubscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind == surface.EventUserInput {
					r.log.Debug("user input, aborting restore", "list", m.List)
					cancel()
					return
				}
			}
		}
	}()

	r.log.Debug("restore started", "list", m.List, "post", m.PostID)

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return OutcomeAborted
		}

		posts := r.surf.Posts()
		target := findTarget(posts, m, r.labels)
		if target != nil {
			if ctx.Err() != nil {
				return OutcomeAborted
			}
			r.surf.ScrollBy(target.Bounds().Top - r.cfg.TopOffset)
			r.surf.Highlight(target, r.cfg.HighlightFor)
			r.log.Debug("restore target reached", "list", m.List, "attempts", attempt)
			return OutcomeFound
		}

		if r.cfg.MaxRetries > 0 && attempt+1 >= r.cfg.MaxRetries {
			r.log.Warn("restore gave up", "list", m.List, "attempts", attempt+1)
			return OutcomeTimedOut
		}

		if len(posts) > 0 {
			if ctx.Err() != nil {
				return OutcomeAborted
			}
			// Scrolling the last rendered post into view makes the host load
			// the next page of content.
			r.surf.ScrollIntoView(posts[len(posts)-1])
		}

		select {
		case <-ctx.Done():
			return OutcomeAborted
		case <-time.After(r.cfg.RetryInterval):
		}
	}
}

// findTarget scans rendered posts top to bottom. Promoted posts are skipped
// entirely. An exact id match wins immediately, reposts included. Otherwise,
// plain posts are compared by time: an equal timestamp is the target, and the
// first strictly older one means the marked post was deleted, so the target
// is the previously scanned post (overshoot policy).
func findTarget(posts []surface.PostHandle, m *marker.Marker, labels post.Labels) surface.PostHandle {
	var prev surface.PostHandle
	for _, p := range posts {
		view := post.Classify(p.Article(), labels)
		if view.Promoted {
			continue
		}
		if m.PostID != "" && view.ID == m.PostID {
			return p
		}
		if !view.ReplyParent && !view.Retweet && view.Timestamp != nil && m.Timestamp != nil {
			if view.Timestamp.Equal(*m.Timestamp) {
				return p
			}
			if view.Timestamp.Before(*m.Timestamp) {
				if prev != nil {
					return prev
				}
				return p
			}
		}
		prev = p
	}
	return nil
}
