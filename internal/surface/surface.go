// Package surface declares the host-page capabilities the engine consumes.
// The concrete binding (a real page, or the in-repo simulator) is injected.
package surface

import (
	"time"

	nethtml "golang.org/x/net/html"
)

// Rect is the viewport-relative geometry of a rendered post. Top may be
// negative when the post is partly scrolled off the top.
type Rect struct {
	Top    float64
	Height float64
}

// VisibleRatio is the fraction of the rect's area inside a viewport of
// height viewportH.
func (r Rect) VisibleRatio(viewportH float64) float64 {
	if r.Height <= 0 || viewportH <= 0 {
		return 0
	}
	top := max(r.Top, 0)
	bottom := min(r.Top+r.Height, viewportH)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / r.Height
}

// PostHandle is one rendered timeline post. Article gives the parsed markup
// for classification; Bounds its current on-screen geometry.
type PostHandle interface {
	Article() *nethtml.Node
	Bounds() Rect
}

type EventKind int

const (
	// EventTimelineChanged fires on structural mutation under the timeline
	// container (posts loaded or removed).
	EventTimelineChanged EventKind = iota
	// EventNavChanged fires when navigation state may have changed (path or
	// tab bar mutation).
	EventNavChanged
	// EventViewportMoved fires on any scroll or resize, programmatic or not.
	EventViewportMoved
	// EventUserInput fires on user-initiated wheel, touch or key input.
	EventUserInput
)

type Event struct {
	Kind EventKind
}

// Surface is the full capability set. All commands are fire-and-forget;
// smooth scrolling is never awaited, only superseded.
type Surface interface {
	// Posts returns the currently rendered posts, top to bottom.
	Posts() []PostHandle
	// ActiveTab returns the active tab's display label, or ok=false when no
	// tab bar is present.
	ActiveTab() (label string, ok bool)
	// Path is the current navigation path.
	Path() string
	// TimelineReady reports whether the timeline container is present with
	// at least one rendered post.
	TimelineReady() bool
	ViewportHeight() float64
	// ScrollBy scrolls the viewport by dy pixels (smooth).
	ScrollBy(dy float64)
	// ScrollIntoView scrolls until the post's top aligns with the viewport
	// top, triggering further content loading when it was the last one.
	ScrollIntoView(p PostHandle)
	// Highlight applies a transient visual accent to a post.
	Highlight(p PostHandle, d time.Duration)
	// Subscribe registers an event listener. The returned cancel detaches it;
	// every acquired subscription must be released on teardown.
	Subscribe() (<-chan Event, func())
}
