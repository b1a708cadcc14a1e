// Package sim provides a scriptable in-memory host surface. Tests drive it
// directly; the demo TUI renders it.
package sim

import (
	"sync"
	"time"

	nethtml "golang.org/x/net/html"

	"github.com/gitune/twitter-list-scroller/internal/surface"
)

// Feed is one list's timeline: the full post sequence, of which only a
// prefix is rendered at a time. Scrolling the last rendered post into view
// loads the next batch, like the host's infinite scroll.
type Feed struct {
	posts  []*Post
	loaded int
	batch  int
}

func NewFeed(initial, batch int, posts ...*Post) *Feed {
	if batch <= 0 {
		batch = 1
	}
	if initial > len(posts) {
		initial = len(posts)
	}
	if initial <= 0 {
		initial = min(batch, len(posts))
	}
	return &Feed{posts: posts, loaded: initial, batch: batch}
}

// Surface is the in-memory host page.
type Surface struct {
	mu        sync.Mutex
	path      string
	tabBar    bool
	activeTab string
	tabOrder  []string
	feeds     map[string]*Feed
	viewportH float64
	scrollY   float64
	ready     bool

	highlighted   *Post
	scrollCount   int
	loadMoreCount int

	subID int
	subs  map[int]chan surface.Event
}

func New(viewportH float64) *Surface {
	return &Surface{
		path:      "/home",
		tabBar:    true,
		feeds:     make(map[string]*Feed),
		viewportH: viewportH,
		ready:     true,
		subs:      make(map[int]chan surface.Event),
	}
}

// AddList registers a tab and its feed. The first added list becomes active.
func (s *Surface) AddList(label string, feed *Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feeds[label]; !ok {
		s.tabOrder = append(s.tabOrder, label)
	}
	s.feeds[label] = feed
	if s.activeTab == "" {
		s.activeTab = label
	}
}

// Tabs returns the registered tab labels in insertion order.
func (s *Surface) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tabOrder...)
}

// ActivateTab switches the active tab, resets scroll, and emits a nav event.
func (s *Surface) ActivateTab(label string) {
	s.mu.Lock()
	s.activeTab = label
	s.scrollY = 0
	s.highlighted = nil
	s.mu.Unlock()
	s.emit(surface.Event{Kind: surface.EventNavChanged})
	s.emit(surface.Event{Kind: surface.EventTimelineChanged})
}

// Navigate changes the current path (leaving the home surface drops the tab
// bar from the page).
func (s *Surface) Navigate(path string) {
	s.mu.Lock()
	s.path = path
	s.tabBar = path == "/home"
	s.mu.Unlock()
	s.emit(surface.Event{Kind: surface.EventNavChanged})
}

// SetReady toggles timeline readiness, for exercising the load-wait path.
func (s *Surface) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
	if ready {
		s.emit(surface.Event{Kind: surface.EventTimelineChanged})
	}
}

// UserScroll simulates wheel input: user-initiated, then the viewport moves.
func (s *Surface) UserScroll(dy float64) {
	s.emit(surface.Event{Kind: surface.EventUserInput})
	s.scroll(dy)
}

// ScrollY returns the current scroll offset.
func (s *Surface) ScrollY() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollY
}

// ScrollCount counts programmatic and user scrolls.
func (s *Surface) ScrollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrollCount
}

// LoadMoreCount counts load-more batches triggered via ScrollIntoView.
func (s *Surface) LoadMoreCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMoreCount
}

// HighlightedID returns the id of the currently highlighted post, or "".
func (s *Surface) HighlightedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.highlighted == nil {
		return ""
	}
	return s.highlighted.id
}

// handle adapts a *Post to surface.PostHandle with live geometry.
type handle struct {
	post *Post
	surf *Surface
	top  float64 // absolute offset at snapshot time
}

func (h *handle) Article() *nethtml.Node { return h.post.article }

func (h *handle) Bounds() surface.Rect {
	h.surf.mu.Lock()
	defer h.surf.mu.Unlock()
	return surface.Rect{Top: h.top - h.surf.scrollY, Height: h.post.height}
}

// Post returns the underlying simulated post.
func (h *handle) Post() *Post { return h.post }

func (s *Surface) Posts() []surface.PostHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.feeds[s.activeTab]
	if feed == nil {
		return nil
	}
	out := make([]surface.PostHandle, 0, feed.loaded)
	top := 0.0
	for i := 0; i < feed.loaded && i < len(feed.posts); i++ {
		p := feed.posts[i]
		out = append(out, &handle{post: p, surf: s, top: top})
		top += p.height
	}
	return out
}

func (s *Surface) ActiveTab() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tabBar || s.activeTab == "" {
		return "", false
	}
	return s.activeTab, true
}

func (s *Surface) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Surface) TimelineReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false
	}
	feed := s.feeds[s.activeTab]
	return feed != nil && feed.loaded > 0
}

func (s *Surface) ViewportHeight() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewportH
}

func (s *Surface) ScrollBy(dy float64) {
	s.scroll(dy)
}

func (s *Surface) ScrollIntoView(p surface.PostHandle) {
	h, ok := p.(*handle)
	if !ok {
		return
	}

	s.mu.Lock()
	s.scrollY = max(h.top, 0)
	s.scrollCount++
	feed := s.feeds[s.activeTab]
	loadedMore := false
	if feed != nil && feed.loaded < len(feed.posts) && lastLoaded(feed) == h.post {
		feed.loaded = min(feed.loaded+feed.batch, len(feed.posts))
		s.loadMoreCount++
		loadedMore = true
	}
	s.mu.Unlock()

	s.emit(surface.Event{Kind: surface.EventViewportMoved})
	if loadedMore {
		s.emit(surface.Event{Kind: surface.EventTimelineChanged})
	}
}

func (s *Surface) Highlight(p surface.PostHandle, _ time.Duration) {
	h, ok := p.(*handle)
	if !ok {
		return
	}
	s.mu.Lock()
	s.highlighted = h.post
	s.mu.Unlock()
}

func (s *Surface) Subscribe() (<-chan surface.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subID++
	id := s.subID
	ch := make(chan surface.Event, 32)
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Surface) scroll(dy float64) {
	s.mu.Lock()
	s.scrollY = max(s.scrollY+dy, 0)
	s.scrollCount++
	s.mu.Unlock()
	s.emit(surface.Event{Kind: surface.EventViewportMoved})
}

// emit fans the event out to every subscriber. The non-blocking sends stay
// under the lock so a concurrent unsubscribe cannot close a channel mid-send;
// a subscriber with a full buffer misses the event rather than stalling the
// page.
func (s *Surface) emit(ev surface.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func lastLoaded(feed *Feed) *Post {
	if feed.loaded == 0 || feed.loaded > len(feed.posts) {
		return nil
	}
	return feed.posts[feed.loaded-1]
}
