package track

import (
	"fmt"
	"sync"
	"testing"
	"time"

	nethtml "golang.org/x/net/html"

	"github.com/gitune/twitter-list-scroller/internal/post"
	"github.com/gitune/twitter-list-scroller/internal/surface"
)

type fakeHandle struct {
	article *nethtml.Node
	bounds  surface.Rect
}

func (h *fakeHandle) Article() *nethtml.Node { return h.article }
func (h *fakeHandle) Bounds() surface.Rect   { return h.bounds }

type fakeSurface struct {
	mu        sync.Mutex
	posts     []surface.PostHandle
	viewportH float64
}

func (s *fakeSurface) Posts() []surface.PostHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]surface.PostHandle(nil), s.posts...)
}
func (s *fakeSurface) ActiveTab() (string, bool) { return "", false }

func (s *fakeSurface) Path() string { return "/home" }

func (s *fakeSurface) TimelineReady() bool { return true }

func (s *fakeSurface) ViewportHeight() float64 { return s.viewportH }

func (s *fakeSurface) ScrollBy(float64) {}

func (s *fakeSurface) ScrollIntoView(surface.PostHandle) {}

func (s *fakeSurface) Highlight(surface.PostHandle, time.Duration) {}

func (s *fakeSurface) Subscribe() (<-chan surface.Event, func()) { return nil, func() {} }

type postFixture struct {
	id          string
	ts          string
	top         float64
	height      float64
	promoted    bool
	repost      bool
	replyParent bool
}

func buildHandle(t *testing.T, fx postFixture) *fakeHandle {
	t.Helper()

	social := ""
	if fx.repost {
		social = `<a role="link" href="/u"><span>Someone reposted</span></a>`
	}
	connector := ""
	if fx.replyParent {
		connector = `<div class="thread-connector"></div>`
	}
	trailer := ""
	if fx.promoted {
		trailer = `<span>Ad</span>`
	}
	permalink := ""
	if fx.id != "" {
		permalink = fmt.Sprintf(`<a href="/u/status/%s"><time datetime="%s">t</time></a>`, fx.id, fx.ts)
	}

	raw := fmt.Sprintf(`
<article data-testid="tweet">
  %s
  <div><div data-testid="Tweet-User-Avatar"></div>%s</div>
  <div>%s</div>
  <div><span>body text</span></div>
  %s
</article>`, social, connector, permalink, trailer)

	article, err := post.ParseArticle(raw)
	if err != nil {
		t.Fatalf("ParseArticle returned error: %v", err)
	}
	if fx.height == 0 {
		fx.height = 100
	}
	return &fakeHandle{article: article, bounds: surface.Rect{Top: fx.top, Height: fx.height}}
}

type savedCall struct {
	id string
	ts *time.Time
}

type saveRecorder struct {
	mu    sync.Mutex
	calls []savedCall
}

func (r *saveRecorder) save(id string, ts *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, savedCall{id: id, ts: ts})
}

func (r *saveRecorder) snapshot() []savedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]savedCall(nil), r.calls...)
}

func alwaysActive() bool { return true }

func newTestTracker(surf *fakeSurface, rec *saveRecorder, active func() bool) *Tracker {
	if active == nil {
		active = alwaysActive
	}
	return NewTracker(surf, post.DefaultLabels(), 0.8, 10*time.Millisecond, active, rec.save, nil)
}

func TestTracker_PicksTopmostValidRegardlessOfOrder(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)

	// Deliberately out of visual order: the promoted post sits above all,
	// the reply-parent next, then the post that should win.
	handles := []surface.PostHandle{
		buildHandle(t, postFixture{id: "4", ts: "2024-01-04T00:00:00Z", top: 400}),
		buildHandle(t, postFixture{id: "1", ts: "2024-01-01T00:00:00Z", top: 0, promoted: true}),
		buildHandle(t, postFixture{id: "3", ts: "2024-01-03T00:00:00Z", top: 220}),
		buildHandle(t, postFixture{id: "2", ts: "2024-01-02T00:00:00Z", top: 110, replyParent: true}),
	}
	tracker.SetWatchSet(handles)
	tracker.Observe()

	time.Sleep(40 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one save, got %d", len(calls))
	}
	if calls[0].id != "3" {
		t.Fatalf("expected topmost valid post 3, got %q", calls[0].id)
	}
}

func TestTracker_ThresholdFiltersPartiallyVisible(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)

	// 100px tall, only 30px inside the viewport: 0.3 < 0.8.
	mostlyHidden := buildHandle(t, postFixture{id: "1", ts: "2024-01-01T00:00:00Z", top: -70})
	fullyVisible := buildHandle(t, postFixture{id: "2", ts: "2024-01-02T00:00:00Z", top: 50})

	tracker.SetWatchSet([]surface.PostHandle{mostlyHidden, fullyVisible})
	tracker.Observe()

	time.Sleep(40 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 || calls[0].id != "2" {
		t.Fatalf("expected save for the fully visible post, got %+v", calls)
	}
}

func TestTracker_RepostSavesWithoutTimestamp(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)

	tracker.SetWatchSet([]surface.PostHandle{
		buildHandle(t, postFixture{id: "7", ts: "2024-01-01T00:00:00Z", top: 10, repost: true}),
	})
	tracker.Observe()

	time.Sleep(40 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one save, got %d", len(calls))
	}
	if calls[0].id != "7" {
		t.Fatalf("repost must anchor by id, got %q", calls[0].id)
	}
	if calls[0].ts != nil {
		t.Fatalf("repost must not carry a timestamp, got %v", calls[0].ts)
	}
}

func TestTracker_SuppressedObservationsAreIgnored(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)

	tracker.SetWatchSet([]surface.PostHandle{
		buildHandle(t, postFixture{id: "1", ts: "2024-01-01T00:00:00Z", top: 0}),
	})

	tracker.Suppress(true)
	tracker.Observe()
	time.Sleep(40 * time.Millisecond)
	if len(rec.snapshot()) != 0 {
		t.Fatal("suppressed observation must not save")
	}

	tracker.Suppress(false)
	tracker.Observe()
	time.Sleep(40 * time.Millisecond)
	if len(rec.snapshot()) != 1 {
		t.Fatal("expected save after suppression lifted")
	}
}

func TestTracker_SuppressCancelsPendingSave(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)

	tracker.SetWatchSet([]surface.PostHandle{
		buildHandle(t, postFixture{id: "1", ts: "2024-01-01T00:00:00Z", top: 0}),
	})
	tracker.Observe()
	tracker.Suppress(true) // restoration starts before the debounce fires

	time.Sleep(40 * time.Millisecond)
	if len(rec.snapshot()) != 0 {
		t.Fatal("pending save must be dropped when suppression starts")
	}
}

func TestTracker_DebounceCoalescesRapidScrolling(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)

	for i := 0; i < 5; i++ {
		tracker.SetWatchSet([]surface.PostHandle{
			buildHandle(t, postFixture{id: fmt.Sprintf("%d", i), ts: "2024-01-01T00:00:00Z", top: 0}),
		})
		tracker.Observe()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(40 * time.Millisecond)
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected one coalesced save, got %d", len(calls))
	}
	if calls[0].id != "4" {
		t.Fatalf("expected the last observation to win, got %q", calls[0].id)
	}
}

func TestTracker_InactiveListBlocksSave(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, func() bool { return false })

	tracker.SetWatchSet([]surface.PostHandle{
		buildHandle(t, postFixture{id: "1", ts: "2024-01-01T00:00:00Z", top: 0}),
	})
	tracker.Observe()

	time.Sleep(40 * time.Millisecond)
	if len(rec.snapshot()) != 0 {
		t.Fatal("save must be blocked when the list is no longer active")
	}
}

func TestWatcher_ResyncsWatchSetOnMutation(t *testing.T) {
	surf := &fakeSurface{viewportH: 600}
	rec := &saveRecorder{}
	tracker := newTestTracker(surf, rec, nil)
	watcher := NewWatcher(surf, tracker, 5*time.Millisecond)
	defer watcher.Stop()

	surf.mu.Lock()
	surf.posts = []surface.PostHandle{
		buildHandle(t, postFixture{id: "9", ts: "2024-01-01T00:00:00Z", top: 0}),
	}
	surf.mu.Unlock()

	watcher.OnMutation()
	time.Sleep(40 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0].id != "9" {
		t.Fatalf("expected resync to observe the new post, got %+v", calls)
	}
}
