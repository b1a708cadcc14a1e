package sim

import (
	"sync"
	"testing"
	"time"

	"github.com/gitune/twitter-list-scroller/internal/surface"
)

func newScrollSurface() *Surface {
	surf := New(600)
	surf.AddList("Friends", NewFeed(2, 2,
		NewPost("2", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		NewPost("1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	))
	return surf
}

func TestSurface_SubscribeDeliversAndDetaches(t *testing.T) {
	surf := newScrollSurface()
	events, cancel := surf.Subscribe()

	surf.ScrollBy(10)
	ev := <-events
	if ev.Kind != surface.EventViewportMoved {
		t.Fatalf("unexpected event kind: %v", ev.Kind)
	}

	cancel()
	if _, ok := <-events; ok {
		t.Fatal("expected closed channel after detach")
	}

	// Events after detach must not reach (or panic on) the closed channel.
	surf.ScrollBy(10)
}

func TestSurface_UserScrollEmitsInputThenMove(t *testing.T) {
	surf := newScrollSurface()
	events, cancel := surf.Subscribe()
	defer cancel()

	surf.UserScroll(30)

	first := <-events
	second := <-events
	if first.Kind != surface.EventUserInput || second.Kind != surface.EventViewportMoved {
		t.Fatalf("unexpected event order: %v, %v", first.Kind, second.Kind)
	}
}

func TestSurface_UnsubscribeDuringEventBurst(t *testing.T) {
	surf := newScrollSurface()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				surf.UserScroll(10)
			}
		}
	}()

	// Attach and detach the way a restoration run does, while events keep
	// flowing from the scroll goroutine.
	for i := 0; i < 500; i++ {
		events, cancel := surf.Subscribe()
		select {
		case <-events:
		default:
		}
		cancel()
	}

	close(stop)
	wg.Wait()
}
