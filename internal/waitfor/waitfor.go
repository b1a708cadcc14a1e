// Package waitfor holds the two timing primitives the engine leans on:
// trailing-edge debouncing and bounded polling.
package waitfor

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrTimeout = errors.New("waitfor: timeout")

// Debouncer coalesces bursts of calls into one trailing-edge callback per
// quiet window. Only the last callback scheduled within a window runs.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call schedules fn after the quiet window, replacing any pending callback.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Poll checks pred every interval until it returns true, the attempt budget
// runs out (ErrTimeout) or ctx is cancelled. The first check is immediate.
func Poll(ctx context.Context, pred func() bool, interval time.Duration, maxAttempts int) error {
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pred() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return ErrTimeout
}
