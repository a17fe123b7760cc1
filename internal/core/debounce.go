package core

import (
	"sync"
	"time"
)

// Debouncer is a coalescing write-back: rapid Schedule calls within the
// window collapse into a single invocation of fn after the last call.
// The timer is reset, not stacked, so the eventual write always reflects
// the most recent state.
//
// Flush contract: Flush runs fn synchronously if a write is pending,
// bounding data loss on shutdown to callers that never flush.
type Debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func() error
	timer   *time.Timer
	pending bool
	stopped bool
}

// NewDebouncer creates a Debouncer invoking fn after the given window.
func NewDebouncer(window time.Duration, fn func() error) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Schedule arms (or re-arms) the timer. Safe to call from any goroutine.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()

	if err := d.fn(); err != nil {
		// Keep the write pending and re-arm the timer so the retry runs
		// on the next tick even without further Schedule calls.
		d.mu.Lock()
		if !d.stopped {
			d.pending = true
			if d.timer != nil {
				d.timer.Stop()
			}
			d.timer = time.AfterFunc(d.window, d.fire)
		}
		d.mu.Unlock()
	}
}

// Flush runs the pending write immediately, if any.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
	d.mu.Unlock()

	if err := d.fn(); err != nil {
		d.mu.Lock()
		if !d.stopped {
			d.pending = true
		}
		d.mu.Unlock()
		return err
	}
	return nil
}

// Stop flushes and permanently disables the debouncer.
func (d *Debouncer) Stop() error {
	err := d.Flush()
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	return err
}

// Pending reports whether a write is scheduled but not yet performed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
