package dashboard

import (
	"sync"
	"time"
)

// debouncer coalesces a burst of triggers into one deferred run: each
// trigger restarts the countdown, and run fires once it is left alone for
// the full delay. A delay of zero or less runs synchronously, which tests
// use to step the engine deterministically.
type debouncer struct {
	delay time.Duration
	run   func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

func newDebouncer(delay time.Duration, run func()) *debouncer {
	return &debouncer{delay: delay, run: run}
}

func (d *debouncer) Trigger() {
	if d.delay <= 0 {
		d.run()
		return
	}
	d.mu.Lock()
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
	} else {
		d.timer.Reset(d.delay)
	}
	d.mu.Unlock()
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.mu.Unlock()
	d.run()
}

// Flush runs a pending trigger now instead of waiting out the delay.
func (d *debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	pending := d.pending
	d.pending = false
	d.mu.Unlock()
	if pending {
		d.run()
	}
}

// Stop drops any pending trigger without running it.
func (d *debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
	d.mu.Unlock()
}
