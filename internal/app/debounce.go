package app

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Trigger calls into a single invocation
// of fn after a quiet interval. Each Trigger restarts the timer, so a
// steady stream of triggers keeps deferring the call.
type Debouncer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a debouncer that invokes fn d after the most
// recent Trigger. fn runs on a timer goroutine.
func NewDebouncer(d time.Duration, fn func()) *Debouncer {
	return &Debouncer{d: d, fn: fn}
}

// Trigger schedules (or reschedules) the pending invocation.
func (db *Debouncer) Trigger() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.stopped {
		return
	}
	if db.timer != nil {
		db.timer.Stop()
	}
	db.timer = time.AfterFunc(db.d, db.fire)
}

func (db *Debouncer) fire() {
	db.mu.Lock()
	if db.stopped {
		db.mu.Unlock()
		return
	}
	db.timer = nil
	db.mu.Unlock()
	db.fn()
}

// Flush runs the pending invocation immediately, if any. Used on
// shutdown and logout so the last burst of changes is not lost to the
// quiet interval.
func (db *Debouncer) Flush() {
	db.mu.Lock()
	pending := db.timer != nil && db.timer.Stop()
	db.timer = nil
	stopped := db.stopped
	db.mu.Unlock()
	if pending && !stopped {
		db.fn()
	}
}

// Stop cancels any pending invocation and rejects future triggers.
func (db *Debouncer) Stop() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stopped = true
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}
