// Package notify provides a keyed debounce timer used to coalesce bursts
// of party edits into a single outbound notification.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Payload is what a fired timer delivers to the callback.
type Payload struct {
	PartyID     int64
	InitiatorID int64
}

// FireFunc is invoked when a timer fires. It runs on the timer goroutine,
// concurrently with ordinary event processing, so it must not touch
// session state.
type FireFunc func(p Payload)

// Debouncer schedules one pending timer per key. Re-arming a key cancels
// and replaces its pending timer, so a burst of Arm calls within the delay
// window collapses to a single firing carrying the payload of the last
// call.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fire    FireFunc
	pending map[int64]*time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer firing fn after delay of quiet time.
func NewDebouncer(delay time.Duration, fn FireFunc) *Debouncer {
	return &Debouncer{
		delay:   delay,
		fire:    fn,
		pending: make(map[int64]*time.Timer),
	}
}

// Arm schedules (or reschedules) the timer for key. The cancel-and-replace
// is atomic under the debouncer's lock, so no two timers for the same key
// ever coexist.
func (d *Debouncer) Arm(key int64, p Payload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.pending[key]; ok {
		t.Stop()
		slog.Debug("debouncer re-armed", "key", key, "delay", d.delay)
	} else {
		slog.Debug("debouncer armed", "key", key, "delay", d.delay)
	}
	// An expired timer's callback may already be parked on the mutex when a
	// re-arm replaces it: Stop reports false and cannot call it off. The
	// callback therefore fires only if its own timer is still the one
	// registered for the key; a superseded callback must not touch the
	// replacement's map entry.
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.pending[key] == t && !d.stopped
		if current {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		if !current {
			return
		}
		slog.Debug("debouncer fired", "key", key)
		d.fire(p)
	})
	d.pending[key] = t
}

// Cancel drops any pending timer for key.
func (d *Debouncer) Cancel(key int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.pending[key]; ok {
		t.Stop()
		delete(d.pending, key)
		slog.Debug("debouncer cancelled", "key", key)
	}
}

// Stop cancels all pending timers. Timers are in-memory only; a pending
// window does not survive a restart.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
	slog.Debug("debouncer stopped")
}
