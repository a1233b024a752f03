package notify

import (
	"sync"
	"testing"
	"time"
)

// collectFires returns a FireFunc that appends payloads under a lock, and
// a snapshot accessor.
func collectFires() (FireFunc, func() []Payload) {
	var mu sync.Mutex
	var fired []Payload
	fn := func(p Payload) {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, p)
	}
	snap := func() []Payload {
		mu.Lock()
		defer mu.Unlock()
		return append([]Payload(nil), fired...)
	}
	return fn, snap
}

func TestCoalescingKeepsLastPayload(t *testing.T) {
	fn, fired := collectFires()
	d := NewDebouncer(30*time.Millisecond, fn)
	defer d.Stop()

	d.Arm(7, Payload{PartyID: 7, InitiatorID: 1})
	time.Sleep(10 * time.Millisecond)
	d.Arm(7, Payload{PartyID: 7, InitiatorID: 2})

	time.Sleep(100 * time.Millisecond)

	got := fired()
	if len(got) != 1 {
		t.Fatalf("expected exactly one fire, got %d", len(got))
	}
	if got[0].InitiatorID != 2 {
		t.Errorf("fire should carry the payload of the last arm, got %+v", got[0])
	}
}

func TestIndependentKeysFireIndependently(t *testing.T) {
	fn, fired := collectFires()
	d := NewDebouncer(20*time.Millisecond, fn)
	defer d.Stop()

	d.Arm(1, Payload{PartyID: 1, InitiatorID: 1})
	d.Arm(2, Payload{PartyID: 2, InitiatorID: 1})

	time.Sleep(80 * time.Millisecond)

	if got := fired(); len(got) != 2 {
		t.Errorf("expected both keys to fire, got %+v", got)
	}
}

func TestCancelPreventsFire(t *testing.T) {
	fn, fired := collectFires()
	d := NewDebouncer(20*time.Millisecond, fn)
	defer d.Stop()

	d.Arm(1, Payload{PartyID: 1})
	d.Cancel(1)

	time.Sleep(60 * time.Millisecond)

	if got := fired(); len(got) != 0 {
		t.Errorf("cancelled timer fired: %+v", got)
	}
}

func TestConcurrentReArmYieldsSingleFire(t *testing.T) {
	fn, fired := collectFires()
	d := NewDebouncer(30*time.Millisecond, fn)
	defer d.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			d.Arm(9, Payload{PartyID: 9, InitiatorID: n})
		}(int64(i))
	}
	wg.Wait()

	time.Sleep(100 * time.Millisecond)

	if got := fired(); len(got) != 1 {
		t.Errorf("concurrent re-arms must coalesce to one fire, got %d", len(got))
	}
}

func TestStopDropsPending(t *testing.T) {
	fn, fired := collectFires()
	d := NewDebouncer(20*time.Millisecond, fn)

	d.Arm(1, Payload{PartyID: 1})
	d.Stop()

	time.Sleep(60 * time.Millisecond)

	if got := fired(); len(got) != 0 {
		t.Errorf("timer fired after Stop: %+v", got)
	}
}

func TestReArmAtExpiryBoundaryHonorsCancel(t *testing.T) {
	// A timer can expire while its callback is parked on the mutex; a
	// re-arm that wins the lock replaces it, and a cancel of the
	// replacement must silence the key for good. The superseded callback
	// must neither fire nor orphan the replacement's map entry.
	for i := 0; i < 200; i++ {
		fn, fired := collectFires()
		d := NewDebouncer(100*time.Microsecond, fn)

		d.Arm(1, Payload{PartyID: 1, InitiatorID: 1})

		// Hold the lock across the timer's expiry so its callback parks.
		d.mu.Lock()
		time.Sleep(300 * time.Microsecond)
		d.mu.Unlock()

		d.Arm(1, Payload{PartyID: 1, InitiatorID: 2})
		d.Cancel(1)

		time.Sleep(2 * time.Millisecond)
		for _, p := range fired() {
			if p.InitiatorID == 2 {
				t.Fatalf("iteration %d: cancelled payload fired anyway: %+v", i, p)
			}
		}
		d.Stop()
	}
}

func TestReArmAfterExpiryBoundaryStillCoalesces(t *testing.T) {
	// After the boundary interleaving, the key must keep behaving: one
	// more arm yields exactly one fresh fire, with no invisible leftover
	// timer doubling it.
	fn, fired := collectFires()
	d := NewDebouncer(100*time.Microsecond, fn)
	defer d.Stop()

	d.Arm(1, Payload{PartyID: 1, InitiatorID: 1})
	d.mu.Lock()
	time.Sleep(300 * time.Microsecond)
	d.mu.Unlock()
	d.Arm(1, Payload{PartyID: 1, InitiatorID: 2})
	d.Cancel(1)

	d.Arm(1, Payload{PartyID: 1, InitiatorID: 3})
	time.Sleep(2 * time.Millisecond)

	var fresh, stale int
	for _, p := range fired() {
		switch p.InitiatorID {
		case 3:
			fresh++
		case 2:
			stale++
		}
	}
	if fresh != 1 {
		t.Errorf("expected exactly one fire for the new arm, got %d", fresh)
	}
	if stale != 0 {
		t.Errorf("cancelled payload fired %d time(s)", stale)
	}
}
