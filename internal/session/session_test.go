package session

import (
	"sync"
	"testing"

	"github.com/bringalong/bringalong/internal/models"
)

func TestGetSetClear(t *testing.T) {
	s := NewStore()

	if got := s.Get(1); got != nil {
		t.Fatalf("expected nil session, got %+v", got)
	}

	s.Set(1, &Session{Dialog: "add_filling", Step: "typing_name", Scratch: models.AddFillingScratch{PartyID: 7}})
	got := s.Get(1)
	if got == nil || got.Dialog != "add_filling" {
		t.Fatalf("unexpected session: %+v", got)
	}
	sc, ok := got.Scratch.(models.AddFillingScratch)
	if !ok || sc.PartyID != 7 {
		t.Errorf("scratch not preserved: %+v", got.Scratch)
	}

	if other := s.Get(2); other != nil {
		t.Errorf("sessions must be per user, got %+v", other)
	}

	s.Clear(1)
	if got := s.Get(1); got != nil {
		t.Errorf("session not cleared: %+v", got)
	}
}

func TestDoSerializesPerUser(t *testing.T) {
	s := NewStore()
	const n = 200

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do(1, func() {
				counter++
			})
		}()
	}
	wg.Wait()

	if counter != n {
		t.Errorf("lost updates under Do: got %d, want %d", counter, n)
	}
}

func TestDoEvictsIdleLocks(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for userID := int64(1); userID <= 100; userID++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				s.Do(id, func() {})
			}
		}(userID)
	}
	wg.Wait()

	s.mu.Lock()
	remaining := len(s.locks)
	s.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock table should be empty once all users are idle, got %d entries", remaining)
	}
}
