// Package session holds per-user transient dialogue state.
//
// A session is the cursor of a user's in-progress dialogue: which dialogue
// is active, its current step, and the accumulated scratch input. Sessions
// live only for the duration of the dialogue.
package session

import (
	"log/slog"
	"sync"

	"github.com/bringalong/bringalong/internal/models"
)

// Session is one user's active dialogue cursor. A user has at most one.
type Session struct {
	Dialog  string
	Step    string
	Scratch models.Scratch
}

// Store is an in-memory session store. Get/Set/Clear are safe for
// concurrent use; Do additionally serializes whole read-modify-write
// sequences per user, which the dialogue engine relies on so that two rapid
// events from the same user can never race on the session.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*userLock
}

// userLock is a refcounted per-user mutex. The entry is evicted once the
// last holder releases it, so the lock table stays bounded by the number of
// users with in-flight events rather than every user ever seen.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*userLock),
	}
}

// Get returns the user's session, or nil when no dialogue is active.
func (s *Store) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

// Set stores the user's session, replacing any existing one.
func (s *Store) Set(userID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
	slog.Debug("session set", "userID", userID, "dialog", sess.Dialog, "step", sess.Step)
}

// Clear removes the user's session.
func (s *Store) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	slog.Debug("session cleared", "userID", userID)
}

// Do runs fn while holding the user's lock. Events for different users
// proceed concurrently; events for the same user are serialized.
func (s *Store) Do(userID int64, fn func()) {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &userLock{}
		s.locks[userID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	fn()
	lock.mu.Unlock()

	s.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, userID)
	}
	s.mu.Unlock()
}
