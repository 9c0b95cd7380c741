// Package session keeps one form.Controller per rendering session.
//
// Each controller stays single-owner: With holds the session's lock while
// the callback runs, so two requests of the same visitor are handled one
// after the other while different visitors proceed in parallel.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/cafe-registration/internal/form"
)

type entry struct {
	mu       sync.Mutex
	ctrl     *form.Controller
	lastSeen time.Time
}

// Store maps session ids to controllers.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry

	newController func() *form.Controller
	idle          time.Duration
	limit         int
	now           func() time.Time
}

// NewStore returns an empty Store. newController builds the controller of
// a fresh session; sessions unused for longer than idle are dropped. At
// most limit sessions are kept: starting one more evicts the least recently
// used.
func NewStore(newController func() *form.Controller, idle time.Duration, limit int) *Store {
	return &Store{
		sessions:      make(map[string]*entry),
		newController: newController,
		idle:          idle,
		limit:         limit,
		now:           time.Now,
	}
}

// With runs fn with the controller of session id, creating a new session
// when id is empty, unknown or expired. It returns the id fn ran under and
// whatever fn returned.
func (s *Store) With(id string, fn func(*form.Controller) error) (string, error) {
	id, e := s.acquire(id)
	defer e.mu.Unlock()

	return id, fn(e.ctrl)
}

func (s *Store) acquire(id string) (string, *entry) {
	s.mu.Lock()
	now := s.now()
	s.sweep(now)

	e, ok := s.sessions[id]
	if !ok {
		if len(s.sessions) >= s.limit {
			s.evictOldest()
		}
		id = uuid.NewString()
		e = &entry{ctrl: s.newController()}
		s.sessions[id] = e
	}
	e.lastSeen = now
	s.mu.Unlock()

	e.mu.Lock()
	return id, e
}

// sweep drops idle sessions. Callers hold s.mu.
func (s *Store) sweep(now time.Time) {
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.idle {
			delete(s.sessions, id)
		}
	}
}

// evictOldest drops the least recently used session. Callers hold s.mu.
func (s *Store) evictOldest() {
	var (
		oldest string
		seen   time.Time
	)
	for id, e := range s.sessions {
		if oldest == "" || e.lastSeen.Before(seen) {
			oldest, seen = id, e.lastSeen
		}
	}
	delete(s.sessions, oldest)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
