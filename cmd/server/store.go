package main

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/pricecheck/internal/catalog"
	"github.com/Simplici0/pricecheck/internal/session"
)

type storedSession struct {
	session  *session.Session
	lastSeen time.Time
}

// sessionStore keeps one price check per browser. Every access holds mu, so
// each session sees a single writer.
type sessionStore struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	idle     time.Duration
	now      func() time.Time
	sessions map[uuid.UUID]*storedSession
}

func newSessionStore(c *catalog.Catalog, idle time.Duration) *sessionStore {
	return &sessionStore{
		catalog:  c,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*storedSession),
	}
}

// create registers a fresh session and drops the ones idle for too long.
func (s *sessionStore) create() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	id := uuid.New()
	s.sessions[id] = &storedSession{session: session.New(s.catalog), lastSeen: now}
	return id
}

// exists reports whether id names a live session.
func (s *sessionStore) exists(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	return ok && !s.expiredLocked(stored, s.now())
}

// with runs fn against the session for id. It returns false when the
// session is unknown or expired.
func (s *sessionStore) with(id uuid.UUID, fn func(*session.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored, ok := s.sessions[id]
	if !ok {
		return false
	}
	if s.expiredLocked(stored, now) {
		delete(s.sessions, id)
		return false
	}
	stored.lastSeen = now
	fn(stored.session)
	return true
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *sessionStore) pruneLocked(now time.Time) {
	for id, stored := range s.sessions {
		if s.expiredLocked(stored, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *sessionStore) expiredLocked(stored *storedSession, now time.Time) bool {
	return s.idle > 0 && now.Sub(stored.lastSeen) > s.idle
}
