package data

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DestYchen/ipharma-hack-2026/registryparser/entities"
)

// SearchSession keeps the result of one reference search so a later choose
// call can replay the selection without re-matching.
type SearchSession struct {
	RequestID  string
	CreatedAt  time.Time
	Query      entities.Query
	Normalized entities.Query
	MatchedIdx []int
	Options    []entities.ReferenceOption
	SourcePath string
}

// SessionStore is an in-memory map of search sessions keyed by request id.
// Sessions older than TTL are dropped lazily on access.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*SearchSession
	ttl      time.Duration
}

// NewSessionStore creates a session store with the given TTL
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*SearchSession),
		ttl:      ttl,
	}
}

// Create stores a new session and returns its generated request id
func (s *SessionStore) Create(session *SearchSession) string {
	id := uuid.NewString()
	session.RequestID = id
	session.CreatedAt = time.Now()

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[id] = session
	s.mu.Unlock()

	return id
}

// Get returns the session for the given request id, or false if it does
// not exist or has expired
func (s *SessionStore) Get(requestID string) (*SearchSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[requestID]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if s.ttl > 0 && time.Since(session.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.sessions, requestID)
		s.mu.Unlock()
		return nil, false
	}
	return session, true
}

// Delete removes a session
func (s *SessionStore) Delete(requestID string) {
	s.mu.Lock()
	delete(s.sessions, requestID)
	s.mu.Unlock()
}

// Len returns the number of stored sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// pruneLocked drops expired sessions. Caller must hold the write lock.
func (s *SessionStore) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	for id, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
