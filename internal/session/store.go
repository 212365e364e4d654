package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound indicates the requested session does not exist.
// Checked with errors.Is() by the router and the HTTP shim.
var ErrSessionNotFound = errors.New("session not found")

// Store is an in-memory session registry. Safe for concurrent use.
//
// The store lock only guards the registry map; each Session carries its own
// exclusion scope, so holding one session's lock never blocks requests
// against other sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[uuid.UUID]*Session)}
}

// Create registers a new session with a fresh id.
func (s *Store) Create() *Session {
	sess := newSession(uuid.New())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session with the given id, or ErrSessionNotFound.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// GetOrCreate returns the session with the given id, creating it if absent.
func (s *Store) GetOrCreate(id uuid.UUID) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: another goroutine may have created it between the locks.
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = newSession(id)
	s.sessions[id] = sess
	return sess
}

// Delete removes a session from the registry. Its memory is gone with it;
// in-flight requests holding the session pointer finish against the orphan.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Reset clears the session's conversation memory immediately and atomically.
// The session itself survives and keeps its id.
func (s *Store) Reset(id uuid.UUID) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.History().Clear()
	return nil
}

// List returns all sessions ordered by creation time.
func (s *Store) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of registered sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
