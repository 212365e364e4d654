// Package session provides conversation state for the assistant core.
//
// A Session is the unit of isolation: it owns an append-only History of
// Turns and a mutex the router acquires for the duration of a request so
// that concurrent requests against the same session never interleave their
// memory appends. Sessions live in memory only and are destroyed on reset
// or process shutdown.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a Turn.
type Role string

// Valid turn roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one message exchanged within a session. Turns are immutable once
// appended; Payload carries structured tool results (search hits, extracted
// document metadata, weather reports) and must not be mutated after Append.
type Turn struct {
	Role      Role
	Content   string
	Payload   map[string]any
	Timestamp time.Time
}

// Session is a bounded conversational context identified by an opaque id.
//
// The embedded mutex is the per-session exclusion scope: the router holds it
// for the duration of one Handle call. It deliberately does NOT guard the
// History, which has its own finer lock so that readers (window assembly,
// HTTP session export) do not need the exclusion scope.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu sync.Mutex

	activityMu   sync.RWMutex
	lastActivity time.Time

	history *History
}

func newSession(id uuid.UUID) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		lastActivity: now,
		history:      NewHistory(),
	}
}

// Lock acquires the per-session exclusion scope.
// At most one request per session may be in flight between Lock and Unlock.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the per-session exclusion scope.
func (s *Session) Unlock() { s.mu.Unlock() }

// History returns the session's conversation log.
func (s *Session) History() *History { return s.history }

// Touch records request activity on the session.
func (s *Session) Touch() {
	s.activityMu.Lock()
	s.lastActivity = time.Now()
	s.activityMu.Unlock()
}

// LastActivity reports when the session last handled a request.
func (s *Session) LastActivity() time.Time {
	s.activityMu.RLock()
	defer s.activityMu.RUnlock()
	return s.lastActivity
}
