package session

import (
	"sync"
	"time"
)

// History is an append-only conversation log with thread-safe access.
//
// Truncation is not a property of the log itself: Window is a pure function
// over the stored turns, so the windowing policy stays independently
// testable from the append path.
//
// The zero value is not useful - use NewHistory() to create instances.
type History struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{turns: make([]Turn, 0)}
}

// Append adds a turn to the end of the log. A zero Timestamp is stamped with
// the current time. Appended turns are never mutated or reordered.
func (h *History) Append(t Turn) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, t)
}

// Turns returns a copy of the full log in chronological order.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Window returns the most recent maxTurns turns in original chronological
// order. Truncation drops the oldest turns first. maxTurns <= 0 returns an
// empty slice.
func (h *History) Window(maxTurns int) []Turn {
	if maxTurns <= 0 {
		return []Turn{}
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if len(h.turns) > maxTurns {
		start = len(h.turns) - maxTurns
	}
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out
}

// Len returns the number of turns in the log.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}

// Clear removes all turns. The swap happens under the lock, so readers
// observe either the full log or an empty one, never a partial clear.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = make([]Turn, 0)
}
