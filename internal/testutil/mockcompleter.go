// Package testutil provides shared test doubles for the assistant core.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/victoruno/victoruno/internal/backend"
)

// MockCompleter provides deterministic completions for testing.
// It matches the last user message against registered patterns and returns
// the corresponding response.
//
// Thread-safe for concurrent use.
type MockCompleter struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	err      error
	delay    time.Duration
	calls    []MockCall
}

type mockRule struct {
	pattern  string // substring match, case-insensitive
	response string
}

// MockCall records a single call to the mock completer.
type MockCall struct {
	System      string
	Messages    []backend.Message
	UserMessage string // last user message text
	Response    string
}

// NewMockCompleter creates a mock completer with the given fallback response.
// The fallback is returned when no pattern matches.
func NewMockCompleter(fallback string) *MockCompleter {
	return &MockCompleter{fallback: fallback}
}

// AddResponse registers a pattern-response pair. When the last user message
// contains the pattern (case-insensitive), the response is returned.
// Patterns are checked in registration order; first match wins.
func (m *MockCompleter) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), response: response})
}

// Fail makes every subsequent call return err. Pass nil to clear.
func (m *MockCompleter) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDelay makes every subsequent call block for d before responding.
// Used to expose serialization and timeout behavior.
func (m *MockCompleter) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns a copy of all recorded calls.
func (m *MockCompleter) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// CallCount returns the number of recorded calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears all recorded calls (keeps registered responses).
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Complete implements backend.Completer.
func (m *MockCompleter) Complete(ctx context.Context, req backend.Request) (*backend.Completion, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			userText = req.Messages[i].Content
			break
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	response := m.fallback
	lower := strings.ToLower(userText)
	for _, r := range m.rules {
		if strings.Contains(lower, r.pattern) {
			response = r.response
			break
		}
	}

	messages := make([]backend.Message, len(req.Messages))
	copy(messages, req.Messages)
	m.calls = append(m.calls, MockCall{
		System:      req.System,
		Messages:    messages,
		UserMessage: userText,
		Response:    response,
	})

	return &backend.Completion{Text: response, Model: "mock/test-model"}, nil
}
