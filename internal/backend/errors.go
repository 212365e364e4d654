package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a backend failure.
type Kind string

// Backend failure kinds. Every failed call maps to exactly one.
const (
	KindUnreachable Kind = "unreachable"
	KindTimeout     Kind = "timeout"
	KindAuthFailure Kind = "authFailure"
	KindRateLimited Kind = "rateLimited"
)

// Error is a classified backend failure. It is fatal to the current request:
// the router surfaces it verbatim and appends nothing to memory.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a backend Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

// classifyPatterns groups error substrings by failure kind. Matched
// case-insensitively against err.Error().
//
// NOTE: This uses string matching because Genkit and LLM provider SDKs do
// not expose typed errors for transient failures. Re-evaluate if Genkit
// adds structured error types in a future version.
var classifyPatterns = []struct {
	kind     Kind
	patterns []string
}{
	{KindRateLimited, []string{"rate limit", "quota exceeded", "429", "resource exhausted"}},
	{KindAuthFailure, []string{"401", "403", "unauthorized", "permission denied", "api key", "invalid credential"}},
	{KindTimeout, []string{"deadline exceeded", "timed out", "timeout"}},
}

// Classify maps a provider error to a failure Kind. Context expiry wins over
// string patterns; anything unrecognized is treated as unreachable.
func Classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, group := range classifyPatterns {
		for _, p := range group.patterns {
			if strings.Contains(msg, p) {
				return group.kind
			}
		}
	}
	return KindUnreachable
}
