// Package backend resolves the "local" vs "remote" model configuration into a
// single chat-completion interface.
//
// The Selector is a pure strategy switch: the mode is resolved exactly once
// at construction time, and call sites see one request/response shape
// regardless of which provider backs it. Switching modes means constructing
// a new Selector; there is no implicit fallback between modes.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/victoruno/victoruno/internal/log"
)

// Mode selects the model invocation strategy.
type Mode string

// Supported backend modes.
const (
	// ModeLocal targets a self-hosted Ollama server over a local endpoint.
	ModeLocal Mode = "local"

	// ModeRemote targets the hosted Gemini API and requires a credential.
	ModeRemote Mode = "remote"
)

// Sentinel errors for Selector construction (configuration class: fatal,
// reported before any request is handled).
var (
	// ErrMissingCredential indicates remote mode was requested without an API key.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidMode indicates the mode is neither "local" nor "remote".
	ErrInvalidMode = errors.New("invalid backend mode")

	// ErrMissingModel indicates no model identifier was configured.
	ErrMissingModel = errors.New("missing model name")
)

// Message is one conversational message in a completion request.
// Role values mirror the session turn roles ("user", "assistant", "tool").
type Message struct {
	Role    string
	Content string
}

// Request is the single request shape presented to the router.
type Request struct {
	// System is the handler-assembled system prompt, including any tool
	// context or degradation notes.
	System string

	// Messages is the bounded conversation window, oldest first, ending
	// with the current user utterance.
	Messages []Message
}

// Completion is the backend's response.
type Completion struct {
	Text  string
	Model string // provider-qualified model that produced the text
}

// Completer produces a completion for a request. Implementations block on
// network I/O and must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Config holds Selector construction parameters.
type Config struct {
	Mode        Mode
	Model       string        // model identifier (unqualified)
	OllamaHost  string        // local mode endpoint
	APIKey      string        // remote mode credential
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration // per-call timeout; zero uses DefaultTimeout
}

// DefaultTimeout bounds a single backend call when Config.Timeout is unset.
const DefaultTimeout = 60 * time.Second

// validate checks construction-time requirements. Reachability of the
// endpoint is deliberately not checked; it surfaces on the first real call.
func (c Config) validate() error {
	switch c.Mode {
	case ModeLocal:
		// Ollama needs no credential.
	case ModeRemote:
		if c.APIKey == "" {
			return fmt.Errorf("%w: remote mode requires an API key", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.Model == "" {
		return ErrMissingModel
	}
	return nil
}

// Selector wraps a Completer with the cross-cutting call policy: proactive
// rate limiting, a per-call timeout, and failure classification. It is the
// only type the router talks to.
type Selector struct {
	completer Completer
	limiter   *rate.Limiter
	timeout   time.Duration
	model     string
	logger    log.Logger
}

// New constructs a Selector backed by Genkit with the provider chosen by
// cfg.Mode. Fails fast with a configuration error when a mandatory field is
// absent.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Selector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	completer, model, err := newGenkitCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithCompleter(completer, model, cfg.Timeout, logger), nil
}

// NewWithCompleter wires an explicit Completer. Used by tests and by callers
// that bring their own provider implementation.
func NewWithCompleter(c Completer, model string, timeout time.Duration, logger log.Logger) *Selector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Selector{
		completer: c,
		// 10 requests/sec sustained, burst of 30: generous for a personal
		// assistant, tight enough to avoid hammering a provider on retry loops.
		limiter: rate.NewLimiter(10, 30),
		timeout: timeout,
		model:   model,
		logger:  logger,
	}
}

// Model returns the provider-qualified model name this Selector invokes.
func (s *Selector) Model() string { return s.model }

// Complete invokes the backend once. Failures are classified into
// *backend.Error kinds; a timeout is reported as Kind timeout, never as a
// success with empty content. Backend calls are not auto-retried: a retry
// would double model billing and side effects, so the decision is left to
// the caller.
func (s *Selector) Complete(ctx context.Context, req Request) (*Completion, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindRateLimited, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	completion, err := s.completer.Complete(callCtx, req)
	if err != nil {
		kind := Classify(err)
		if callCtx.Err() != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			kind = KindTimeout
		}
		s.logger.Warn("backend call failed",
			"model", s.model,
			"kind", string(kind),
			"elapsed", time.Since(start),
			"error", err,
		)
		return nil, &Error{Kind: kind, Err: err}
	}

	s.logger.Debug("backend call completed",
		"model", s.model,
		"elapsed", time.Since(start),
		"response_len", len(completion.Text),
	)
	return completion, nil
}
