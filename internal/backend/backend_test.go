package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/victoruno/victoruno/internal/log"
)

// fakeCompleter returns canned completions or errors, with an optional delay.
type fakeCompleter struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (*Completion, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Text: f.text, Model: "fake/model"}, nil
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "local mode needs no credential",
			cfg:     Config{Mode: ModeLocal, Model: "gemma3:latest", OllamaHost: "http://localhost:11434"},
			wantErr: nil,
		},
		{
			name:    "remote mode with credential",
			cfg:     Config{Mode: ModeRemote, Model: "gemini-2.5-flash", APIKey: "key"},
			wantErr: nil,
		},
		{
			name:    "remote mode without credential",
			cfg:     Config{Mode: ModeRemote, Model: "gemini-2.5-flash"},
			wantErr: ErrMissingCredential,
		},
		{
			name:    "unknown mode",
			cfg:     Config{Mode: "cloud", Model: "m"},
			wantErr: ErrInvalidMode,
		},
		{
			name:    "missing model",
			cfg:     Config{Mode: ModeLocal, OllamaHost: "http://localhost:11434"},
			wantErr: ErrMissingModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectorComplete(t *testing.T) {
	fake := &fakeCompleter{text: "hello there"}
	sel := NewWithCompleter(fake, "fake/model", time.Second, log.NewNop())

	got, err := sel.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "hello there" {
		t.Errorf("Text = %q, want %q", got.Text, "hello there")
	}
	if fake.calls != 1 {
		t.Errorf("completer called %d times, want exactly 1 (no auto-retry)", fake.calls)
	}
}

func TestSelectorNoRetryOnFailure(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("connection refused")}
	sel := NewWithCompleter(fake, "fake/model", time.Second, log.NewNop())

	_, err := sel.Complete(context.Background(), Request{})
	if err == nil {
		t.Fatal("Complete() error = nil, want failure")
	}
	if fake.calls != 1 {
		t.Errorf("completer called %d times, want exactly 1", fake.calls)
	}
	if !IsKind(err, KindUnreachable) {
		t.Errorf("error kind = %v, want unreachable", err)
	}
}

func TestSelectorTimeoutIsNeverEmptySuccess(t *testing.T) {
	fake := &fakeCompleter{text: "too late", delay: 200 * time.Millisecond}
	sel := NewWithCompleter(fake, "fake/model", 20*time.Millisecond, log.NewNop())

	got, err := sel.Complete(context.Background(), Request{})
	if err == nil {
		t.Fatalf("Complete() = %+v, want timeout error", got)
	}
	if !IsKind(err, KindTimeout) {
		t.Errorf("error = %v, want kind timeout", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"rate limited", errors.New("429 Too Many Requests"), KindRateLimited},
		{"quota", errors.New("quota exceeded for project"), KindRateLimited},
		{"auth", errors.New("401 Unauthorized"), KindAuthFailure},
		{"bad key", errors.New("API key not valid"), KindAuthFailure},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"timeout text", errors.New("request timed out"), KindTimeout},
		{"connection refused", errors.New("dial tcp: connection refused"), KindUnreachable},
		{"unknown", errors.New("something odd"), KindUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	be := &Error{Kind: KindUnreachable, Err: inner}

	if !errors.Is(be, inner) {
		t.Error("errors.Is failed to unwrap backend error")
	}
}
