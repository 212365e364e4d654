package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Sentinel errors for configuration validation.
// Checked with errors.Is() by callers that map them to exit codes or HTTP status.
var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidMode indicates the backend mode is not "local" or "remote".
	ErrInvalidMode = errors.New("invalid mode")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidOllamaHost indicates the Ollama host is not a valid URL.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidWindowTurns indicates the conversation window size is out of range.
	ErrInvalidWindowTurns = errors.New("invalid max window turns")

	// ErrInvalidTimeout indicates a timeout value is non-positive.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidMaxFileSize indicates the attachment size limit is non-positive.
	ErrInvalidMaxFileSize = errors.New("invalid max file size")
)

// Validate checks the configuration for consistency and completeness.
// It fails fast: the first violated constraint is returned.
//
// Remote mode requires a Gemini API key at construction time; reachability
// of either backend is deliberately NOT validated here — it is only checked
// on the first real call.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Mode {
	case ModeLocal:
		if _, err := url.ParseRequestURI(c.OllamaHost); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidOllamaHost, c.OllamaHost)
		}
	case ModeRemote:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: remote mode requires GEMINI_API_KEY", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)", ErrInvalidMode, c.Mode, ModeLocal, ModeRemote)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be in [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 65536 {
		return fmt.Errorf("%w: %d (must be in [1, 65536])", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.MaxWindowTurns < MinWindowTurns || c.MaxWindowTurns > MaxAllowedWindowTurns {
		return fmt.Errorf("%w: %d (must be in [%d, %d])",
			ErrInvalidWindowTurns, c.MaxWindowTurns, MinWindowTurns, MaxAllowedWindowTurns)
	}

	if c.BackendTimeoutMs <= 0 {
		return fmt.Errorf("%w: backend_timeout_ms = %d", ErrInvalidTimeout, c.BackendTimeoutMs)
	}
	if c.CapabilityTimeoutMs <= 0 {
		return fmt.Errorf("%w: capability_timeout_ms = %d", ErrInvalidTimeout, c.CapabilityTimeoutMs)
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxFileSize, c.MaxFileSize)
	}

	return nil
}
