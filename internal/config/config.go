// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.victoruno/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Backend: local (Ollama) vs remote (Gemini) model selection
//   - Capabilities: weather, web search, document extraction settings
//   - Conversation: memory window size
//
// Security: Sensitive data (API keys) are never logged; config directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend mode identifiers used in Config.Mode.
const (
	// ModeLocal targets a self-hosted Ollama server on the local network.
	ModeLocal = "local"

	// ModeRemote targets the hosted Gemini API and requires GEMINI_API_KEY.
	ModeRemote = "remote"
)

const (
	// DefaultMaxWindowTurns is the default conversation window size in turns.
	DefaultMaxWindowTurns = 20

	// MaxAllowedWindowTurns is the absolute maximum to prevent unbounded prompts.
	MaxAllowedWindowTurns = 1000

	// MinWindowTurns is the minimum useful window: one user/assistant pair.
	MinWindowTurns = 2

	// DefaultMaxFileSize is the default attachment size limit (10 MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
)

// SearXNGConfig holds SearXNG service configuration for web search.
type SearXNGConfig struct {
	// BaseURL is the SearXNG instance URL (e.g., http://searxng:8080)
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// MaxResults bounds the number of search results returned.
	MaxResults int `mapstructure:"max_results" json:"max_results"`
}

// WebScraperConfig holds web scraper configuration for research page fetching.
type WebScraperConfig struct {
	// Parallelism is max concurrent requests per domain (default: 2)
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`
	// DelayMs is delay between requests in milliseconds (default: 1000)
	DelayMs int `mapstructure:"delay_ms" json:"delay_ms"`
	// TimeoutMs is request timeout in milliseconds (default: 30000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// IntentConfig holds the lexical keyword sets used by the router to classify
// utterances. The exact keyword lists are tunable, not load-bearing: routing
// must stay deterministic for a fixed configuration, but the defaults are a
// heuristic, not a grammar.
type IntentConfig struct {
	Research []string `mapstructure:"research" json:"research"`
	Develop  []string `mapstructure:"develop" json:"develop"`
	Optimize []string `mapstructure:"optimize" json:"optimize"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update MarshalJSON.
type Config struct {
	// Agent identity woven into the system prompt.
	AgentName string `mapstructure:"agent_name" json:"agent_name"`

	// Backend mode and model configuration
	Mode        string  `mapstructure:"mode" json:"mode"`             // "local" (default) or "remote"
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // Model identifier (e.g., "gemma3:latest", "gemini-2.5-flash")
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Ollama configuration (only used when mode is "local")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Gemini API key (only used when mode is "remote")
	GeminiAPIKey string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // SENSITIVE: masked in MarshalJSON

	// Conversation memory configuration
	MaxWindowTurns int `mapstructure:"max_window_turns" json:"max_window_turns"`

	// Timeouts (milliseconds); each backend and capability call carries its own.
	BackendTimeoutMs    int `mapstructure:"backend_timeout_ms" json:"backend_timeout_ms"`
	CapabilityTimeoutMs int `mapstructure:"capability_timeout_ms" json:"capability_timeout_ms"`

	// Capability configuration
	OpenWeatherAPIKey string           `mapstructure:"openweather_api_key" json:"openweather_api_key"` // SENSITIVE: masked in MarshalJSON
	SearXNG           SearXNGConfig    `mapstructure:"searxng" json:"searxng"`
	WebScraper        WebScraperConfig `mapstructure:"web_scraper" json:"web_scraper"`

	// Document extraction
	MaxFileSize int64 `mapstructure:"max_file_size" json:"max_file_size"`

	// Intent classification keywords
	Intents IntentConfig `mapstructure:"intents" json:"intents"`

	// HTTP shim
	ServeAddr string `mapstructure:"serve_addr" json:"serve_addr"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.victoruno/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".victoruno")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("agent_name", "VictorUno")

	// Backend defaults: local Ollama with a small general model.
	v.SetDefault("mode", ModeLocal)
	v.SetDefault("model_name", "gemma3:latest")
	v.SetDefault("temperature", 0.3)
	v.SetDefault("max_tokens", 512)
	v.SetDefault("ollama_host", "http://localhost:11434")

	// Conversation memory defaults
	v.SetDefault("max_window_turns", DefaultMaxWindowTurns)

	// Timeout defaults
	v.SetDefault("backend_timeout_ms", 60000)
	v.SetDefault("capability_timeout_ms", 10000)

	// SearXNG defaults
	v.SetDefault("searxng.base_url", "http://localhost:8888")
	v.SetDefault("searxng.max_results", 5)

	// WebScraper defaults
	v.SetDefault("web_scraper.parallelism", 2)
	v.SetDefault("web_scraper.delay_ms", 1000)
	v.SetDefault("web_scraper.timeout_ms", 30000)

	// Document extraction defaults
	v.SetDefault("max_file_size", DefaultMaxFileSize)

	// Intent keyword defaults. Tunable via config file; ties resolve to chat.
	v.SetDefault("intents.research", []string{
		"research", "search", "browse", "look up", "find out", "latest news", "web"})
	v.SetDefault("intents.develop", []string{
		"develop", "implement", "build", "write code", "create a", "prototype", "scaffold"})
	v.SetDefault("intents.optimize", []string{
		"optimize", "optimise", "speed up", "refactor", "improve performance", "tune", "profile"})

	// HTTP shim default
	v.SetDefault("serve_addr", "127.0.0.1:8000")
}

// bindEnvVariables binds environment variables explicitly.
// Secrets are env-only; they are never written to the config file.
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key string, envVars ...string) {
		args := append([]string{key}, envVars...)
		if err := v.BindEnv(args...); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q: %v", key, err))
		}
	}

	// Secrets
	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("openweather_api_key", "OPENWEATHERMAP_API_KEY")

	// Backend overrides
	mustBind("mode", "VICTORUNO_MODE")
	mustBind("model_name", "VICTORUNO_MODEL_NAME")
	mustBind("ollama_host", "VICTORUNO_OLLAMA_HOST", "OLLAMA_HOST")

	// Capability overrides
	mustBind("searxng.base_url", "VICTORUNO_SEARXNG_URL")

	// HTTP shim
	mustBind("serve_addr", "VICTORUNO_SERVE_ADDR")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid accidental substring matches against
// real secret material.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters for longer secrets, fully masks short
// ones to prevent substring matching.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - GeminiAPIKey
//   - OpenWeatherAPIKey
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GeminiAPIKey = maskSecret(a.GeminiAPIKey)
	a.OpenWeatherAPIKey = maskSecret(a.OpenWeatherAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "ollama/gemma3:latest" (local), "googleai/gemini-2.5-flash" (remote).
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	if c.Mode == ModeRemote {
		return "googleai/" + c.ModelName
	}
	return "ollama/" + c.ModelName
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
