package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/victoruno/victoruno/internal/log"
)

// openWeatherBaseURL is the default OpenWeatherMap current-weather endpoint.
const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Report is a normalized weather lookup result.
type Report struct {
	Location   string  `json:"location"`
	TempC      float64 `json:"temp_c"`
	Conditions string  `json:"conditions"`
	Source     string  `json:"source"`
}

// WeatherConfig holds the weather adapter configuration.
type WeatherConfig struct {
	APIKey  string        // empty key marks the capability unavailable
	BaseURL string        // override for tests; default openWeatherBaseURL
	Timeout time.Duration // per-call timeout
}

// Weather looks up current conditions via the OpenWeatherMap API.
type Weather struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  log.Logger
}

// NewWeather creates the weather adapter. A missing API key is not an error
// at construction: it makes the adapter report unavailable.
func NewWeather(cfg WeatherConfig, logger log.Logger) *Weather {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openWeatherBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Weather{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Name implements Capability.
func (w *Weather) Name() string { return WeatherName }

// Available reports whether an API key is configured. No network call.
func (w *Weather) Available() bool { return w.apiKey != "" }

// openWeatherResponse mirrors the subset of the OpenWeatherMap payload we use.
type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches current conditions for a location.
func (w *Weather) Current(ctx context.Context, location string) (*Report, error) {
	if !w.Available() {
		return nil, &Error{Capability: WeatherName, Kind: KindUnavailable,
			Err: errors.New("no API key configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", location)
	q.Set("units", "metric")
	q.Set("appid", w.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Capability: WeatherName, Kind: KindNetwork, Err: err}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = KindTimeout
		}
		w.logger.Warn("weather lookup failed", "location", location, "error", err)
		return nil, &Error{Capability: WeatherName, Kind: kind, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &Error{Capability: WeatherName, Kind: KindEmpty,
			Err: fmt.Errorf("unknown location %q", location)}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &Error{Capability: WeatherName, Kind: KindUnavailable,
			Err: errors.New("API key rejected")}
	case resp.StatusCode != http.StatusOK:
		return nil, &Error{Capability: WeatherName, Kind: KindNetwork,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Capability: WeatherName, Kind: KindCorrupt,
			Err: fmt.Errorf("decoding response: %w", err)}
	}

	conditions := ""
	if len(payload.Weather) > 0 {
		conditions = payload.Weather[0].Description
	}
	name := payload.Name
	if name == "" {
		name = location
	}

	report := &Report{
		Location:   name,
		TempC:      payload.Main.Temp,
		Conditions: conditions,
		Source:     "openweathermap",
	}
	w.logger.Debug("weather lookup succeeded",
		"location", report.Location, "temp_c", report.TempC)
	return report, nil
}
