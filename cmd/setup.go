package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/victoruno/victoruno/internal/backend"
	"github.com/victoruno/victoruno/internal/capability"
	"github.com/victoruno/victoruno/internal/config"
	"github.com/victoruno/victoruno/internal/log"
	"github.com/victoruno/victoruno/internal/router"
	"github.com/victoruno/victoruno/internal/session"
)

// buildRouter loads configuration and assembles the assistant core:
// backend selector, capability registry, session store, router.
func buildRouter(ctx context.Context, logger log.Logger) (*router.Router, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	selector, err := backend.New(ctx, backend.Config{
		Mode:        backend.Mode(cfg.Mode),
		Model:       cfg.ModelName,
		OllamaHost:  cfg.OllamaHost,
		APIKey:      cfg.GeminiAPIKey,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.BackendTimeoutMs) * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating backend selector: %w", err)
	}

	capTimeout := time.Duration(cfg.CapabilityTimeoutMs) * time.Millisecond

	weather := capability.NewWeather(capability.WeatherConfig{
		APIKey:  cfg.OpenWeatherAPIKey,
		Timeout: capTimeout,
	}, logger)

	search := capability.NewSearch(capability.SearchConfig{
		BaseURL:          cfg.SearXNG.BaseURL,
		MaxResults:       cfg.SearXNG.MaxResults,
		Timeout:          capTimeout,
		FetchParallelism: cfg.WebScraper.Parallelism,
		FetchDelay:       time.Duration(cfg.WebScraper.DelayMs) * time.Millisecond,
		FetchTimeout:     time.Duration(cfg.WebScraper.TimeoutMs) * time.Millisecond,
	}, logger)

	extractor := capability.NewExtractor(capability.ExtractorConfig{
		MaxFileSize: cfg.MaxFileSize,
	}, logger)

	caps := capability.NewRegistry(weather, search, extractor)
	logger.Info("capabilities registered",
		"registered", caps.Names(), "available", caps.Available())

	rt := router.New(router.Config{
		AgentName:      cfg.AgentName,
		MaxWindowTurns: cfg.MaxWindowTurns,
		Keywords: router.Keywords{
			Research: cfg.Intents.Research,
			Develop:  cfg.Intents.Develop,
			Optimize: cfg.Intents.Optimize,
		},
	}, session.NewStore(), selector, caps, logger)

	return rt, cfg, nil
}
