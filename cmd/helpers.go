package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/config"
	"github.com/gnemet/lookin/internal/logging"
	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/render"
	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/visual"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `lookin init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger returns the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(level)
}

// newDispatcher builds the shared fetcher and render dispatcher.
func newDispatcher(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (resource.Fetcher, *render.Dispatcher, error) {
	fetcher := resource.New(cfg.ContentDir)
	renderer, err := visual.New(cfg.Renderer, cfg.MMDCPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating renderer: %w", err)
	}
	d := render.NewDispatcher(fetcher, renderer, render.Options{
		Logger:  logging.Component(log, "render"),
		Metrics: m,
	})
	return fetcher, d, nil
}
