package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/zen-systems/markerart/pkg/adapter"
	"github.com/zen-systems/markerart/pkg/config"
	"github.com/zen-systems/markerart/pkg/ideas"
	"github.com/zen-systems/markerart/pkg/imagegen"
	"github.com/zen-systems/markerart/pkg/provider"
)

// app holds everything built once at startup.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	envelope adapter.Envelope
	registry *provider.Registry
	ideas    adapter.Handler
	image    adapter.Handler
}

func newApp(cfg *config.Config, ideasProvider string) (*app, error) {
	log := setupLogger(cfg.Log)

	envelope, err := adapter.ParseEnvelope(cfg.Envelope)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	registry := provider.NewRegistry(httpClient, map[string]string{cfg.Ideas.Provider: cfg.Ideas.BaseURL})

	if ideasProvider == "" {
		ideasProvider = cfg.Ideas.Provider
	}
	textProvider, ok := registry.Text(ideasProvider)
	if !ok {
		return nil, fmt.Errorf("text provider %q not available", ideasProvider)
	}

	aliases := cfg.ModelAliases()
	model := aliases.Resolve(cfg.Ideas.Model)
	if err := aliases.ValidateModel(textProvider.Name(), model); err != nil {
		// An overridden provider falls back to its first model rather than
		// sending another provider's model id.
		if textProvider.Name() != cfg.Ideas.Provider {
			model = textProvider.Models()[0]
		} else {
			log.Warn("model not in provider list", slog.String("model", model), slog.String("error", err.Error()))
		}
	}

	log.Debug("configuration loaded",
		slog.String("ideas_provider", textProvider.Name()),
		slog.String("ideas_model", model),
		slog.Bool("ideas_key", cfg.HasKey(textProvider.Name())),
		slog.Bool("stability_key", cfg.HasKey("stability")),
		slog.String("envelope", string(envelope)),
		slog.Duration("timeout", cfg.Timeout),
	)

	ideasHandler := ideas.New(ideas.Options{
		Provider:    textProvider,
		APIKey:      cfg.APIKey(textProvider.Name()),
		Model:       model,
		Temperature: cfg.Ideas.Temperature,
		MaxTokens:   cfg.Ideas.MaxTokens,
		Timeout:     cfg.Timeout,
		Logger:      log,
	})

	imageHandler := imagegen.New(imagegen.Options{
		Provider: provider.NewStability(provider.WithHTTPClient(httpClient), provider.WithBaseURL(cfg.Image.Endpoint)),
		APIKey:   cfg.StabilityAPIKey,
		Settings: imagegen.Settings{
			CfgScale:     cfg.Image.CfgScale,
			Width:        cfg.Image.Width,
			Height:       cfg.Image.Height,
			Samples:      cfg.Image.Samples,
			Steps:        cfg.Image.Steps,
			StylePreset:  cfg.Image.StylePreset,
			Seed:         cfg.Image.Seed,
			PromptWeight: cfg.Image.PromptWeight,
		},
		Timeout: cfg.Timeout,
		Logger:  log,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		envelope: envelope,
		registry: registry,
		ideas:    ideasHandler,
		image:    imageHandler,
	}, nil
}

func setupLogger(conf config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(conf.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if conf.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
