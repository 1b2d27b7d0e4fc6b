// Package ideas turns a set of marker colors into art project suggestions
// generated by a text provider.
package ideas

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zen-systems/markerart/pkg/adapter"
	"github.com/zen-systems/markerart/pkg/provider"
)

// Operation names the idea adapter in logs and routes.
const Operation = "ideas"

// DefaultTemperature keeps the suggestions varied but on topic.
const DefaultTemperature = 0.7

// Request is the extracted input of one invocation.
type Request struct {
	Colors []string
	// Defaulted is set when DefaultColors replaced an empty list.
	Defaulted bool
}

// Options configures the idea adapter.
type Options struct {
	Provider    provider.TextProvider
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// New builds the idea generation adapter.
func New(opts Options) *adapter.Template[Request, []ArtIdea] {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("module", "ideas"), slog.String("provider", opts.Provider.Name()))

	return &adapter.Template[Request, []ArtIdea]{
		Operation: Operation,
		Credential: adapter.Credential{
			Provider:  opts.Provider.DisplayName(),
			Key:       opts.APIKey,
			Missing:   fmt.Sprintf("%s API key not found in environment variables", opts.Provider.DisplayName()),
			Anonymous: opts.Provider.Name() == "mock",
		},
		CredentialFirst: true,
		Failure:         "Error generating art ideas",
		Timeout:         opts.Timeout,
		Logger:          log,

		Extract: func(body []byte) (Request, error) {
			return extract(body)
		},
		Invoke: func(ctx context.Context, key string, in Request) ([]ArtIdea, error) {
			return generate(ctx, log, opts, key, in)
		},
		Shape: func(list []ArtIdea) adapter.Response {
			if list == nil {
				list = []ArtIdea{}
			}
			return adapter.Success("art_projects", list)
		},
	}
}

func extract(body []byte) (Request, error) {
	req, err := adapter.DecodeRequest(body)
	if err != nil {
		return Request{}, adapter.ParseError(err)
	}

	names, err := req.Strings("colorNames")
	if err != nil {
		return Request{}, adapter.ParseError(err)
	}

	colors, defaulted := resolveColors(names)
	return Request{Colors: colors, Defaulted: defaulted}, nil
}

func generate(ctx context.Context, log *slog.Logger, opts Options, key string, in Request) ([]ArtIdea, error) {
	if in.Defaulted {
		log.Debug("no colors provided, using defaults", slog.Any("colors", in.Colors))
	} else {
		log.Debug("colors received", slog.Any("colors", in.Colors))
	}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	completion, err := opts.Provider.Complete(ctx, key, provider.TextRequest{
		Model:       opts.Model,
		System:      SystemPrompt,
		Prompt:      BuildInstruction(in.Colors),
		Temperature: temperature,
		JSON:        true,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("provider response",
		slog.String("model", completion.Model),
		slog.Int("total_tokens", completion.Usage.TotalTokens),
		slog.Int("content_bytes", len(completion.Content)),
	)

	list, err := ParseIdeas(completion.Content)
	if err != nil {
		return nil, err
	}
	for _, idea := range list {
		if !idea.Difficulty.Valid() {
			log.Warn("unknown difficulty rating", slog.String("title", idea.Title), slog.String("difficulty", string(idea.Difficulty)))
		}
	}
	log.Info("art ideas generated",
		slog.Int("count", len(list)),
		slog.Any("colors", in.Colors),
		slog.Bool("default_colors", in.Defaulted),
	)
	return list, nil
}
