// Package imagegen turns a text prompt into a base64 encoded image.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zen-systems/markerart/pkg/adapter"
	"github.com/zen-systems/markerart/pkg/provider"
)

// Operation names the image adapter in logs and routes.
const Operation = "image"

const (
	msgNoPrompt = "No prompt provided"
	msgNoImage  = "No image generated in the response"
)

// PromptStrategies are tried in order to locate the prompt. Some callers send
// {"prompt": ...}, others nest it as {"data": {"prompt": ...}}.
var PromptStrategies = []adapter.Strategy{
	adapter.FieldPath("prompt"),
	adapter.FieldPath("data", "prompt"),
}

// Settings are the fixed generation parameters sent with every prompt.
type Settings struct {
	CfgScale     float64
	Width        int
	Height       int
	Samples      int
	Steps        int
	StylePreset  string
	Seed         int64
	PromptWeight float64
}

// DefaultSettings returns the parameters used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		CfgScale:     7,
		Width:        1024,
		Height:       1024,
		Samples:      1,
		Steps:        30,
		StylePreset:  "digital-art",
		Seed:         0,
		PromptWeight: 1.0,
	}
}

// BuildPayload builds the text-to-image request for prompt.
func BuildPayload(prompt string, s Settings) provider.ImagePayload {
	return provider.ImagePayload{
		TextPrompts: []provider.TextPrompt{{Text: prompt, Weight: s.PromptWeight}},
		CfgScale:    s.CfgScale,
		Height:      s.Height,
		Width:       s.Width,
		Samples:     s.Samples,
		Steps:       s.Steps,
		StylePreset: s.StylePreset,
		Seed:        s.Seed,
	}
}

// Options configures the image adapter.
type Options struct {
	Provider provider.ImageProvider
	APIKey   string
	Settings Settings
	Timeout  time.Duration
	Logger   *slog.Logger
}

// New builds the image generation adapter. The successful payload is the
// base64 string exactly as the provider returned it.
func New(opts Options) *adapter.Template[string, string] {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("module", "imagegen"), slog.String("provider", opts.Provider.Name()))

	return &adapter.Template[string, string]{
		Operation: Operation,
		Credential: adapter.Credential{
			Provider: opts.Provider.DisplayName(),
			Key:      opts.APIKey,
			Missing:  fmt.Sprintf("%s API key not configured", opts.Provider.DisplayName()),
		},
		Failure: "Error generating image",
		Timeout: opts.Timeout,
		Logger:  log,

		Extract: func(body []byte) (string, error) {
			return extractPrompt(log, body)
		},
		Invoke: func(ctx context.Context, key string, prompt string) (string, error) {
			return generate(ctx, log, opts, key, prompt)
		},
		Shape: func(image string) adapter.Response {
			return adapter.Success("image", image)
		},
	}
}

// extractPrompt never reports a parse error: an unreadable body simply has
// no prompt.
func extractPrompt(log *slog.Logger, body []byte) (string, error) {
	req, err := adapter.DecodeRequest(body)
	if err != nil {
		log.Debug("request body is not JSON", slog.String("error", err.Error()))
		return "", adapter.ValidationError(msgNoPrompt)
	}

	prompt, strategy, ok := adapter.FirstNonEmpty(req, PromptStrategies)
	if !ok {
		return "", adapter.ValidationError(msgNoPrompt)
	}
	log.Debug("prompt extracted", slog.String("path", strategy.String()), slog.Int("length", len(prompt)))
	return prompt, nil
}

func generate(ctx context.Context, log *slog.Logger, opts Options, key, prompt string) (string, error) {
	payload := BuildPayload(prompt, opts.Settings)

	artifacts, err := opts.Provider.TextToImage(ctx, key, payload)
	if err != nil {
		var statusErr *provider.StatusError
		if errors.As(err, &statusErr) {
			return "", adapter.ProviderError(statusErr.Code,
				fmt.Sprintf("API request failed with status code %d: %s", statusErr.Code, errorDetail(statusErr.Body)))
		}
		return "", err
	}

	if len(artifacts) == 0 || artifacts[0].Base64 == "" {
		return "", adapter.ProviderError(0, msgNoImage)
	}

	image := artifacts[0].Base64
	log.Info("image generated",
		slog.Int("artifacts", len(artifacts)),
		slog.Int("base64_length", len(image)),
		slog.String("finish_reason", artifacts[0].FinishReason),
	)
	return image, nil
}

// errorDetail returns the compacted JSON error body when it parses, the raw
// text otherwise.
func errorDetail(body string) string {
	trimmed := strings.TrimSpace(body)
	var buf bytes.Buffer
	if json.Valid([]byte(trimmed)) {
		if err := json.Compact(&buf, []byte(trimmed)); err == nil {
			return buf.String()
		}
	}
	return trimmed
}
