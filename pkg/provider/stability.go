package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StabilityEndpoint is the SDXL text-to-image endpoint.
const StabilityEndpoint = "https://api.stability.ai/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"

// TextPrompt is one weighted prompt of an ImagePayload.
type TextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// ImagePayload is the text-to-image request body.
type ImagePayload struct {
	TextPrompts []TextPrompt `json:"text_prompts"`
	CfgScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
	StylePreset string       `json:"style_preset,omitempty"`
	// Seed 0 lets the provider pick a random seed.
	Seed int64 `json:"seed"`
}

// Artifact is one generated image.
type Artifact struct {
	Base64       string `json:"base64"`
	Seed         int64  `json:"seed"`
	FinishReason string `json:"finishReason"`
}

type stabilityResponse struct {
	Artifacts []Artifact `json:"artifacts"`
}

// ImageProvider generates images from an ImagePayload.
type ImageProvider interface {
	TextToImage(ctx context.Context, apiKey string, payload ImagePayload) ([]Artifact, error)
	Name() string
	DisplayName() string
}

// Stability implements ImageProvider for the Stability (DreamStudio)
// REST API.
type Stability struct {
	opts options
}

// NewStability creates a Stability provider. WithBaseURL overrides the full
// text-to-image endpoint.
func NewStability(opts ...Option) *Stability {
	o := applyOptions(opts)
	if o.baseURL == "" {
		o.baseURL = StabilityEndpoint
	}
	return &Stability{opts: o}
}

// Name returns the provider identifier.
func (p *Stability) Name() string {
	return "stability"
}

// DisplayName returns the human-facing provider name.
func (p *Stability) DisplayName() string {
	return "DreamStudio"
}

// TextToImage posts payload and returns the artifacts of a successful
// response. A non-2xx answer is reported as *StatusError.
func (p *Stability) TextToImage(ctx context.Context, apiKey string, payload ImagePayload) ([]Artifact, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.opts.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stability API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: p.Name(), Code: resp.StatusCode, Body: string(body)}
	}

	var parsed stabilityResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return parsed.Artifacts, nil
}
