package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Google implements TextProvider for Gemini models.
type Google struct {
	opts options
}

// NewGoogle creates a new Google Gemini provider.
func NewGoogle(opts ...Option) *Google {
	return &Google{opts: applyOptions(opts)}
}

// Name returns the provider identifier.
func (p *Google) Name() string {
	return "google"
}

// DisplayName returns the human-facing provider name.
func (p *Google) DisplayName() string {
	return "Google"
}

// Models returns the list of supported Gemini models.
func (p *Google) Models() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-2.5-pro",
	}
}

// Complete sends the request to Gemini.
func (p *Google) Complete(ctx context.Context, apiKey string, req TextRequest) (*Completion, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  p.opts.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: p.opts.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("google API error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("google returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	completion := &Completion{Content: content, Model: req.Model}
	if resp.UsageMetadata != nil {
		completion.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
}
