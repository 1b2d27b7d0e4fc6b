package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// jsonOnly is appended to the system prompt for providers without a JSON
// response mode.
const jsonOnly = "Respond with a single JSON value and no other text."

// Anthropic implements TextProvider for Claude models.
type Anthropic struct {
	opts options
}

// NewAnthropic creates a new Anthropic provider.
func NewAnthropic(opts ...Option) *Anthropic {
	return &Anthropic{opts: applyOptions(opts)}
}

// Name returns the provider identifier.
func (p *Anthropic) Name() string {
	return "anthropic"
}

// DisplayName returns the human-facing provider name.
func (p *Anthropic) DisplayName() string {
	return "Anthropic"
}

// Models returns the list of supported Claude models.
func (p *Anthropic) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-3-5-haiku-latest",
	}
}

// Complete sends the request to Claude.
func (p *Anthropic) Complete(ctx context.Context, apiKey string, req TextRequest) (*Completion, error) {
	clientOpts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
		anthropicoption.WithHTTPClient(p.opts.httpClient),
	}
	if p.opts.baseURL != "" {
		clientOpts = append(clientOpts, anthropicoption.WithBaseURL(p.opts.baseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n" + jsonOnly)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return &Completion{
		Content: content.String(),
		Model:   string(resp.Model),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}
