package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI implements TextProvider for OpenAI chat completions.
type OpenAI struct {
	opts options
}

// NewOpenAI creates a new OpenAI provider.
func NewOpenAI(opts ...Option) *OpenAI {
	return &OpenAI{opts: applyOptions(opts)}
}

// Name returns the provider identifier.
func (p *OpenAI) Name() string {
	return "openai"
}

// DisplayName returns the human-facing provider name.
func (p *OpenAI) DisplayName() string {
	return "OpenAI"
}

// Models returns the list of supported OpenAI models.
func (p *OpenAI) Models() []string {
	return []string{
		"gpt-4o-mini",
		"gpt-4o",
		"gpt-4.1-mini",
	}
}

// Complete sends the request to OpenAI. SDK retries are disabled; one
// request is one call.
func (p *OpenAI) Complete(ctx context.Context, apiKey string, req TextRequest) (*Completion, error) {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(p.opts.httpClient),
	}
	if p.opts.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.opts.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &Completion{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}
