package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeek implements TextProvider for DeepSeek models.
// DeepSeek uses an OpenAI-compatible API format.
type DeepSeek struct {
	opts options
}

// deepseekRequest represents the OpenAI-compatible request format.
type deepseekRequest struct {
	Model          string                  `json:"model"`
	Messages       []deepseekMessage       `json:"messages"`
	MaxTokens      int                     `json:"max_tokens,omitempty"`
	Temperature    float64                 `json:"temperature"`
	ResponseFormat *deepseekResponseFormat `json:"response_format,omitempty"`
}

type deepseekResponseFormat struct {
	Type string `json:"type"`
}

// deepseekMessage represents a chat message.
type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// deepseekResponse represents the OpenAI-compatible response format.
type deepseekResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewDeepSeek creates a new DeepSeek provider.
func NewDeepSeek(opts ...Option) *DeepSeek {
	o := applyOptions(opts)
	if o.baseURL == "" {
		o.baseURL = deepseekBaseURL
	}
	return &DeepSeek{opts: o}
}

// Name returns the provider identifier.
func (p *DeepSeek) Name() string {
	return "deepseek"
}

// DisplayName returns the human-facing provider name.
func (p *DeepSeek) DisplayName() string {
	return "DeepSeek"
}

// Models returns the list of supported DeepSeek models.
func (p *DeepSeek) Models() []string {
	return []string{
		"deepseek-chat",
		"deepseek-reasoner",
	}
}

// Complete sends the request to DeepSeek.
func (p *DeepSeek) Complete(ctx context.Context, apiKey string, req TextRequest) (*Completion, error) {
	reqBody := deepseekRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		reqBody.Messages = append(reqBody.Messages, deepseekMessage{Role: "system", Content: req.System})
	}
	reqBody.Messages = append(reqBody.Messages, deepseekMessage{Role: "user", Content: req.Prompt})
	if req.JSON {
		reqBody.ResponseFormat = &deepseekResponseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.opts.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepseek API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Provider: p.Name(), Code: resp.StatusCode, Body: string(body)}
	}

	var deepseekResp deepseekResponse
	if err := json.Unmarshal(body, &deepseekResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if deepseekResp.Error != nil {
		return nil, fmt.Errorf("deepseek API error: %s (type: %s, code: %s)",
			deepseekResp.Error.Message, deepseekResp.Error.Type, deepseekResp.Error.Code)
	}

	if len(deepseekResp.Choices) == 0 {
		return nil, fmt.Errorf("deepseek returned no choices")
	}

	return &Completion{
		Content: deepseekResp.Choices[0].Message.Content,
		Model:   deepseekResp.Model,
		Usage:   deepseekResp.Usage,
	}, nil
}
