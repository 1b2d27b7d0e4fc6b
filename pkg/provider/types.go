package provider

import (
	"context"
	"fmt"
	"net/http"
)

// TextProvider generates text from a system and user prompt. The API key is
// supplied per call so a missing key never prevents construction.
type TextProvider interface {
	// Complete sends one request and returns the generated content.
	Complete(ctx context.Context, apiKey string, req TextRequest) (*Completion, error)

	// Name returns the provider identifier used in configuration.
	Name() string

	// DisplayName returns the human-facing provider name.
	DisplayName() string

	// Models returns the list of supported models.
	Models() []string
}

// TextRequest is a provider-neutral chat request.
type TextRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	// JSON asks the provider for a JSON object response.
	JSON      bool
	MaxTokens int
}

// Completion is the provider-neutral result of a TextRequest.
type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StatusError is returned when a provider answers with a non-success HTTP
// status. Body holds the raw response text.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Code, e.Body)
}

// Option configures a provider.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the provider at a different endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = http.DefaultClient
	}
	return o
}

const defaultMaxTokens = 4096
