package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepSeekComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ds-key", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		_, _ = w.Write([]byte(`{"model":"deepseek-chat","choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}],"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}`))
	}))
	defer srv.Close()

	p := NewDeepSeek(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	completion, err := p.Complete(context.Background(), "ds-key", TextRequest{
		Model:       "deepseek-chat",
		System:      "persona",
		Prompt:      "hello",
		Temperature: 0.7,
		JSON:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, completion.Content)
	assert.Equal(t, 7, completion.Usage.TotalTokens)
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
}

func TestDeepSeekStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	p := NewDeepSeek(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := p.Complete(context.Background(), "ds-key", TextRequest{Model: "deepseek-chat", Prompt: "x"})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Contains(t, statusErr.Body, "bad key")
}

func TestDeepSeekNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewDeepSeek(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := p.Complete(context.Background(), "ds-key", TextRequest{Model: "deepseek-chat", Prompt: "x"})
	assert.ErrorContains(t, err, "no choices")
}

func TestStabilityTextToImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gen", r.URL.Path)
		_, _ = w.Write([]byte(`{"artifacts":[{"base64":"QUJD","seed":9,"finishReason":"SUCCESS"},{"base64":"REVG"}]}`))
	}))
	defer srv.Close()

	p := NewStability(WithBaseURL(srv.URL+"/gen"), WithHTTPClient(srv.Client()))
	artifacts, err := p.TextToImage(context.Background(), "key", ImagePayload{TextPrompts: []TextPrompt{{Text: "x", Weight: 1}}})
	require.NoError(t, err)

	require.Len(t, artifacts, 2)
	assert.Equal(t, "QUJD", artifacts[0].Base64)
	assert.Equal(t, int64(9), artifacts[0].Seed)
}

func TestStabilityDefaults(t *testing.T) {
	p := NewStability()
	assert.Equal(t, StabilityEndpoint, p.opts.baseURL)
	assert.Equal(t, "DreamStudio", p.DisplayName())
	assert.Same(t, http.DefaultClient, p.opts.httpClient)
}

func TestMockResponses(t *testing.T) {
	p := NewMockWithResponses(map[string]string{"known": `{"art_projects":[]}`}, "")

	c, err := p.Complete(context.Background(), "", TextRequest{Prompt: "known"})
	require.NoError(t, err)
	assert.Equal(t, `{"art_projects":[]}`, c.Content)
	assert.Equal(t, "mock-1", c.Model)

	c, err = p.Complete(context.Background(), "", TextRequest{Prompt: "other", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, SampleIdeas, c.Content)
	assert.Equal(t, "m", c.Model)
	assert.Equal(t, 2, p.Calls())

	assert.True(t, json.Valid([]byte(SampleIdeas)))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(http.DefaultClient, map[string]string{"deepseek": "http://localhost:1"})

	assert.Equal(t, []string{"anthropic", "deepseek", "google", "mock", "openai"}, r.Names())

	p, ok := r.Text("openai")
	require.True(t, ok)
	assert.Equal(t, "OpenAI", p.DisplayName())
	assert.NotEmpty(t, p.Models())

	ds, ok := r.Text("deepseek")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:1", ds.(*DeepSeek).opts.baseURL)

	_, ok = r.Text("unknown")
	assert.False(t, ok)
}

func TestAnthropicComplete(t *testing.T) {
	var got map[string]any
	var path, apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("X-Api-Key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "{\"art_projects\":"}, {"type": "text", "text": "[]}"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 5, "output_tokens": 7}
		}`))
	}))
	defer srv.Close()

	p := NewAnthropic(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	completion, err := p.Complete(context.Background(), "ant-key", TextRequest{
		Model:       "claude-sonnet-4-20250514",
		System:      "persona",
		Prompt:      "hello",
		Temperature: 0.7,
		JSON:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"art_projects":[]}`, completion.Content)
	assert.Equal(t, "claude-sonnet-4-20250514", completion.Model)
	assert.Equal(t, 12, completion.Usage.TotalTokens)

	assert.True(t, strings.HasSuffix(path, "/v1/messages"), path)
	assert.Equal(t, "ant-key", apiKey)
	assert.Equal(t, float64(defaultMaxTokens), got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)

	system := got["system"].([]any)
	require.Len(t, system, 1)
	text := system[0].(map[string]any)["text"].(string)
	assert.True(t, strings.HasPrefix(text, "persona"), text)
	assert.Contains(t, text, jsonOnly)

	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestAnthropicPlainTextKeepsSystem(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"ok"}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`))
	}))
	defer srv.Close()

	p := NewAnthropic(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	completion, err := p.Complete(context.Background(), "ant-key", TextRequest{
		Model:     "claude-3-5-haiku-latest",
		System:    "persona",
		Prompt:    "hello",
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "ok", completion.Content)
	assert.Equal(t, 256.0, got["max_tokens"])
	system := got["system"].([]any)
	assert.Equal(t, "persona", system[0].(map[string]any)["text"])
}

func TestAnthropicStatusError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := NewAnthropic(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	_, err := p.Complete(context.Background(), "ant-key", TextRequest{Model: "claude-3-5-haiku-latest", Prompt: "x"})

	assert.ErrorContains(t, err, "anthropic API error")
	assert.Equal(t, 1, calls, "no retries")
}

func TestGoogleComplete(t *testing.T) {
	var got map[string]any
	var path, apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("X-Goog-Api-Key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"art_projects\":"}, {"text": "[]}"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 3, "candidatesTokenCount": 4, "totalTokenCount": 7}
		}`))
	}))
	defer srv.Close()

	p := NewGoogle(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	completion, err := p.Complete(context.Background(), "g-key", TextRequest{
		Model:       "gemini-2.0-flash",
		System:      "persona",
		Prompt:      "hello",
		Temperature: 0.7,
		JSON:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"art_projects":[]}`, completion.Content)
	assert.Equal(t, "gemini-2.0-flash", completion.Model)
	assert.Equal(t, 7, completion.Usage.TotalTokens)

	assert.Contains(t, path, "gemini-2.0-flash")
	assert.True(t, strings.HasSuffix(path, ":generateContent"), path)
	assert.Equal(t, "g-key", apiKey)

	generation := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", generation["responseMimeType"])
	assert.InDelta(t, 0.7, generation["temperature"], 1e-6)

	instruction := got["systemInstruction"].(map[string]any)
	parts := instruction["parts"].([]any)
	assert.Equal(t, "persona", parts[0].(map[string]any)["text"])

	contents := got["contents"].([]any)
	require.Len(t, contents, 1)
	userParts := contents[0].(map[string]any)["parts"].([]any)
	assert.Equal(t, "hello", userParts[0].(map[string]any)["text"])
}

func TestGoogleNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	p := NewGoogle(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	_, err := p.Complete(context.Background(), "g-key", TextRequest{Model: "gemini-2.0-flash", Prompt: "x"})
	assert.ErrorContains(t, err, "no candidates")
}
