package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zen-systems/markerart/pkg/adapter"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubHandler returns a fixed response and records the body it was given.
type stubHandler struct {
	name string
	resp adapter.Response
	got  []byte
}

func (h *stubHandler) Name() string { return h.name }

func (h *stubHandler) Handle(_ context.Context, body []byte) adapter.Response {
	h.got = body
	return h.resp
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		resp adapter.Response
		want int
	}{
		{"success", adapter.Success("image", "QUJD"), http.StatusOK},
		{"validation", adapter.Failure(adapter.KindValidation, 0, "No prompt provided"), http.StatusBadRequest},
		{"parse", adapter.Failure(adapter.KindParse, 0, "Error parsing JSON request: x"), http.StatusBadRequest},
		{"configuration", adapter.Failure(adapter.KindConfiguration, 0, "key missing"), http.StatusInternalServerError},
		{"provider", adapter.Failure(adapter.KindProvider, 500, "API request failed"), http.StatusBadGateway},
		{"unexpected", adapter.Failure(adapter.KindUnexpected, 0, "Error generating image: boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.resp))

			h := &stubHandler{name: "image", resp: tt.resp}
			s := New(quietLogger(), adapter.EnvelopeWrapped, h)
			rec := do(t, s.Handler(), http.MethodPost, "/v1/image", `{"prompt":"x"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBodyReachesHandler(t *testing.T) {
	h := &stubHandler{name: "ideas", resp: adapter.Success("art_projects", []string{})}
	s := New(quietLogger(), adapter.EnvelopeWrapped, h)

	rec := do(t, s.Handler(), http.MethodPost, "/v1/ideas", `{"colorNames":["red"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"colorNames":["red"]}`, string(h.got))
	assert.JSONEq(t, `{"success":true,"art_projects":[]}`, rec.Body.String())
}

func TestBodyTooLarge(t *testing.T) {
	h := &stubHandler{name: "image", resp: adapter.Success("image", "QUJD")}
	s := New(quietLogger(), adapter.EnvelopeWrapped, h)

	body := `{"prompt":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := do(t, s.Handler(), http.MethodPost, "/v1/image", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Request body too large (limit 1048576 bytes)"}`, rec.Body.String())
	assert.Nil(t, h.got, "handler must not run")
}

func TestBodyAtLimit(t *testing.T) {
	h := &stubHandler{name: "image", resp: adapter.Success("image", "QUJD")}
	s := New(quietLogger(), adapter.EnvelopeWrapped, h)

	rec := do(t, s.Handler(), http.MethodPost, "/v1/image", strings.Repeat(" ", maxBodyBytes))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.got, maxBodyBytes)
}

func TestEnvelopes(t *testing.T) {
	h := &stubHandler{name: "image", resp: adapter.Success("image", "QUJD")}

	wrapped := New(quietLogger(), adapter.EnvelopeWrapped, h)
	rec := do(t, wrapped.Handler(), http.MethodPost, "/v1/image", `{}`)
	assert.JSONEq(t, `{"success":true,"image":"QUJD"}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	bare := New(quietLogger(), adapter.EnvelopeBare, h)
	rec = do(t, bare.Handler(), http.MethodPost, "/v1/image", `{}`)
	assert.Equal(t, "QUJD", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestBareFailureIsWrapped(t *testing.T) {
	h := &stubHandler{name: "image", resp: adapter.Failure(adapter.KindValidation, 0, "No prompt provided")}
	s := New(quietLogger(), adapter.EnvelopeBare, h)

	rec := do(t, s.Handler(), http.MethodPost, "/v1/image", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"No prompt provided"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	s := New(quietLogger(), adapter.EnvelopeWrapped)

	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestHealthz(t *testing.T) {
	s := New(quietLogger(), adapter.EnvelopeWrapped)

	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	s := New(quietLogger(), adapter.EnvelopeWrapped, &stubHandler{name: "image"})

	rec := do(t, s.Handler(), http.MethodPost, "/v1/video", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/v1/image", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(quietLogger(), adapter.EnvelopeWrapped)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	require.NoError(t, <-done)
}
