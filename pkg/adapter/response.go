package adapter

import (
	"encoding/json"
	"fmt"
)

// Envelope selects how a successful response is written back to the caller.
type Envelope string

const (
	// EnvelopeWrapped writes {"success": true, "<field>": <payload>}.
	EnvelopeWrapped Envelope = "wrapped"
	// EnvelopeBare writes the payload alone: a string payload as plain text,
	// anything else as JSON. Failures are always wrapped.
	EnvelopeBare Envelope = "bare"
)

// ParseEnvelope maps a configuration value to an Envelope.
func ParseEnvelope(s string) (Envelope, error) {
	switch Envelope(s) {
	case "", EnvelopeWrapped:
		return EnvelopeWrapped, nil
	case EnvelopeBare:
		return EnvelopeBare, nil
	default:
		return "", fmt.Errorf("unknown envelope %q", s)
	}
}

// Response is the single result of one adapter invocation.
type Response struct {
	Success bool
	Message string
	Kind    Kind
	Status  int
	Field   string
	Payload any
}

// Success builds a successful response carrying payload under field.
func Success(field string, payload any) Response {
	return Response{Success: true, Field: field, Payload: payload}
}

// Failure builds a failed response.
func Failure(kind Kind, status int, message string) Response {
	return Response{Kind: kind, Status: status, Message: message}
}

// MarshalJSON renders the wrapped envelope.
func (r Response) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": r.Success}
	if !r.Success {
		out["message"] = r.Message
		return json.Marshal(out)
	}
	if r.Field != "" {
		out[r.Field] = r.Payload
	}
	return json.Marshal(out)
}

// Render encodes the response under the given envelope convention and
// returns the content type to send with it.
func (r Response) Render(env Envelope) (string, []byte, error) {
	if env == EnvelopeBare && r.Success {
		if s, ok := r.Payload.(string); ok {
			return "text/plain; charset=utf-8", []byte(s), nil
		}
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return "", nil, err
		}
		return "application/json; charset=utf-8", data, nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", nil, err
	}
	return "application/json; charset=utf-8", data, nil
}
