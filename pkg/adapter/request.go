package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Request is a decoded inbound body. Hosts differ in whether they hand the
// body over as an object or as a JSON string holding the object, so
// DecodeRequest accepts both.
type Request struct {
	fields map[string]json.RawMessage
}

// DecodeRequest parses an inbound body. An empty body decodes to an empty
// request.
func DecodeRequest(body []byte) (*Request, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &Request{fields: map[string]json.RawMessage{}}, nil
	}

	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, err
		}
		body = bytes.TrimSpace([]byte(inner))
		if len(body) == 0 {
			return &Request{fields: map[string]json.RawMessage{}}, nil
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return &Request{fields: fields}, nil
}

// Lookup walks path through nested objects and returns the raw value found
// at its end.
func (r *Request) Lookup(path ...string) (json.RawMessage, bool) {
	if r == nil || len(path) == 0 {
		return nil, false
	}
	fields := r.fields
	for i, key := range path {
		raw, ok := fields[key]
		if !ok || isNull(raw) {
			return nil, false
		}
		if i == len(path)-1 {
			return raw, true
		}
		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil {
			return nil, false
		}
		fields = next
	}
	return nil, false
}

// String returns the string at path. Non-string values are reported as
// absent.
func (r *Request) String(path ...string) (string, bool) {
	raw, ok := r.Lookup(path...)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Strings returns the string list at path. A missing field yields nil
// without error.
func (r *Request) Strings(path ...string) ([]string, error) {
	raw, ok := r.Lookup(path...)
	if !ok {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("field %q: %w", strings.Join(path, "."), err)
	}
	return values, nil
}

// Strategy locates a string value inside a request.
type Strategy interface {
	Extract(r *Request) (string, bool)
	String() string
}

type fieldPath []string

// FieldPath returns a Strategy reading the string at the given nested path.
func FieldPath(path ...string) Strategy {
	return fieldPath(path)
}

func (p fieldPath) Extract(r *Request) (string, bool) {
	return r.String(p...)
}

func (p fieldPath) String() string {
	return strings.Join(p, ".")
}

// FirstNonEmpty tries strategies in order and returns the first non-blank
// value along with the strategy that produced it.
func FirstNonEmpty(r *Request, strategies []Strategy) (string, Strategy, bool) {
	for _, s := range strategies {
		v, ok := s.Extract(r)
		if ok && strings.TrimSpace(v) != "" {
			return v, s, true
		}
	}
	return "", nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
