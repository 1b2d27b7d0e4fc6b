package adapter

import (
	"errors"
	"fmt"
)

// Kind classifies an adapter failure.
type Kind int

const (
	// KindUnexpected covers network failures, timeouts and anything else
	// without a more specific classification.
	KindUnexpected Kind = iota
	// KindConfiguration means a provider credential is missing.
	KindConfiguration
	// KindValidation means a required input field is missing or empty.
	KindValidation
	// KindParse means the inbound body is not valid JSON.
	KindParse
	// KindProvider means the provider answered with a non-success status
	// or a malformed or empty result.
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindProvider:
		return "provider"
	default:
		return "unexpected"
	}
}

// Error is a classified adapter failure. Message is user-presentable and is
// returned verbatim for every kind except KindUnexpected.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindParse})
// reports whether err is a parse failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && t.Message == "" && t.Err == nil
}

// ConfigurationError reports a missing credential.
func ConfigurationError(message string) error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// ValidationError reports a missing or empty input field.
func ValidationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// ParseError reports a malformed inbound body.
func ParseError(err error) error {
	return &Error{
		Kind:    KindParse,
		Message: fmt.Sprintf("Error parsing JSON request: %v", err),
		Err:     err,
	}
}

// ProviderError reports a provider-side failure. status is the HTTP status
// the provider answered with, or 0 when the body itself was unusable.
func ProviderError(status int, message string) error {
	return &Error{Kind: KindProvider, Status: status, Message: message}
}

// KindOf returns the classification of err. Unclassified errors are
// KindUnexpected.
func KindOf(err error) Kind {
	var adapterErr *Error
	if errors.As(err, &adapterErr) {
		return adapterErr.Kind
	}
	return KindUnexpected
}
