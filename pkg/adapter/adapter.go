package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Handler turns one inbound body into exactly one Response.
type Handler interface {
	// Handle never returns an error; every failure is folded into the
	// Response.
	Handle(ctx context.Context, body []byte) Response

	// Name returns the operation identifier used in logs and routes.
	Name() string
}

// Credential describes the provider key an adapter needs.
type Credential struct {
	// Provider is the display name, e.g. "OpenAI".
	Provider string
	Key      string
	// Missing is the message returned when Key is empty.
	Missing string
	// Anonymous marks providers that run without a key.
	Anonymous bool
}

func (c Credential) present() bool {
	return c.Anonymous || c.Key != ""
}

// Template is the shared adapter skeleton: check the credential and extract
// the input (in the configured order), invoke the provider exactly once, then
// shape the result. In is the extracted input, Out the provider result.
type Template[In, Out any] struct {
	Operation  string
	Credential Credential
	// CredentialFirst checks the credential before extracting input.
	CredentialFirst bool
	// Failure prefixes messages of unclassified errors,
	// e.g. "Error generating image".
	Failure string
	Timeout time.Duration
	Logger  *slog.Logger

	Extract func(body []byte) (In, error)
	Invoke  func(ctx context.Context, key string, in In) (Out, error)
	Shape   func(out Out) Response
}

// Name returns the operation identifier.
func (t *Template[In, Out]) Name() string {
	return t.Operation
}

// Handle runs one invocation.
func (t *Template[In, Out]) Handle(ctx context.Context, body []byte) (resp Response) {
	log := t.logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("adapter panic", slog.Any("panic", r))
			resp = Failure(KindUnexpected, 0, fmt.Sprintf("%s: %v", t.Failure, r))
		}
		log.Debug("adapter finished",
			slog.Bool("success", resp.Success),
			slog.String("kind", resp.Kind.String()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()

	if t.CredentialFirst {
		if err := t.checkCredential(); err != nil {
			return t.fail(log, err)
		}
	}

	in, err := t.Extract(body)
	if err != nil {
		return t.fail(log, err)
	}

	if !t.CredentialFirst {
		if err := t.checkCredential(); err != nil {
			return t.fail(log, err)
		}
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	out, err := t.Invoke(ctx, t.Credential.Key, in)
	if err != nil {
		return t.fail(log, err)
	}
	return t.Shape(out)
}

func (t *Template[In, Out]) checkCredential() error {
	if t.Credential.present() {
		return nil
	}
	msg := t.Credential.Missing
	if msg == "" {
		msg = fmt.Sprintf("%s API key not configured", t.Credential.Provider)
	}
	return ConfigurationError(msg)
}

func (t *Template[In, Out]) fail(log *slog.Logger, err error) Response {
	var adapterErr *Error
	if errors.As(err, &adapterErr) && adapterErr.Kind != KindUnexpected {
		log.Warn("adapter failed",
			slog.String("kind", adapterErr.Kind.String()),
			slog.Int("status", adapterErr.Status),
			slog.String("error", adapterErr.Error()),
		)
		return Failure(adapterErr.Kind, adapterErr.Status, adapterErr.Message)
	}
	log.Error("adapter failed", slog.String("error", err.Error()))
	return Failure(KindUnexpected, 0, fmt.Sprintf("%s: %v", t.Failure, err))
}

func (t *Template[In, Out]) logger() *slog.Logger {
	log := t.Logger
	if log == nil {
		log = slog.Default()
	}
	return log.With(slog.String("operation", t.Operation))
}
