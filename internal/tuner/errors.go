// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tuner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/source"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrConfiguration = errors.New("tuner: malformed or unsupported configuration")
	ErrTransport     = errors.New("tuner: listing source unreachable or unreadable")
	ErrValidation    = errors.New("tuner: connectivity check failed")
)

// Error wraps one of the sentinel kinds with the operation context.
type Error struct {
	Kind error
	Op   string
	Type string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Type, e.Op)
	if e.URL != "" {
		msg = fmt.Sprintf("%s %s", msg, log.RedactURL(e.URL))
	}
	msg = fmt.Sprintf("%s: %v", msg, e.Kind)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsCanceled reports whether err stems from context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// classify attaches a kind to a backend error. Cancellation and errors that
// already carry a kind pass through with op context only.
func classify(op string, info HostConfig, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	if IsCanceled(err) {
		return fmt.Errorf("%s %s: %w", info.Type, op, err)
	}
	kind := ErrTransport
	if errors.Is(err, source.ErrUnsupportedURL) {
		kind = ErrConfiguration
	}
	return &Error{Kind: kind, Op: op, Type: info.Type, URL: info.URL, Err: err}
}
