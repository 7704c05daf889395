// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package source opens listing sources (playlists and similar channel lists)
// from the network or the local filesystem.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

var (
	// ErrUnsupportedURL is returned for empty, malformed or unsupported-scheme source URLs.
	ErrUnsupportedURL = errors.New("source: unsupported or malformed url")
	// ErrUnavailable is returned when the listing source cannot be reached or read.
	ErrUnavailable = errors.New("source: listing source unavailable")
)

// Opener yields a readable stream for a listing source URL.
// Callers must close the returned reader.
type Opener interface {
	Open(ctx context.Context, rawURL string) (io.ReadCloser, error)
}

// OpenerFunc adapts a plain function to the Opener interface.
type OpenerFunc func(ctx context.Context, rawURL string) (io.ReadCloser, error)

// Open calls f(ctx, rawURL).
func (f OpenerFunc) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return f(ctx, rawURL)
}

// Kind classifies a source URL by the transport that serves it.
type Kind int

const (
	KindUnsupported Kind = iota
	KindHTTP
	KindFile
)

// Classify reports which transport serves rawURL. Bare paths (including
// Windows drive paths) and file:// URLs are files.
func Classify(rawURL string) (Kind, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return KindUnsupported, fmt.Errorf("%w: empty url", ErrUnsupportedURL)
	}
	if !strings.Contains(trimmed, "://") {
		return KindFile, nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return KindUnsupported, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return KindUnsupported, fmt.Errorf("%w: missing host", ErrUnsupportedURL)
		}
		return KindHTTP, nil
	case "file":
		return KindFile, nil
	default:
		return KindUnsupported, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
}

// Router dispatches Open calls to the HTTP or file transport by URL scheme.
type Router struct {
	HTTP Opener
	File Opener
}

// NewRouter returns a Router using the given transports.
func NewRouter(httpOpener, fileOpener Opener) *Router {
	return &Router{HTTP: httpOpener, File: fileOpener}
}

// Open implements Opener.
func (r *Router) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	kind, err := Classify(rawURL)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindHTTP:
		if r.HTTP == nil {
			return nil, fmt.Errorf("%w: http transport not configured", ErrUnsupportedURL)
		}
		return r.HTTP.Open(ctx, strings.TrimSpace(rawURL))
	default:
		if r.File == nil {
			return nil, fmt.Errorf("%w: file transport not configured", ErrUnsupportedURL)
		}
		return r.File.Open(ctx, strings.TrimSpace(rawURL))
	}
}
