// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/tunerd/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP listing source transport.
type HTTPOptions struct {
	Timeout        time.Duration
	UserAgent      string
	RateLimit      rate.Limit // requests per second across all sources
	RateLimitBurst int
	Client         *http.Client // optional; overrides Timeout and transport
}

const (
	defaultTimeout        = 30 * time.Second
	defaultRateLimit      = 5
	defaultRateLimitBurst = 10
	defaultUserAgent      = "tunerd"
)

func normalizeHTTPOptions(opts HTTPOptions) HTTPOptions {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	return opts
}

// HTTPOpener fetches listing sources over HTTP(S). It performs exactly one
// request per Open; retry policy belongs to the caller.
type HTTPOpener struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPOpener creates an HTTPOpener with normalised options.
func NewHTTPOpener(opts HTTPOptions) *HTTPOpener {
	nopts := normalizeHTTPOptions(opts)
	client := nopts.Client
	if client == nil {
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: nopts.Timeout,
		}
		client = &http.Client{
			Timeout:   nopts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		}
	}
	return &HTTPOpener{
		client:    client,
		limiter:   rate.NewLimiter(nopts.RateLimit, nopts.RateLimitBurst),
		userAgent: nopts.UserAgent,
	}
}

// Open implements Opener. The returned body is bound to ctx: cancelling ctx
// aborts an in-flight read.
func (o *HTTPOpener) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	ctx, span := telemetry.Tracer("tunerd.source").Start(ctx, "source.http.open",
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("http.method", http.MethodGet))

	body, err := o.open(ctx, rawURL)
	telemetry.EndSpan(span, err)
	return body, err
}

func (o *HTTPOpener) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	return resp.Body, nil
}
