// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tuner

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/tunerd/internal/cache"
	"github.com/ManuGH/tunerd/internal/hashutil"
	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/metrics"
	"github.com/ManuGH/tunerd/internal/telemetry"
)

// Backend is implemented once per listing source format.
type Backend interface {
	// Type is the registry tag, e.g. "m3u".
	Type() string
	// Name is the human readable tuner name used in status records.
	Name() string
	// OwnsChannel reports whether channelID carries this backend's type prefix.
	OwnsChannel(channelID string) bool
	// Channels reads and parses the listing source of info.
	Channels(ctx context.Context, info HostConfig) ([]Channel, error)
	// Validate opens the listing source and discards it.
	Validate(ctx context.Context, info HostConfig) error
	// MediaSource resolves channelID against info with a fresh discovery.
	// found is false when the id is not owned by this source.
	MediaSource(ctx context.Context, info HostConfig, channelID, streamID string) (ms MediaSource, found bool, err error)
}

// HostOptions configures a Host.
type HostOptions struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *zerolog.Logger
}

// Host wraps a Backend with discovery caching, validation and status reporting.
type Host struct {
	backend Backend
	cache   cache.Cache
	ttl     time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewHost decorates backend. A nil cache disables discovery caching.
func NewHost(backend Backend, opts HostOptions) *Host {
	c := opts.Cache
	if c == nil {
		c = cache.NewNoOpCache()
	}
	logger := log.WithComponent("tuner").With().Str(log.FieldTunerType, backend.Type()).Logger()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str(log.FieldTunerType, backend.Type()).Logger()
	}
	return &Host{
		backend: backend,
		cache:   c,
		ttl:     opts.CacheTTL,
		logger:  logger,
		tracer:  telemetry.Tracer("tunerd/tuner"),
	}
}

// Type returns the wrapped backend's type tag.
func (h *Host) Type() string { return h.backend.Type() }

// Name returns the wrapped backend's display name.
func (h *Host) Name() string { return h.backend.Name() }

// Backend returns the wrapped backend.
func (h *Host) Backend() Backend { return h.backend }

// matching returns the enabled hosts of this backend's type in config order.
func (h *Host) matching(hosts []HostConfig) []HostConfig {
	var out []HostConfig
	for _, info := range hosts {
		if info.Enabled && strings.EqualFold(info.Type, h.backend.Type()) {
			out = append(out, info)
		}
	}
	return out
}

// CacheKey is the discovery cache key for one source of a backend type.
func CacheKey(tunerType, url string) string {
	return "lineup:" + strings.ToLower(tunerType) + ":" + hashutil.MD5Hex(url)
}

// Discover returns the lineup of every enabled host of this type. Sources are
// read concurrently but results keep configuration order, each in playlist order.
func (h *Host) Discover(ctx context.Context, hosts []HostConfig, useCache bool) ([]Channel, error) {
	matched := h.matching(hosts)
	if len(matched) == 0 {
		return nil, nil
	}

	results := make([][]Channel, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	for i, info := range matched {
		g.Go(func() error {
			channels, err := h.channels(gctx, info, useCache)
			if err != nil {
				return err
			}
			results[i] = channels
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	out := make([]Channel, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (h *Host) channels(ctx context.Context, info HostConfig, useCache bool) (_ []Channel, err error) {
	sourceID := hashutil.MD5Hex(info.URL)
	ctx, span := h.tracer.Start(ctx, "tuner.discover",
		trace.WithAttributes(telemetry.TunerAttributes(h.backend.Type(), sourceID)...),
		trace.WithAttributes(attribute.Bool(telemetry.TunerCachedKey, useCache)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	logger := h.logger.With().Str(log.FieldSourceID, sourceID).Logger()
	key := CacheKey(h.backend.Type(), info.URL)

	if useCache {
		if data, ok := h.cache.Get(ctx, key); ok {
			var cached []Channel
			jsonErr := json.Unmarshal(data, &cached)
			if jsonErr == nil {
				metrics.RecordCacheLookup(h.backend.Type(), true)
				span.SetAttributes(attribute.Int(telemetry.TunerChannelsKey, len(cached)))
				return cached, nil
			}
			logger.Warn().Err(jsonErr).Str(log.FieldEvent, "tuner.cache.decode_failed").Msg("discarding unreadable lineup snapshot")
			h.cache.Delete(ctx, key)
		}
		metrics.RecordCacheLookup(h.backend.Type(), false)
	}

	start := time.Now()
	channels, err := h.backend.Channels(ctx, info)
	elapsed := time.Since(start)
	metrics.RecordDiscovery(h.backend.Type(), sourceID, len(channels), elapsed, err)
	if err != nil {
		logger.Warn().Err(err).
			Str(log.FieldEvent, "tuner.discover.failed").
			Str(log.FieldSourceURL, log.RedactURL(info.URL)).
			Msg("channel discovery failed")
		return nil, classify("discover", info, err)
	}

	logger.Debug().
		Str(log.FieldEvent, "tuner.discover.done").
		Int(log.FieldChannels, len(channels)).
		Int64(log.FieldDuration, elapsed.Milliseconds()).
		Msg("channel discovery finished")
	span.SetAttributes(attribute.Int(telemetry.TunerChannelsKey, len(channels)))

	if data, jsonErr := json.Marshal(channels); jsonErr == nil {
		h.cache.Set(ctx, key, data, h.ttl)
	}
	return channels, nil
}

// Validate runs the backend connectivity check against info.
func (h *Host) Validate(ctx context.Context, info HostConfig) error {
	err := h.backend.Validate(ctx, info)
	metrics.RecordValidation(h.backend.Type(), err)
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return classify("validate", info, err)
	}
	h.logger.Warn().Err(err).
		Str(log.FieldEvent, "tuner.validate.failed").
		Str(log.FieldSourceURL, log.RedactURL(info.URL)).
		Msg("listing source validation failed")
	return &Error{Kind: ErrValidation, Op: "validate", Type: info.Type, URL: info.URL, Err: classify("open", info, err)}
}

// Resolve finds channelID among the enabled hosts of this type. The lookup
// always runs a fresh discovery. found is false when no host owns the id.
func (h *Host) Resolve(ctx context.Context, hosts []HostConfig, channelID, streamID string) (_ MediaSource, _ bool, err error) {
	ctx, span := h.tracer.Start(ctx, "tuner.resolve", trace.WithAttributes(
		attribute.String(telemetry.TunerTypeKey, h.backend.Type()),
		attribute.String(telemetry.TunerChannelKey, channelID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	found := false
	defer func() {
		metrics.RecordResolve(h.backend.Type(), found, err)
		span.SetAttributes(attribute.Bool(telemetry.TunerFoundKey, found))
	}()

	if !h.backend.OwnsChannel(channelID) {
		return MediaSource{}, false, nil
	}

	for _, info := range h.matching(hosts) {
		ms, ok, resolveErr := h.backend.MediaSource(ctx, info, channelID, streamID)
		if resolveErr != nil {
			h.logger.Warn().Err(resolveErr).
				Str(log.FieldEvent, "tuner.resolve.failed").
				Str(log.FieldChannelID, channelID).
				Msg("media source resolution failed")
			return MediaSource{}, false, classify("resolve", info, resolveErr)
		}
		if ok {
			found = true
			return ms, true, nil
		}
	}
	return MediaSource{}, false, nil
}

// StatusInfos reports one record per enabled host of this type.
func (h *Host) StatusInfos(ctx context.Context, hosts []HostConfig) ([]TunerStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matched := h.matching(hosts)
	out := make([]TunerStatus, 0, len(matched))
	for _, info := range matched {
		out = append(out, TunerStatus{
			Name:       h.backend.Name(),
			SourceType: h.backend.Type(),
			SourceID:   hashutil.MD5Hex(info.URL),
			URL:        info.URL,
			Status:     StateAvailable,
		})
	}
	return out, nil
}
