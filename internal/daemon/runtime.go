// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the tuner catalog and runs the long-lived server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/tunerd/internal/cache"
	"github.com/ManuGH/tunerd/internal/config"
	"github.com/ManuGH/tunerd/internal/health"
	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/source"
	"github.com/ManuGH/tunerd/internal/tuner"
	"github.com/ManuGH/tunerd/internal/tuner/m3u"
)

const sourcesCheckTTL = 30 * time.Second

// Runtime holds the components shared by the server and one-shot commands.
type Runtime struct {
	Holder  *config.Holder
	Catalog *tuner.Catalog
	Cache   cache.Cache
	Health  *health.Manager

	closers []namedCloser
	logger  zerolog.Logger
}

type namedCloser struct {
	name  string
	close func(ctx context.Context) error
}

// NewRuntime builds the catalog from the current configuration. Host lists
// are read from holder on every call, so reloads take effect without a rebuild.
func NewRuntime(ctx context.Context, holder *config.Holder) (*Runtime, error) {
	if holder == nil {
		return nil, ErrMissingConfig
	}
	cfg := holder.Get()
	rt := &Runtime{
		Holder: holder,
		Health: health.NewManager(cfg.Version),
		logger: log.WithComponent("daemon"),
	}

	c, err := rt.openCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	rt.Cache = c
	rt.registerCacheStats(c, cfg.Cache.Backend)

	reg := tuner.NewRegistry()
	if err := m3u.Register(reg); err != nil {
		return nil, fmt.Errorf("register m3u backend: %w", err)
	}

	tunerLogger := log.WithComponent("tuner")
	catalog, err := tuner.BuildCatalog(reg,
		tuner.Deps{Opener: NewOpener(cfg.Source), Logger: tunerLogger},
		tuner.HostOptions{Cache: c, CacheTTL: cfg.Cache.TTL, Logger: &tunerLogger},
		holder,
	)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	rt.Catalog = catalog

	rt.Health.RegisterChecker(health.NewSourcesChecker(holder, catalog.Validate, sourcesCheckTTL))

	rt.logger.Info().
		Str(log.FieldEvent, "daemon.runtime_ready").
		Strs("tuner_types", catalog.Types()).
		Str(log.FieldCache, cfg.Cache.Backend).
		Int("tuner_hosts", len(cfg.TunerHosts)).
		Msg("tuner catalog ready")
	return rt, nil
}

// NewOpener builds the listing source transport for cfg.
func NewOpener(cfg config.SourceConfig) source.Opener {
	httpOpener := source.NewHTTPOpener(source.HTTPOptions{
		Timeout:        cfg.Timeout,
		UserAgent:      cfg.UserAgent,
		RateLimit:      rate.Limit(cfg.RateLimit),
		RateLimitBurst: cfg.RateBurst,
	})
	return source.NewRouter(httpOpener, source.NewFileOpener())
}

func (rt *Runtime) openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return cache.NewNoOpCache(), nil
	case config.CacheBackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log.WithComponent("cache"))
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		rt.onClose("redis", func(context.Context) error { return rc.Close() })
		rt.Health.RegisterChecker(health.NewPingChecker("cache", rc.HealthCheck))
		return rc, nil
	default:
		mc := cache.NewMemoryCache(cfg.CleanupInterval)
		rt.onClose("memory-cache", func(context.Context) error {
			mc.Stop()
			return nil
		})
		return mc, nil
	}
}

func (rt *Runtime) registerCacheStats(c cache.Cache, backend string) {
	col := cache.NewStatsCollector(c, backend)
	if err := prometheus.Register(col); err != nil {
		rt.logger.Warn().Err(err).Str(log.FieldEvent, "daemon.cache_stats_unregistered").Msg("cache stats not exported")
		return
	}
	rt.onClose("cache-stats", func(context.Context) error {
		prometheus.Unregister(col)
		return nil
	})
}

// ApplyReload adopts side effects of a config reload from prev to next.
// Cached snapshots are dropped when the host list changed.
func (rt *Runtime) ApplyReload(ctx context.Context, prev, next config.Config) {
	log.Configure(log.Config{Level: next.LogLevel, Service: serviceName, Version: next.Version})
	if slices.Equal(prev.Hosts(), next.Hosts()) {
		return
	}
	rt.Cache.Clear(ctx)
	rt.logger.Info().
		Str(log.FieldEvent, "daemon.cache_cleared").
		Int("tuner_hosts", len(next.TunerHosts)).
		Msg("tuner hosts changed, discovery cache cleared")
}

func (rt *Runtime) onClose(name string, fn func(ctx context.Context) error) {
	rt.closers = append(rt.closers, namedCloser{name: name, close: fn})
}

// Close releases runtime resources in reverse acquisition order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if err := c.close(ctx); err != nil {
			rt.logger.Warn().Err(err).Str(log.FieldEvent, "daemon.close_failed").Str("resource", c.name).Msg("failed to release resource")
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
