// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/tunerd/internal/validate"
)

// Validate validates a Config using the centralized validation package
func Validate(cfg Config) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("logLevel", "must be one of trace, debug, info, warn, error", cfg.LogLevel)
	}

	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	if cfg.API.RateLimit.Enabled {
		v.Positive("api.rateLimit.requests", cfg.API.RateLimit.Requests)
		v.DurationRange("api.rateLimit.window", cfg.API.RateLimit.Window, time.Second, 24*time.Hour)
	}

	v.OneOf("cache.backend", cfg.Cache.Backend, []string{CacheBackendMemory, CacheBackendRedis, CacheBackendNone})
	v.NonNegativeDuration("cache.ttl", cfg.Cache.TTL)
	v.NonNegativeDuration("cache.cleanupInterval", cfg.Cache.CleanupInterval)
	if cfg.Cache.Backend == CacheBackendRedis {
		v.NotEmpty("cache.redis.addr", cfg.Cache.Redis.Addr)
		v.Range("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
	}

	v.DurationRange("source.timeout", cfg.Source.Timeout, time.Second, 10*time.Minute)
	if cfg.Source.RateLimit <= 0 {
		v.AddError("source.rateLimit", "must be positive", cfg.Source.RateLimit)
	}
	v.Positive("source.rateBurst", cfg.Source.RateBurst)

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.Ratio("telemetry.samplingRate", cfg.Telemetry.SamplingRate)

	if cfg.HDHR.Enabled {
		v.NotEmpty("hdhr.deviceId", cfg.HDHR.DeviceID)
		v.Range("hdhr.tunerCount", cfg.HDHR.TunerCount, 1, 16)
		if cfg.HDHR.BaseURL != "" {
			v.URL("hdhr.baseUrl", cfg.HDHR.BaseURL, []string{"http", "https"})
		}
	}

	seen := make(map[string]int, len(cfg.TunerHosts))
	for i, h := range cfg.TunerHosts {
		field := fmt.Sprintf("tunerHosts[%d]", i)
		v.NotEmpty(field+".url", h.URL)
		v.NotEmpty(field+".type", h.Type)

		key := strings.ToLower(strings.TrimSpace(h.Type)) + "\x00" + strings.TrimSpace(h.URL)
		if prev, dup := seen[key]; dup {
			v.AddError(field, fmt.Sprintf("duplicates tunerHosts[%d] (same type and url)", prev), h.URL)
			continue
		}
		seen[key] = i
	}

	return v.Err()
}
