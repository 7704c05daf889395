// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for tunerd.
package config

import (
	"time"

	"github.com/ManuGH/tunerd/internal/tuner"
)

// Config is the complete runtime configuration.
type Config struct {
	LogLevel   string          `yaml:"logLevel"`
	API        APIConfig       `yaml:"api"`
	Cache      CacheConfig     `yaml:"cache"`
	Source     SourceConfig    `yaml:"source"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	HDHR       HDHRConfig      `yaml:"hdhr"`
	TunerHosts []TunerHost     `yaml:"tunerHosts"`
	ExportPath string          `yaml:"exportPath"`

	// Version is stamped from the binary, never read from file.
	Version string `yaml:"-"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	ListenAddr string          `yaml:"listenAddr"`
	RateLimit  RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig configures per-client request limits.
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// CacheConfig configures the discovery cache.
type CacheConfig struct {
	Backend         string        `yaml:"backend"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	Redis           RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SourceConfig configures the listing source transport.
type SourceConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rateLimit"`
	RateBurst int           `yaml:"rateBurst"`
	UserAgent string        `yaml:"userAgent"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HDHRConfig configures HDHomeRun emulation.
type HDHRConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DeviceID     string `yaml:"deviceId"`
	FriendlyName string `yaml:"friendlyName"`
	TunerCount   int    `yaml:"tunerCount"`
	BaseURL      string `yaml:"baseUrl"`
}

// TunerHost is one configured listing source. Enabled defaults to true.
type TunerHost struct {
	URL     string `yaml:"url"`
	Type    string `yaml:"type"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the host is enabled.
func (h TunerHost) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Hosts converts the configured tuner hosts for the tuner core.
func (c Config) Hosts() []tuner.HostConfig {
	out := make([]tuner.HostConfig, 0, len(c.TunerHosts))
	for _, h := range c.TunerHosts {
		out = append(out, tuner.HostConfig{URL: h.URL, Type: h.Type, Enabled: h.IsEnabled()})
	}
	return out
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		API: APIConfig{
			ListenAddr: ":8089",
			RateLimit: RateLimitConfig{
				Enabled:  true,
				Requests: 100,
				Window:   time.Minute,
			},
		},
		Cache: CacheConfig{
			Backend:         CacheBackendMemory,
			TTL:             10 * time.Minute,
			CleanupInterval: time.Minute,
			Redis:           RedisConfig{Addr: "localhost:6379"},
		},
		Source: SourceConfig{
			Timeout:   30 * time.Second,
			RateLimit: 5,
			RateBurst: 10,
			UserAgent: "tunerd",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		Metrics: MetricsConfig{Enabled: true},
		HDHR: HDHRConfig{
			DeviceID:     "12345678",
			FriendlyName: "tunerd",
			TunerCount:   2,
		},
	}
}
