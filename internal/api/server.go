// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api provides the HTTP surface of tunerd.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/tunerd/internal/api/middleware"
	"github.com/ManuGH/tunerd/internal/hdhr"
	"github.com/ManuGH/tunerd/internal/health"
	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/tuner"
)

// Catalog is the consumer view of every tuner backend.
type Catalog interface {
	Channels(ctx context.Context, useCache bool) ([]tuner.Channel, error)
	Resolve(ctx context.Context, channelID, streamID string) (tuner.MediaSource, bool, error)
	Statuses(ctx context.Context) ([]tuner.TunerStatus, error)
	Validate(ctx context.Context, info tuner.HostConfig) error
}

// Options configures a Server.
type Options struct {
	Catalog Catalog
	Health  *health.Manager
	// HDHR mounts HomeRun emulation routes when non-nil.
	HDHR *hdhr.Server
	// Metrics exposes /metrics.
	Metrics bool
	Stack   middleware.StackConfig
}

// Server serves the tuner catalog over HTTP.
type Server struct {
	catalog Catalog
	health  *health.Manager
	hdhr    *hdhr.Server
	metrics bool
	stack   middleware.StackConfig
	logger  zerolog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	hm := opts.Health
	if hm == nil {
		hm = health.NewManager("")
	}
	return &Server{
		catalog: opts.Catalog,
		health:  hm,
		hdhr:    opts.HDHR,
		metrics: opts.Metrics,
		stack:   opts.Stack,
		logger:  log.WithComponent("api"),
	}
}

// Handler builds the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(s.stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	if s.metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/channels", s.handleChannels)
		r.Get("/channels/{id}/mediasource", s.handleMediaSource)
		r.Get("/tuners", s.handleTuners)
		r.Post("/tuners/validate", s.handleValidate)
	})
	r.Get("/playlist.m3u", s.handlePlaylist)

	if s.hdhr != nil {
		s.hdhr.Register(r)
	}
	return r
}
