// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes Prometheus instrumentation for tuner discovery and resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunerd_discovery_total",
		Help: "Channel discovery attempts per tuner type by outcome",
	}, []string{"type", "outcome"}) // outcome=success|failure

	discoveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tunerd_discovery_duration_seconds",
		Help:    "Time spent reading and parsing one listing source",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	channelsDiscovered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tunerd_channels_discovered",
		Help: "Channels returned by the last discovery per tuner source",
	}, []string{"type", "source_id"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunerd_discovery_cache_lookups_total",
		Help: "Discovery cache lookups per tuner type by result",
	}, []string{"type", "result"}) // result=hit|miss

	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunerd_resolve_total",
		Help: "Media source resolutions per tuner type by outcome",
	}, []string{"type", "outcome"}) // outcome=found|not_found|error

	validationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunerd_validation_total",
		Help: "Listing source connectivity checks per tuner type by outcome",
	}, []string{"type", "outcome"})

	droppedLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunerd_playlist_dropped_lines_total",
		Help: "Playlist lines dropped while parsing, by reason",
	}, []string{"type", "reason"})
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordDiscovery records one backend discovery round trip.
func RecordDiscovery(tunerType, sourceID string, channels int, d time.Duration, err error) {
	discoveryTotal.WithLabelValues(tunerType, outcome(err)).Inc()
	discoveryDuration.WithLabelValues(tunerType).Observe(d.Seconds())
	if err == nil {
		channelsDiscovered.WithLabelValues(tunerType, sourceID).Set(float64(channels))
	}
}

// RecordCacheLookup records a discovery cache hit or miss.
func RecordCacheLookup(tunerType string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(tunerType, result).Inc()
}

// RecordResolve records a resolution outcome: found, not_found or error.
func RecordResolve(tunerType string, found bool, err error) {
	switch {
	case err != nil:
		resolveTotal.WithLabelValues(tunerType, "error").Inc()
	case found:
		resolveTotal.WithLabelValues(tunerType, "found").Inc()
	default:
		resolveTotal.WithLabelValues(tunerType, "not_found").Inc()
	}
}

// RecordValidation records a connectivity check outcome.
func RecordValidation(tunerType string, err error) {
	validationTotal.WithLabelValues(tunerType, outcome(err)).Inc()
}

// IncDroppedLine counts a playlist line that was skipped during parsing.
func IncDroppedLine(tunerType, reason string) {
	droppedLines.WithLabelValues(tunerType, reason).Inc()
}
