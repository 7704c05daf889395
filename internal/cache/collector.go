// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitsDesc = prometheus.NewDesc("tunerd_cache_hits_total",
		"Discovery cache hits", []string{"backend"}, nil)
	missesDesc = prometheus.NewDesc("tunerd_cache_misses_total",
		"Discovery cache misses", []string{"backend"}, nil)
	setsDesc = prometheus.NewDesc("tunerd_cache_sets_total",
		"Discovery snapshots written", []string{"backend"}, nil)
	evictionsDesc = prometheus.NewDesc("tunerd_cache_evictions_total",
		"Discovery snapshots expired or removed", []string{"backend"}, nil)
	entriesDesc = prometheus.NewDesc("tunerd_cache_entries",
		"Entries currently held by the cache backend", []string{"backend"}, nil)
)

// StatsCollector exports Cache.Stats as Prometheus metrics on every scrape.
type StatsCollector struct {
	cache   Cache
	backend string
}

// NewStatsCollector returns a collector reading c. backend labels every series.
func NewStatsCollector(c Cache, backend string) *StatsCollector {
	return &StatsCollector{cache: c, backend: backend}
}

// Describe implements prometheus.Collector.
func (s *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- hitsDesc
	ch <- missesDesc
	ch <- setsDesc
	ch <- evictionsDesc
	ch <- entriesDesc
}

// Collect implements prometheus.Collector.
func (s *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	st := s.cache.Stats()
	ch <- prometheus.MustNewConstMetric(hitsDesc, prometheus.CounterValue, float64(st.Hits), s.backend)
	ch <- prometheus.MustNewConstMetric(missesDesc, prometheus.CounterValue, float64(st.Misses), s.backend)
	ch <- prometheus.MustNewConstMetric(setsDesc, prometheus.CounterValue, float64(st.Sets), s.backend)
	ch <- prometheus.MustNewConstMetric(evictionsDesc, prometheus.CounterValue, float64(st.Evictions), s.backend)
	ch <- prometheus.MustNewConstMetric(entriesDesc, prometheus.GaugeValue, float64(st.CurrentSize), s.backend)
}
