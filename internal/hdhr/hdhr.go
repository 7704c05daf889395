// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package hdhr emulates the HDHomeRun HTTP API over the merged tuner lineup.
package hdhr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/tunerd/internal/tuner"
)

// LineupSource yields the merged channel lineup.
type LineupSource interface {
	Channels(ctx context.Context, useCache bool) ([]tuner.Channel, error)
}

// Config holds HDHomeRun emulation configuration
type Config struct {
	DeviceID     string
	FriendlyName string
	ModelName    string
	FirmwareName string
	BaseURL      string
	TunerCount   int
	Logger       zerolog.Logger
}

// Server implements HDHomeRun API endpoints
type Server struct {
	config Config
	lineup LineupSource
	logger zerolog.Logger
}

// NewServer creates a new HDHomeRun emulation server
func NewServer(config Config, lineup LineupSource) *Server {
	if config.DeviceID == "" {
		config.DeviceID = "12345678"
	}
	if config.FriendlyName == "" {
		config.FriendlyName = "tunerd"
	}
	if config.ModelName == "" {
		config.ModelName = "HDTC-2US"
	}
	if config.FirmwareName == "" {
		config.FirmwareName = "hdhomeruntc_atsc"
	}
	if config.TunerCount == 0 {
		config.TunerCount = 2
	}

	return &Server{
		config: config,
		lineup: lineup,
		logger: config.Logger,
	}
}

// DiscoverResponse represents HDHomeRun discovery response
type DiscoverResponse struct {
	FriendlyName    string `json:"FriendlyName"`
	ModelNumber     string `json:"ModelNumber"`
	FirmwareName    string `json:"FirmwareName"`
	FirmwareVersion string `json:"FirmwareVersion"`
	DeviceID        string `json:"DeviceID"`
	DeviceAuth      string `json:"DeviceAuth"`
	BaseURL         string `json:"BaseURL"`
	LineupURL       string `json:"LineupURL"`
	TunerCount      int    `json:"TunerCount"`
}

// LineupStatus represents tuner status
type LineupStatus struct {
	ScanInProgress int      `json:"ScanInProgress"`
	ScanPossible   int      `json:"ScanPossible"`
	Source         string   `json:"Source"`
	SourceList     []string `json:"SourceList"`
}

// LineupEntry represents a channel in the lineup
type LineupEntry struct {
	GuideNumber string `json:"GuideNumber"`
	GuideName   string `json:"GuideName"`
	URL         string `json:"URL"`
}

func (s *Server) writeJSON(w http.ResponseWriter, endpoint string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("failed to encode HDHomeRun response")
	}
}

func (s *Server) baseURL(r *http.Request) string {
	if s.config.BaseURL != "" {
		return s.config.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// HandleDiscover handles /discover.json endpoint
func (s *Server) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	baseURL := s.baseURL(r)
	s.writeJSON(w, "/discover.json", DiscoverResponse{
		FriendlyName:    s.config.FriendlyName,
		ModelNumber:     s.config.ModelName,
		FirmwareName:    s.config.FirmwareName,
		FirmwareVersion: s.config.FirmwareName,
		DeviceID:        s.config.DeviceID,
		DeviceAuth:      "tunerd",
		BaseURL:         baseURL,
		LineupURL:       baseURL + "/lineup.json",
		TunerCount:      s.config.TunerCount,
	})

	s.logger.Info().
		Str("endpoint", "/discover.json").
		Str("device_id", s.config.DeviceID).
		Msg("HDHomeRun discovery request")
}

// HandleLineupStatus handles /lineup_status.json endpoint
func (s *Server) HandleLineupStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, "/lineup_status.json", LineupStatus{
		ScanInProgress: 0,
		ScanPossible:   1,
		Source:         "Cable",
		SourceList:     []string{"Cable"},
	})
}

// HandleLineup handles /lineup.json endpoint from the cached merged lineup.
func (s *Server) HandleLineup(w http.ResponseWriter, r *http.Request) {
	channels, err := s.lineup.Channels(r.Context(), true)
	if err != nil {
		s.logger.Error().Err(err).Str("endpoint", "/lineup.json").Msg("lineup discovery failed")
		http.Error(w, "lineup unavailable", http.StatusBadGateway)
		return
	}

	entries := make([]LineupEntry, 0, len(channels))
	for _, ch := range channels {
		entries = append(entries, LineupEntry{
			GuideNumber: ch.Number,
			GuideName:   ch.Name,
			URL:         ch.Path,
		})
	}
	s.writeJSON(w, "/lineup.json", entries)

	s.logger.Debug().
		Str("endpoint", "/lineup.json").
		Int("channels", len(entries)).
		Msg("HDHomeRun lineup request")
}

// HandleLineupPost handles POST /lineup.json (client-triggered scan).
// A scan start refreshes the lineup bypassing the cache.
func (s *Server) HandleLineupPost(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("scan") == "start" {
		if _, err := s.lineup.Channels(r.Context(), false); err != nil {
			s.logger.Warn().Err(err).Msg("HDHomeRun channel scan failed")
			http.Error(w, "scan failed", http.StatusBadGateway)
			return
		}
		s.logger.Info().Msg("HDHomeRun channel scan refreshed lineup")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Register mounts the HDHomeRun routes on mux.
func (s *Server) Register(mux interface {
	Get(pattern string, h http.HandlerFunc)
	Post(pattern string, h http.HandlerFunc)
}) {
	mux.Get("/discover.json", s.HandleDiscover)
	mux.Get("/lineup_status.json", s.HandleLineupStatus)
	mux.Get("/lineup.json", s.HandleLineup)
	mux.Post("/lineup.json", s.HandleLineupPost)
}
