// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/playlist"
	"github.com/ManuGH/tunerd/internal/tuner"
)

const maxValidateBody = 64 << 10

// ChannelsResponse lists the merged lineup.
type ChannelsResponse struct {
	Channels []tuner.Channel `json:"channels"`
	Count    int             `json:"count"`
}

// TunersResponse lists the configured tuner instances.
type TunersResponse struct {
	Tuners []tuner.TunerStatus `json:"tuners"`
}

// ValidateRequest is the body of POST /api/v1/tuners/validate.
type ValidateRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// refreshRequested reports whether the caller asked to bypass the cache.
func refreshRequested(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.catalog.Channels(r.Context(), !refreshRequested(r))
	if err != nil {
		writeTunerError(w, r, "api.channels.failed", err)
		return
	}
	if channels == nil {
		channels = []tuner.Channel{}
	}
	writeJSON(w, r, http.StatusOK, ChannelsResponse{Channels: channels, Count: len(channels)})
}

func (s *Server) handleMediaSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ms, found, err := s.catalog.Resolve(r.Context(), id, r.URL.Query().Get("streamId"))
	if err != nil {
		writeTunerError(w, r, "api.mediasource.failed", err)
		return
	}
	if !found {
		writeError(w, r, http.StatusNotFound, "not_found", "channel "+id+" not found")
		return
	}
	writeJSON(w, r, http.StatusOK, ms)
}

func (s *Server) handleTuners(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.catalog.Statuses(r.Context())
	if err != nil {
		writeTunerError(w, r, "api.tuners.failed", err)
		return
	}
	if statuses == nil {
		statuses = []tuner.TunerStatus{}
	}
	writeJSON(w, r, http.StatusOK, TunersResponse{Tuners: statuses})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxValidateBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	req.Type = strings.TrimSpace(req.Type)
	if req.URL == "" || req.Type == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "url and type are required")
		return
	}

	err := s.catalog.Validate(r.Context(), tuner.HostConfig{URL: req.URL, Type: req.Type, Enabled: true})
	if err != nil {
		writeTunerErrorCode(w, r, "api.validate.failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	channels, err := s.catalog.Channels(r.Context(), !refreshRequested(r))
	if err != nil {
		writeTunerError(w, r, "api.playlist.failed", err)
		return
	}

	var buf bytes.Buffer
	n, err := playlist.WriteM3U(&buf, channels)
	if err != nil {
		writeTunerError(w, r, "api.playlist.encode_failed", err)
		return
	}

	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Str(log.FieldEvent, "api.playlist.write_failed").Msg("client went away")
		return
	}
	s.logger.Debug().Str(log.FieldEvent, "api.playlist.served").Int(log.FieldChannels, n).Msg("playlist served")
}
