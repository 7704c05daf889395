// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/tuner"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor maps tuner error kinds to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case tuner.IsCanceled(err):
		return http.StatusServiceUnavailable, "canceled"
	case errors.Is(err, tuner.ErrConfiguration):
		return http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, tuner.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, tuner.ErrTransport):
		return http.StatusBadGateway, "source_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldEvent, "api.encode_error").Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	writeJSON(w, r, status, ErrorResponse{
		Error:     code,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
	})
}

// writeTunerError logs err and answers with the status of its kind.
func writeTunerError(w http.ResponseWriter, r *http.Request, event string, err error) {
	status, code := logTunerError(r, event, err)
	writeError(w, r, status, code, err.Error())
}

// writeTunerErrorCode is writeTunerError without the error text in the body,
// for requests whose caller supplied the source location.
func writeTunerErrorCode(w http.ResponseWriter, r *http.Request, event string, err error) {
	status, code := logTunerError(r, event, err)
	writeError(w, r, status, code, "")
}

func logTunerError(r *http.Request, event string, err error) (int, string) {
	status, code := statusFor(err)
	logger := log.WithComponentFromContext(r.Context(), "api")
	evt := logger.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		evt = logger.Error()
	}
	evt.Err(err).Str(log.FieldEvent, event).Int(log.FieldStatus, status).Msg("request failed")
	return status, code
}
