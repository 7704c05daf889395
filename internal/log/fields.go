// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldChannelID     = "channel_id"
	FieldStreamID      = "stream_id"
	FieldSourceID      = "source_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Tuner fields
	FieldTunerType = "tuner_type"
	FieldSourceURL = "source_url"
	FieldChannels  = "channels"
	FieldLine      = "line"
	FieldReason    = "reason"
	FieldCache     = "cache"

	// HTTP fields
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
)
