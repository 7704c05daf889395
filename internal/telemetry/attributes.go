// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Tuner attributes
	TunerTypeKey     = "tuner.type"
	TunerSourceIDKey = "tuner.source_id"
	TunerCachedKey   = "tuner.cache_used"
	TunerChannelsKey = "tuner.channels"
	TunerChannelKey  = "tuner.channel_id"
	TunerFoundKey    = "tuner.found"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// TunerAttributes identifies a tuner source on a span. The source is referenced
// by its hash so credentials in playlist URLs never reach the collector.
func TunerAttributes(tunerType, sourceID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(TunerTypeKey, tunerType)}
	if sourceID != "" {
		attrs = append(attrs, attribute.String(TunerSourceIDKey, sourceID))
	}
	return attrs
}
