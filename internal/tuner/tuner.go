// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package tuner defines the pluggable tuner backend contract and the shared
// orchestration (caching, validation, status reporting) wrapped around it.
package tuner

// HostConfig is one configured tuner instance.
type HostConfig struct {
	URL     string `json:"url" yaml:"url"`
	Type    string `json:"type" yaml:"type"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Channel is a single lineup entry discovered from a listing source.
// ID is derived from the backend prefix, the source URL hash and Number.
type Channel struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Path   string `json:"path"`
}

// MediaProtocol is the transport a media path is played over.
type MediaProtocol string

const (
	ProtocolFile MediaProtocol = "File"
	ProtocolHTTP MediaProtocol = "Http"
	ProtocolRtmp MediaProtocol = "Rtmp"
	ProtocolRtsp MediaProtocol = "Rtsp"
)

// StreamType identifies the kind of elementary stream.
type StreamType string

const (
	StreamVideo StreamType = "Video"
	StreamAudio StreamType = "Audio"
)

// UnresolvedIndex marks a stream whose index is only known after probing.
const UnresolvedIndex = -1

// MediaStream describes one elementary stream of a media source.
type MediaStream struct {
	Type         StreamType `json:"type"`
	Index        int        `json:"index"`
	IsInterlaced bool       `json:"isInterlaced,omitempty"`
}

// MediaSource is a playable descriptor for a resolved channel.
type MediaSource struct {
	Path            string        `json:"path"`
	Protocol        MediaProtocol `json:"protocol"`
	Streams         []MediaStream `json:"streams"`
	RequiresOpening bool          `json:"requiresOpening"`
	RequiresClosing bool          `json:"requiresClosing"`
}

// PlaceholderStreams returns the unprobed video and audio stream pair.
func PlaceholderStreams() []MediaStream {
	return []MediaStream{
		{Type: StreamVideo, Index: UnresolvedIndex, IsInterlaced: true},
		{Type: StreamAudio, Index: UnresolvedIndex},
	}
}

// TunerState is the operational state reported for a tuner instance.
type TunerState string

const (
	StateAvailable   TunerState = "Available"
	StateDisabled    TunerState = "Disabled"
	StateRecordingTV TunerState = "RecordingTv"
	StateLiveTV      TunerState = "LiveTv"
)

// TunerStatus is a read-only projection of one configured tuner instance.
type TunerStatus struct {
	Name       string     `json:"name"`
	SourceType string     `json:"sourceType"`
	SourceID   string     `json:"sourceId"`
	URL        string     `json:"url"`
	Status     TunerState `json:"status"`
}
