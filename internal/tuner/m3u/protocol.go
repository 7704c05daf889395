// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package m3u

import "github.com/ManuGH/tunerd/internal/tuner"

// DetectProtocol classifies a media path by its case-insensitive prefix.
// Paths without a known network prefix are files.
func DetectProtocol(path string) tuner.MediaProtocol {
	switch {
	case hasPrefixFold(path, "http"):
		return tuner.ProtocolHTTP
	case hasPrefixFold(path, "rtmp"):
		return tuner.ProtocolRtmp
	case hasPrefixFold(path, "rtsp"):
		return tuner.ProtocolRtsp
	default:
		return tuner.ProtocolFile
	}
}
