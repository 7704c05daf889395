// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package m3u

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/tunerd/internal/tuner"
)

func TestDetectProtocol(t *testing.T) {
	tests := []struct {
		path string
		want tuner.MediaProtocol
	}{
		{"rtsp://host/stream", tuner.ProtocolRtsp},
		{"plain.ts", tuner.ProtocolFile},
		{"RTMP://host", tuner.ProtocolRtmp},
		{"http://x/a.ts", tuner.ProtocolHTTP},
		{"HTTPS://x/a.ts", tuner.ProtocolHTTP},
		{"/srv/media/a.ts", tuner.ProtocolFile},
		{"udp://@239.0.0.1:1234", tuner.ProtocolFile},
		{"", tuner.ProtocolFile},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProtocol(tt.path))
		})
	}
}
