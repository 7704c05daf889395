// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playlist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ManuGH/tunerd/internal/tuner"
	"github.com/ManuGH/tunerd/internal/tuner/m3u"
)

func TestWriteM3UTable(t *testing.T) {
	tests := []struct {
		name     string
		channels []tuner.Channel
		expect   []string
		reject   []string
		written  int
	}{
		{
			name:     "basic",
			channels: []tuner.Channel{{ID: "m3u_x1", Name: "ORF1 HD", Number: "1", Path: "http://p/orf1.ts"}},
			expect:   []string{"#EXTM3U\n", "#EXTINF:1,ORF1 HD\n", "http://p/orf1.ts\n"},
			written:  1,
		},
		{
			name:     "line breaks are flattened",
			channels: []tuner.Channel{{Name: "Evil\n#EXTINF:9,Injected", Number: "2", Path: "http://p/2.ts"}},
			expect:   []string{"#EXTINF:2,Evil #EXTINF:9,Injected\n"},
			reject:   []string{"\n#EXTINF:9"},
			written:  1,
		},
		{
			name: "unreadable entries are skipped",
			channels: []tuner.Channel{
				{Name: "No Number", Path: "http://p/x.ts"},
				{Name: "No Path", Number: "3"},
				{Name: "Comment Path", Number: "4", Path: "#oops"},
				{Name: "Comma", Number: "5,6", Path: "http://p/5.ts"},
			},
			expect:  []string{"#EXTM3U\n"},
			reject:  []string{"No Number", "No Path", "Comment Path", "Comma"},
			written: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := WriteM3U(&buf, tt.channels)
			if err != nil {
				t.Fatalf("WriteM3U: %v", err)
			}
			if n != tt.written {
				t.Errorf("written = %d, want %d", n, tt.written)
			}
			out := buf.String()
			for _, s := range tt.expect {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.reject {
				if strings.Contains(out, s) {
					t.Errorf("output unexpectedly contains %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestWriteM3URoundTrip(t *testing.T) {
	channels := []tuner.Channel{
		{Name: "Channel A", Number: "1", Path: "http://x/a.ts"},
		{Name: "News: Live, HD", Number: "2", Path: "rtsp://x/b"},
	}

	var buf bytes.Buffer
	if _, err := WriteM3U(&buf, channels); err != nil {
		t.Fatalf("WriteM3U: %v", err)
	}

	parsed, err := m3u.Parse(context.Background(), &buf, "p_", zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != len(channels) {
		t.Fatalf("parsed %d channels, want %d", len(parsed), len(channels))
	}
	for i, ch := range parsed {
		if ch.Name != channels[i].Name || ch.Number != channels[i].Number || ch.Path != channels[i].Path {
			t.Errorf("channel %d = %+v, want %+v", i, ch, channels[i])
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineup.m3u")
	channels := []tuner.Channel{{Name: "A", Number: "1", Path: "http://x/a.ts"}}

	n, err := WriteFile(context.Background(), path, channels)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if n != 1 {
		t.Errorf("written = %d, want 1", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "#EXTM3U\n#EXTINF:1,A\nhttp://x/a.ts\n" {
		t.Errorf("unexpected file content: %q", data)
	}

	// Replacing keeps a single complete file.
	if _, err := WriteFile(context.Background(), path, nil); err != nil {
		t.Fatalf("WriteFile replace: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "#EXTM3U\n" {
		t.Errorf("unexpected replaced content: %q", data)
	}
}

func TestWriteFile_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "lineup.m3u")
	if _, err := WriteFile(context.Background(), path, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
