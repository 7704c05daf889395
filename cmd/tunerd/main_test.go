// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/tunerd/internal/tuner"
)

func setup(t *testing.T) (configPath, playlistPath string) {
	t.Helper()
	dir := t.TempDir()
	playlistPath = filepath.Join(dir, "list.m3u")
	content := "#EXTM3U\n#EXTINF:1,News\nhttp://cdn/news.ts\n#EXTINF:2,Cam\nrtsp://cam/2\n"
	require.NoError(t, os.WriteFile(playlistPath, []byte(content), 0o600))

	configPath = filepath.Join(dir, "config.yaml")
	cfg := "logLevel: warn\ncache:\n  backend: none\ntunerHosts:\n  - url: " + playlistPath + "\n    type: m3u\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	return configPath, playlistPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TUNERD_M3U_URL", "")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestChannelsCmd(t *testing.T) {
	cfg, _ := setup(t)
	out, err := run(t, "--config", cfg, "channels")
	require.NoError(t, err)

	var channels []tuner.Channel
	require.NoError(t, json.Unmarshal([]byte(out), &channels))
	require.Len(t, channels, 2)
	assert.Equal(t, "News", channels[0].Name)
	assert.Equal(t, "rtsp://cam/2", channels[1].Path)
}

func TestResolveCmd(t *testing.T) {
	cfg, _ := setup(t)
	out, err := run(t, "--config", cfg, "channels", "--refresh")
	require.NoError(t, err)
	var channels []tuner.Channel
	require.NoError(t, json.Unmarshal([]byte(out), &channels))

	out, err = run(t, "--config", cfg, "resolve", channels[1].ID)
	require.NoError(t, err)
	var ms tuner.MediaSource
	require.NoError(t, json.Unmarshal([]byte(out), &ms))
	assert.Equal(t, tuner.ProtocolRtsp, ms.Protocol)

	_, err = run(t, "--config", cfg, "resolve", "m3u_unknown_9")
	assert.ErrorIs(t, err, ErrChannelNotFound)

	_, err = run(t, "--config", cfg, "resolve")
	assert.Error(t, err)
}

func TestStatusCmd(t *testing.T) {
	cfg, playlist := setup(t)
	out, err := run(t, "--config", cfg, "status")
	require.NoError(t, err)

	var statuses []tuner.TunerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, playlist, statuses[0].URL)
	assert.Equal(t, tuner.StateAvailable, statuses[0].Status)
}

func TestValidateCmd(t *testing.T) {
	cfg, playlist := setup(t)

	out, err := run(t, "--config", cfg, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "1 sources reachable")

	out, err = run(t, "--config", cfg, "validate", "--url", filepath.Join(filepath.Dir(playlist), "nope.m3u"))
	require.Error(t, err)
	assert.ErrorIs(t, err, tuner.ErrValidation)
	assert.Contains(t, out, "FAIL")
}

func TestValidateCmd_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: memcached\n"), 0o600))
	_, err := run(t, "--config", path, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestExportCmd(t *testing.T) {
	cfg, _ := setup(t)
	target := filepath.Join(t.TempDir(), "out.m3u")

	out, err := run(t, "--config", cfg, "export", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 channels")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#EXTM3U\n#EXTINF:1,News\n"))

	_, err = run(t, "--config", cfg, "export")
	assert.ErrorContains(t, err, "no output path")
}

func TestHealthcheckCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	out, err := run(t, "healthcheck", "--mode", "live", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "Healthcheck successful (live)")

	_, err = run(t, "healthcheck", "--addr", addr)
	assert.ErrorContains(t, err, "503")
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit:")
}
