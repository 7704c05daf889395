// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package m3u

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/tunerd/internal/hashutil"
	"github.com/ManuGH/tunerd/internal/source"
	"github.com/ManuGH/tunerd/internal/tuner"
)

const testPlaylist = `#EXTM3U
#EXTINF:1,Channel A
http://x/a.ts
#EXTINF:2,Channel B
rtsp://x/b
`

// playlistOpener serves fixed playlists keyed by URL and counts opens.
type playlistOpener struct {
	playlists map[string]string
	opens     atomic.Int32
	closes    atomic.Int32
}

type countingCloser struct {
	io.Reader
	closes *atomic.Int32
}

func (c countingCloser) Close() error {
	c.closes.Add(1)
	return nil
}

func (o *playlistOpener) Open(_ context.Context, rawURL string) (io.ReadCloser, error) {
	o.opens.Add(1)
	body, ok := o.playlists[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnavailable, rawURL)
	}
	return countingCloser{Reader: strings.NewReader(body), closes: &o.closes}, nil
}

func newTestBackend(playlists map[string]string) (*Backend, *playlistOpener) {
	o := &playlistOpener{playlists: playlists}
	return New(o, zerolog.Nop()), o
}

func TestBackend_Identity(t *testing.T) {
	b, _ := newTestBackend(nil)
	assert.Equal(t, "m3u", b.Type())
	assert.Equal(t, "M3U Tuner", b.Name())
	assert.Equal(t, "m3u_"+hashutil.MD5Hex("http://s1"), NamespacePrefix("http://s1"))
	assert.True(t, b.OwnsChannel("M3U_abc1"))
	assert.False(t, b.OwnsChannel("hdhr_abc1"))
}

func TestBackend_Channels(t *testing.T) {
	b, o := newTestBackend(map[string]string{"http://s1": testPlaylist})
	info := tuner.HostConfig{URL: "http://s1", Type: Type, Enabled: true}

	first, err := b.Channels(context.Background(), info)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, NamespacePrefix("http://s1")+"1", first[0].ID)

	second, err := b.Channels(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, first, second, "ids must be stable across discoveries")
	assert.Equal(t, int32(2), o.closes.Load())
}

func TestBackend_ChannelsSourceFailure(t *testing.T) {
	b, _ := newTestBackend(nil)
	_, err := b.Channels(context.Background(), tuner.HostConfig{URL: "http://missing", Type: Type})
	assert.ErrorIs(t, err, source.ErrUnavailable)
}

func TestBackend_Validate(t *testing.T) {
	b, o := newTestBackend(map[string]string{"http://s1": testPlaylist})

	require.NoError(t, b.Validate(context.Background(), tuner.HostConfig{URL: "http://s1", Type: Type}))
	assert.Equal(t, int32(1), o.closes.Load())

	err := b.Validate(context.Background(), tuner.HostConfig{URL: "http://missing", Type: Type})
	assert.ErrorIs(t, err, source.ErrUnavailable)
}

func TestBackend_MediaSource(t *testing.T) {
	b, o := newTestBackend(map[string]string{
		"http://s1": testPlaylist,
		"http://s2": testPlaylist,
	})
	s1 := tuner.HostConfig{URL: "http://s1", Type: Type, Enabled: true}
	s2 := tuner.HostConfig{URL: "http://s2", Type: Type, Enabled: true}

	channels, err := b.Channels(context.Background(), s1)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		for _, ch := range channels {
			ms, found, err := b.MediaSource(context.Background(), s1, ch.ID, "")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, ch.Path, ms.Path)
		}
	})

	t.Run("descriptor", func(t *testing.T) {
		ms, found, err := b.MediaSource(context.Background(), s1, strings.ToUpper(channels[1].ID), "ignored-stream")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, tuner.MediaSource{
			Path:     "rtsp://x/b",
			Protocol: tuner.ProtocolRtsp,
			Streams: []tuner.MediaStream{
				{Type: tuner.StreamVideo, Index: -1, IsInterlaced: true},
				{Type: tuner.StreamAudio, Index: -1},
			},
		}, ms)
	})

	t.Run("namespace isolation", func(t *testing.T) {
		before := o.opens.Load()
		ms, found, err := b.MediaSource(context.Background(), s2, channels[0].ID, "")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, tuner.MediaSource{}, ms)
		assert.Equal(t, before, o.opens.Load(), "namespace mismatch must not read the source")
	})

	t.Run("unknown number", func(t *testing.T) {
		_, found, err := b.MediaSource(context.Background(), s1, NamespacePrefix("http://s1")+"99", "")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestBackend_WithHostAndFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lineup.m3u")
	require.NoError(t, os.WriteFile(path, []byte(testPlaylist), 0o600))

	reg := tuner.NewRegistry()
	require.NoError(t, Register(reg))

	backend, err := reg.New(Type, tuner.Deps{Opener: source.NewRouter(nil, source.NewFileOpener()), Logger: zerolog.Nop()})
	require.NoError(t, err)

	nop := zerolog.Nop()
	h := tuner.NewHost(backend, tuner.HostOptions{Logger: &nop})
	hosts := []tuner.HostConfig{{URL: path, Type: "M3U", Enabled: true}}

	channels, err := h.Discover(context.Background(), hosts, false)
	require.NoError(t, err)
	require.Len(t, channels, 2)

	ms, found, err := h.Resolve(context.Background(), hosts, channels[0].ID, "")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, tuner.ProtocolHTTP, ms.Protocol)

	statuses, err := h.StatusInfos(context.Background(), hosts)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "M3U Tuner", statuses[0].Name)
	assert.Equal(t, hashutil.MD5Hex(path), statuses[0].SourceID)

	err = h.Validate(context.Background(), tuner.HostConfig{URL: filepath.Join(dir, "missing.m3u"), Type: Type})
	assert.ErrorIs(t, err, tuner.ErrValidation)
	assert.ErrorIs(t, err, tuner.ErrTransport)

	err = h.Validate(context.Background(), tuner.HostConfig{URL: "ftp://host/list.m3u", Type: Type})
	assert.ErrorIs(t, err, tuner.ErrConfiguration)
}

func TestBackend_DiscoverSkipsOversizedLine(t *testing.T) {
	playlist := "#EXTM3U\n#EXTVLCOPT:" + strings.Repeat("x", MaxLineSize+10) + "\n#EXTINF:1,Good\nhttp://x/1.ts\n"
	b, _ := newTestBackend(map[string]string{"http://s/pl.m3u": playlist})

	nop := zerolog.Nop()
	h := tuner.NewHost(b, tuner.HostOptions{Logger: &nop})
	hosts := []tuner.HostConfig{{URL: "http://s/pl.m3u", Type: Type, Enabled: true}}

	channels, err := h.Discover(context.Background(), hosts, false)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "Good", channels[0].Name)
	assert.Equal(t, NamespacePrefix("http://s/pl.m3u")+"1", channels[0].ID)
}
