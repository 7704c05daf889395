// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reloadBase = `
tunerHosts:
  - url: http://a/list.m3u
    type: m3u
`

func newTestHolder(t *testing.T, content string) (*Holder, string) {
	t.Helper()
	path := writeConfig(t, content)
	loader := NewLoader(path, "")
	cfg, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(cfg, loader)
	h.debounce = 20 * time.Millisecond
	return h, path
}

func TestHolder_Reload(t *testing.T) {
	h, path := newTestHolder(t, reloadBase)
	require.Len(t, h.Hosts(), 1)

	ch := make(chan Config, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte(reloadBase+`  - url: http://b/list.m3u
    type: m3u
`), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Len(t, h.Hosts(), 2)
	select {
	case cfg := <-ch:
		assert.Len(t, cfg.TunerHosts, 2)
	default:
		t.Fatal("listener was not notified")
	}
}

func TestHolder_ReloadKeepsOldOnError(t *testing.T) {
	h, path := newTestHolder(t, reloadBase)

	require.NoError(t, os.WriteFile(path, []byte("unknownKey: 1\n"), 0o600))
	err := h.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
	assert.Len(t, h.Hosts(), 1)
}

func TestHolder_ListenerFullDoesNotBlock(t *testing.T) {
	h, _ := newTestHolder(t, reloadBase)
	full := make(chan Config)
	h.RegisterListener(full)

	done := make(chan error, 1)
	go func() { done <- h.Reload(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reload blocked on unbuffered listener")
	}
}

func TestHolder_WatchReloadsOnWrite(t *testing.T) {
	h, path := newTestHolder(t, reloadBase)

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan error, 1)
	go func() { watchDone <- h.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-watchDone
	})

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(reloadBase+`  - url: http://c/list.m3u
    type: m3u
`), 0o600))

	require.Eventually(t, func() bool { return len(h.Hosts()) == 2 }, 3*time.Second, 20*time.Millisecond)
}

func TestHolder_WatchWithoutFile(t *testing.T) {
	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	h := NewHolder(cfg, NewLoader("", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, h.Watch(ctx))
}
