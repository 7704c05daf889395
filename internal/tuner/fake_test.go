// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tuner

import (
	"context"
	"strings"
	"sync"

	"github.com/ManuGH/tunerd/internal/hashutil"
)

// fakeBackend serves fixed lineups per source URL.
type fakeBackend struct {
	typ string

	mu       sync.Mutex
	lineups  map[string][]Channel
	errs     map[string]error
	calls    map[string]int
	validate error
}

func newFakeBackend(typ string) *fakeBackend {
	return &fakeBackend{
		typ:     typ,
		lineups: make(map[string][]Channel),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeBackend) prefix(url string) string { return f.typ + "_" + hashutil.MD5Hex(url) }

// setLineup registers channels for url, deriving ids from numbers.
func (f *fakeBackend) setLineup(url string, numbers ...string) []Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Channel
	for _, n := range numbers {
		out = append(out, Channel{
			ID:     f.prefix(url) + n,
			Name:   "Channel " + n,
			Number: n,
			Path:   "http://media/" + n + ".ts",
		})
	}
	f.lineups[url] = out
	return out
}

func (f *fakeBackend) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeBackend) Type() string { return f.typ }
func (f *fakeBackend) Name() string { return strings.ToUpper(f.typ) + " Tuner" }

func (f *fakeBackend) OwnsChannel(id string) bool { return strings.HasPrefix(id, f.typ+"_") }

func (f *fakeBackend) Channels(ctx context.Context, info HostConfig) ([]Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[info.URL]++
	if err := f.errs[info.URL]; err != nil {
		return nil, err
	}
	out := make([]Channel, len(f.lineups[info.URL]))
	copy(out, f.lineups[info.URL])
	return out, nil
}

func (f *fakeBackend) Validate(ctx context.Context, info HostConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.validate
}

func (f *fakeBackend) MediaSource(ctx context.Context, info HostConfig, channelID, _ string) (MediaSource, bool, error) {
	if !strings.HasPrefix(channelID, f.prefix(info.URL)) {
		return MediaSource{}, false, nil
	}
	channels, err := f.Channels(ctx, info)
	if err != nil {
		return MediaSource{}, false, err
	}
	for _, ch := range channels {
		if strings.EqualFold(ch.ID, channelID) {
			return MediaSource{Path: ch.Path, Protocol: ProtocolHTTP, Streams: PlaceholderStreams()}, true, nil
		}
	}
	return MediaSource{}, false, nil
}
