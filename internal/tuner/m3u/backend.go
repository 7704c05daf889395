// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package m3u implements the M3U playlist tuner backend.
package m3u

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/tunerd/internal/hashutil"
	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/source"
	"github.com/ManuGH/tunerd/internal/tuner"
)

const (
	// Type is the registry tag of this backend.
	Type = "m3u"
	// Name is the display name used in status records.
	Name = "M3U Tuner"
	// ChannelIDPrefix starts every channel id produced by this backend.
	ChannelIDPrefix = "m3u_"
)

// Backend reads channel lineups from M3U playlists.
type Backend struct {
	opener source.Opener
	logger zerolog.Logger
}

var _ tuner.Backend = (*Backend)(nil)

// New returns an M3U backend reading sources through opener.
func New(opener source.Opener, logger zerolog.Logger) *Backend {
	return &Backend{
		opener: opener,
		logger: logger.With().Str(log.FieldComponent, "m3u").Logger(),
	}
}

// Factory adapts New to the tuner registry.
func Factory(deps tuner.Deps) tuner.Backend {
	return New(deps.Opener, deps.Logger)
}

// Register adds the M3U backend to reg.
func Register(reg *tuner.Registry) error {
	return reg.Register(Type, Factory)
}

// NamespacePrefix is the id prefix for channels of one playlist URL.
func NamespacePrefix(url string) string {
	return ChannelIDPrefix + hashutil.MD5Hex(url)
}

func (b *Backend) Type() string { return Type }
func (b *Backend) Name() string { return Name }

// OwnsChannel reports whether channelID was produced by an M3U source.
func (b *Backend) OwnsChannel(channelID string) bool {
	return hasPrefixFold(channelID, ChannelIDPrefix)
}

// Channels reads and parses the playlist at info.URL.
func (b *Backend) Channels(ctx context.Context, info tuner.HostConfig) ([]tuner.Channel, error) {
	rc, err := b.opener.Open(ctx, info.URL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	logger := b.logger.With().Str(log.FieldSourceID, hashutil.MD5Hex(info.URL)).Logger()
	return Parse(ctx, rc, NamespacePrefix(info.URL), logger)
}

// Validate opens the playlist and closes it unread.
func (b *Backend) Validate(ctx context.Context, info tuner.HostConfig) error {
	rc, err := b.opener.Open(ctx, info.URL)
	if err != nil {
		return err
	}
	if err := rc.Close(); err != nil {
		return fmt.Errorf("close playlist: %w", err)
	}
	return nil
}

// MediaSource resolves channelID against the playlist of info. Ids outside
// this source's namespace are not found without any I/O. streamID is unused;
// one stream per channel is modeled.
func (b *Backend) MediaSource(ctx context.Context, info tuner.HostConfig, channelID, _ string) (tuner.MediaSource, bool, error) {
	if !hasPrefixFold(channelID, NamespacePrefix(info.URL)) {
		return tuner.MediaSource{}, false, nil
	}

	channels, err := b.Channels(ctx, info)
	if err != nil {
		return tuner.MediaSource{}, false, err
	}

	for _, ch := range channels {
		if strings.EqualFold(ch.ID, channelID) {
			return tuner.MediaSource{
				Path:            ch.Path,
				Protocol:        DetectProtocol(ch.Path),
				Streams:         tuner.PlaceholderStreams(),
				RequiresOpening: false,
				RequiresClosing: false,
			}, true, nil
		}
	}
	return tuner.MediaSource{}, false, nil
}
