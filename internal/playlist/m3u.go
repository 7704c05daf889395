// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package playlist renders merged channel lineups as M3U playlists.
package playlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio/v2"

	xglog "github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/tuner"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func clean(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

// WriteM3U writes channels as "#EXTINF:<number>,<name>" entries followed by
// their path. Entries that could not be read back (no number, no path, or a
// number containing a comma) are skipped. It returns the number written.
func WriteM3U(w io.Writer, channels []tuner.Channel) (int, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("#EXTM3U\n"); err != nil {
		return 0, err
	}

	written := 0
	for _, ch := range channels {
		number := clean(ch.Number)
		path := clean(ch.Path)
		if number == "" || path == "" || strings.HasPrefix(path, "#") || strings.Contains(number, ",") {
			continue
		}
		if _, err := fmt.Fprintf(bw, "#EXTINF:%s,%s\n%s\n", number, clean(ch.Name), path); err != nil {
			return written, err
		}
		written++
	}
	return written, bw.Flush()
}

// WriteFile atomically replaces path with the rendered playlist.
func WriteFile(ctx context.Context, path string, channels []tuner.Channel) (int, error) {
	logger := xglog.FromContext(ctx)

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return 0, fmt.Errorf("create pending M3U file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending M3U file")
		}
	}()

	n, err := WriteM3U(pendingFile, channels)
	if err != nil {
		return 0, fmt.Errorf("write M3U data: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("atomically replace M3U file: %w", err)
	}

	logger.Info().
		Str(xglog.FieldEvent, "playlist.exported").
		Str("path", path).
		Int(xglog.FieldChannels, n).
		Msg("playlist written")
	return n, nil
}
