// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package m3u

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/metrics"
	"github.com/ManuGH/tunerd/internal/tuner"
)

// MaxLineSize bounds a single playlist line. Longer lines are skipped.
const MaxLineSize = 1 << 20

const (
	readBufferSize = 64 * 1024
	headSize       = 256
)

const (
	headerTag = "#EXTM3U"
	extinfTag = "#EXTINF:"
)

// Reasons a playlist line is dropped.
const (
	DropMalformedExtinf = "malformed_extinf"
	DropMissingNumber   = "missing_number"
	DropOrphanPath      = "orphan_path"
	DropOverwritten     = "overwritten_extinf"
	DropDangling        = "dangling_extinf"
	DropLineTooLong     = "line_too_long"
)

type parseState int

const (
	stateIdle parseState = iota
	statePendingMetadata
)

type pending struct {
	number string
	name   string
	line   int
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// splitExtinf extracts (number, name) from "#EXTINF:<number>,<name>".
func splitExtinf(line string) (number, name string, ok bool) {
	_, rest, _ := strings.Cut(line, ":")
	number, name, ok = strings.Cut(rest, ",")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(number), strings.TrimSpace(name), true
}

// lineReader yields playlist lines of any length. Content past MaxLineSize
// is discarded; only the leading headSize bytes of such a line are kept.
type lineReader struct {
	br  *bufio.Reader
	buf []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, readBufferSize)}
}

// next returns the next line without its terminator. tooLong reports that
// the line exceeded MaxLineSize, in which case line holds only its head.
// It returns io.EOF once input is exhausted.
func (lr *lineReader) next() (line string, tooLong bool, err error) {
	lr.buf = lr.buf[:0]
	var head []byte
	read := false
	for {
		chunk, err := lr.br.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		if !tooLong {
			lr.buf = append(lr.buf, chunk...)
			if len(lr.buf) > MaxLineSize+1 {
				tooLong = true
				head = append(head, lr.buf[:headSize]...)
				lr.buf = lr.buf[:0]
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil, errors.Is(err, io.EOF) && read:
			if tooLong {
				return string(head), true, nil
			}
			line = strings.TrimSuffix(string(lr.buf), "\n")
			if len(line) > MaxLineSize {
				return line[:headSize], true, nil
			}
			return line, false, nil
		default:
			return "", false, err
		}
	}
}

// Parse reads an M3U playlist and returns its channels in playlist order.
// Each channel ID is idPrefix followed by its number. Malformed entries are
// dropped and logged, never returned as errors. Only read failures and
// context cancellation produce an error.
func Parse(ctx context.Context, r io.Reader, idPrefix string, logger zerolog.Logger) ([]tuner.Channel, error) {
	lr := newLineReader(r)

	var (
		channels []tuner.Channel
		state    = stateIdle
		meta     pending
		lineNo   int
	)

	drop := func(reason string, line int) {
		metrics.IncDroppedLine(Type, reason)
		logger.Debug().
			Str(log.FieldEvent, "m3u.line.dropped").
			Str(log.FieldReason, reason).
			Int(log.FieldLine, line).
			Msg("playlist line dropped")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, tooLong, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read playlist: %w", err)
		}
		lineNo++
		line := strings.TrimSpace(raw)

		if tooLong {
			logger.Warn().
				Str(log.FieldEvent, "m3u.line.too_long").
				Int(log.FieldLine, lineNo).
				Int("max_bytes", MaxLineSize).
				Msg("playlist line exceeds size limit")
			drop(DropLineTooLong, lineNo)
			// An oversized EXTINF or path still ends the pending entry.
			switch {
			case hasPrefixFold(line, extinfTag):
				if state == statePendingMetadata {
					drop(DropOverwritten, meta.line)
				}
				state, meta = stateIdle, pending{}
			case !strings.HasPrefix(line, "#"):
				state, meta = stateIdle, pending{}
			}
			continue
		}

		switch {
		case line == "", hasPrefixFold(line, headerTag):
			continue

		case hasPrefixFold(line, extinfTag):
			if state == statePendingMetadata {
				drop(DropOverwritten, meta.line)
			}
			number, name, ok := splitExtinf(line)
			if !ok {
				logger.Warn().
					Str(log.FieldEvent, "m3u.extinf.malformed").
					Int(log.FieldLine, lineNo).
					Msg("EXTINF line without channel name separator")
				drop(DropMalformedExtinf, lineNo)
				state, meta = stateIdle, pending{}
				continue
			}
			state, meta = statePendingMetadata, pending{number: number, name: name, line: lineNo}

		case strings.HasPrefix(line, "#"):
			continue

		case state == statePendingMetadata:
			if meta.number == "" {
				drop(DropMissingNumber, meta.line)
			} else {
				channels = append(channels, tuner.Channel{
					ID:     idPrefix + meta.number,
					Name:   meta.name,
					Number: meta.number,
					Path:   line,
				})
			}
			state, meta = stateIdle, pending{}

		default:
			drop(DropOrphanPath, lineNo)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state == statePendingMetadata {
		drop(DropDangling, meta.line)
	}
	return channels, nil
}
