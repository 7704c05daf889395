// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileOpener opens listing sources from the local filesystem.
type FileOpener struct{}

// NewFileOpener returns a FileOpener.
func NewFileOpener() *FileOpener { return &FileOpener{} }

// Open implements Opener for bare paths and file:// URLs.
func (FileOpener) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := filePath(rawURL)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- listing source paths are provided by the operator via config
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, path, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnavailable, path)
	}
	return &ctxReadCloser{ctx: ctx, rc: f}, nil
}

// ctxReadCloser stops yielding data once ctx is done, so a cancelled
// discovery does not keep reading a large local file.
type ctxReadCloser struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *ctxReadCloser) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *ctxReadCloser) Close() error { return r.rc.Close() }

func filePath(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsupportedURL)
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "file://") {
		return filepath.Clean(trimmed), nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	p := u.Path
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: remote file host %q", ErrUnsupportedURL, u.Host)
	}
	if p == "" {
		return "", fmt.Errorf("%w: empty file path", ErrUnsupportedURL)
	}
	return filepath.FromSlash(p), nil
}
