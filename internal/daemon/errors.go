// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingConfig is returned when no configuration holder is supplied.
	ErrMissingConfig = errors.New("config holder is required")
	// ErrMissingRuntime is returned when the app is built without a runtime.
	ErrMissingRuntime = errors.New("runtime is required")
)
