// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tuner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/tunerd/internal/source"
)

// Deps are the collaborators handed to backend factories.
type Deps struct {
	Opener source.Opener
	Logger zerolog.Logger
}

// Factory constructs a backend from its dependencies.
type Factory func(Deps) Backend

// Registry maps type tags to backend factories. Tags are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Register adds a factory under tag. Registering the same tag twice is an error.
func (r *Registry) Register(tag string, f Factory) error {
	key := normalizeTag(tag)
	if key == "" {
		return fmt.Errorf("register backend: empty type tag")
	}
	if f == nil {
		return fmt.Errorf("register backend %q: nil factory", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("register backend %q: already registered", key)
	}
	r.factories[key] = f
	r.order = append(r.order, key)
	return nil
}

// MustRegister is Register that panics on error. Intended for static wiring.
func (r *Registry) MustRegister(tag string, f Factory) {
	if err := r.Register(tag, f); err != nil {
		panic(err)
	}
}

// New builds the backend registered under tag.
func (r *Registry) New(tag string, deps Deps) (Backend, error) {
	key := normalizeTag(tag)

	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()

	if !ok {
		return nil, &Error{Kind: ErrConfiguration, Op: "new", Type: tag, Err: fmt.Errorf("unknown tuner type %q", tag)}
	}
	return f(deps), nil
}

// Types returns the registered tags in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
