// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tuner

import (
	"context"
	"fmt"
	"strings"
)

// HostLister yields the currently configured tuner instances.
type HostLister interface {
	Hosts() []HostConfig
}

// HostListerFunc adapts a function to HostLister.
type HostListerFunc func() []HostConfig

// Hosts calls f.
func (f HostListerFunc) Hosts() []HostConfig { return f() }

// StaticHosts is a fixed HostLister.
type StaticHosts []HostConfig

// Hosts returns the fixed list.
func (s StaticHosts) Hosts() []HostConfig { return s }

// Catalog merges every registered backend into one consumer view.
type Catalog struct {
	hosts  []*Host
	lister HostLister
}

// NewCatalog builds a catalog over hosts, in the given order.
func NewCatalog(lister HostLister, hosts ...*Host) *Catalog {
	return &Catalog{hosts: hosts, lister: lister}
}

// BuildCatalog instantiates one Host per registered type, in registration order.
func BuildCatalog(reg *Registry, deps Deps, opts HostOptions, lister HostLister) (*Catalog, error) {
	var hosts []*Host
	for _, tag := range reg.Types() {
		backend, err := reg.New(tag, deps)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, NewHost(backend, opts))
	}
	return NewCatalog(lister, hosts...), nil
}

// Host returns the host for tunerType, or nil if none is registered.
func (c *Catalog) Host(tunerType string) *Host {
	for _, h := range c.hosts {
		if strings.EqualFold(h.Type(), tunerType) {
			return h
		}
	}
	return nil
}

// Types lists the backend types served by the catalog.
func (c *Catalog) Types() []string {
	out := make([]string, 0, len(c.hosts))
	for _, h := range c.hosts {
		out = append(out, h.Type())
	}
	return out
}

// Hosts returns the configured tuner instances.
func (c *Catalog) Hosts() []HostConfig {
	if c.lister == nil {
		return nil
	}
	return c.lister.Hosts()
}

// Channels returns the merged lineup of every backend in registration order.
func (c *Catalog) Channels(ctx context.Context, useCache bool) ([]Channel, error) {
	configured := c.Hosts()
	var out []Channel
	for _, h := range c.hosts {
		channels, err := h.Discover(ctx, configured, useCache)
		if err != nil {
			return nil, err
		}
		out = append(out, channels...)
	}
	return out, nil
}

// Resolve probes each backend that owns channelID. Not found from one backend
// is the normal probing outcome.
func (c *Catalog) Resolve(ctx context.Context, channelID, streamID string) (MediaSource, bool, error) {
	configured := c.Hosts()
	for _, h := range c.hosts {
		if !h.Backend().OwnsChannel(channelID) {
			continue
		}
		ms, found, err := h.Resolve(ctx, configured, channelID, streamID)
		if err != nil {
			return MediaSource{}, false, err
		}
		if found {
			return ms, true, nil
		}
	}
	return MediaSource{}, false, nil
}

// Statuses returns status records for every configured, enabled instance.
func (c *Catalog) Statuses(ctx context.Context) ([]TunerStatus, error) {
	configured := c.Hosts()
	var out []TunerStatus
	for _, h := range c.hosts {
		statuses, err := h.StatusInfos(ctx, configured)
		if err != nil {
			return nil, err
		}
		out = append(out, statuses...)
	}
	return out, nil
}

// Validate runs the connectivity check for info using the backend of info.Type.
func (c *Catalog) Validate(ctx context.Context, info HostConfig) error {
	h := c.Host(info.Type)
	if h == nil {
		return &Error{
			Kind: ErrConfiguration,
			Op:   "validate",
			Type: info.Type,
			URL:  info.URL,
			Err:  fmt.Errorf("unknown tuner type %q", info.Type),
		}
	}
	return h.Validate(ctx, info)
}
