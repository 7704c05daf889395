// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/tunerd/internal/hashutil"
	"github.com/ManuGH/tunerd/internal/tuner"
)

// Validator checks connectivity of one tuner source.
type Validator func(ctx context.Context, info tuner.HostConfig) error

// SourcesChecker validates every enabled tuner source. It is unhealthy when
// all sources fail and degraded when only some fail. Results are reused for
// ttl so that probes do not hammer upstream sources.
type SourcesChecker struct {
	hosts    tuner.HostLister
	validate Validator
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	last    CheckResult
	checked time.Time
}

// NewSourcesChecker creates a checker over the configured hosts.
func NewSourcesChecker(hosts tuner.HostLister, validate Validator, ttl time.Duration) *SourcesChecker {
	return &SourcesChecker{hosts: hosts, validate: validate, ttl: ttl, now: time.Now}
}

func (c *SourcesChecker) Name() string {
	return "sources"
}

func (c *SourcesChecker) Check(ctx context.Context) CheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl > 0 && !c.checked.IsZero() && c.now().Sub(c.checked) < c.ttl {
		return c.last
	}

	var enabled []tuner.HostConfig
	for _, h := range c.hosts.Hosts() {
		if h.Enabled {
			enabled = append(enabled, h)
		}
	}
	if len(enabled) == 0 {
		return CheckResult{Status: StatusDegraded, Message: "no tuner sources configured"}
	}

	errs := make([]error, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, h := range enabled {
		g.Go(func() error {
			errs[i] = c.validate(gctx, h)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	var firstErr error
	var firstSource string
	for i, err := range errs {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
				firstSource = hashutil.MD5Hex(enabled[i].URL)
			}
		}
	}

	var result CheckResult
	switch {
	case failed == 0:
		result = CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d sources reachable", len(enabled))}
	case failed == len(enabled):
		result = CheckResult{
			Status:  StatusUnhealthy,
			Message: "all sources unreachable",
			Error:   fmt.Sprintf("source %s: %v", firstSource, firstErr),
		}
	default:
		result = CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("%d of %d sources unreachable", failed, len(enabled)),
			Error:   fmt.Sprintf("source %s: %v", firstSource, firstErr),
		}
	}

	c.last = result
	c.checked = c.now()
	return result
}

// PingChecker wraps a connectivity probe such as a cache backend ping.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

// NewPingChecker creates a checker that is unhealthy whenever ping fails.
func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string {
	return c.name
}

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
