// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/tunerd/internal/tuner"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestNewManager(t *testing.T) {
	m := NewManager("v1.2.3")
	assert.NotNil(t, m)
	assert.Equal(t, "v1.2.3", m.version)
	assert.Empty(t, m.checkers)
}

func TestManager_Health_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)
}

func TestManager_Health_WithCheckers(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, StatusHealthy, resp.Checks["healthy"].Status)
	assert.Equal(t, StatusDegraded, resp.Checks["degraded"].Status)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []Status
		wantReady bool
		want      Status
	}{
		{"no checkers", nil, true, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, true, StatusHealthy},
		{"degraded is ready", []Status{StatusHealthy, StatusDegraded}, true, StatusDegraded},
		{"unhealthy", []Status{StatusDegraded, StatusUnhealthy}, false, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1")
			for i, s := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestManager_ServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))

	assert.Equal(t, http.StatusOK, rec.Code, "liveness is always 200")
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks, "db")
}

func TestManager_ServeReady(t *testing.T) {
	m := NewManager("v1.0.0")
	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	m.RegisterChecker(&mockChecker{name: "sources", status: StatusUnhealthy})
	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
}

func TestSourcesChecker(t *testing.T) {
	hosts := tuner.StaticHosts{
		{URL: "http://a", Type: "m3u", Enabled: true},
		{URL: "http://b", Type: "m3u", Enabled: true},
		{URL: "http://off", Type: "m3u", Enabled: false},
	}
	failing := map[string]bool{}
	validate := func(_ context.Context, info tuner.HostConfig) error {
		if info.URL == "http://off" {
			t.Error("disabled host must not be validated")
		}
		if failing[info.URL] {
			return errors.New("unreachable")
		}
		return nil
	}

	tests := []struct {
		name    string
		failing []string
		want    Status
	}{
		{"all reachable", nil, StatusHealthy},
		{"some failing", []string{"http://a"}, StatusDegraded},
		{"all failing", []string{"http://a", "http://b"}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clear(failing)
			for _, u := range tt.failing {
				failing[u] = true
			}
			c := NewSourcesChecker(hosts, validate, 0)
			res := c.Check(context.Background())
			assert.Equal(t, tt.want, res.Status)
			if tt.want != StatusHealthy {
				assert.Contains(t, res.Error, "unreachable")
			}
		})
	}
}

func TestSourcesChecker_NoHosts(t *testing.T) {
	c := NewSourcesChecker(tuner.StaticHosts{}, func(context.Context, tuner.HostConfig) error { return nil }, 0)
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
	assert.Equal(t, "sources", c.Name())
}

func TestSourcesChecker_CachesResult(t *testing.T) {
	var calls atomic.Int32
	hosts := tuner.StaticHosts{{URL: "http://a", Type: "m3u", Enabled: true}}
	c := NewSourcesChecker(hosts, func(context.Context, tuner.HostConfig) error {
		calls.Add(1)
		return nil
	}, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	c.Check(context.Background())
	c.Check(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Minute)
	c.Check(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("cache", func(context.Context) error { return nil })
	assert.Equal(t, "cache", ok.Name())
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	bad := NewPingChecker("cache", func(context.Context) error { return errors.New("connection refused") })
	res := bad.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "connection refused", res.Error)
}
