// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/tunerd/internal/api"
	"github.com/ManuGH/tunerd/internal/api/middleware"
	"github.com/ManuGH/tunerd/internal/config"
	"github.com/ManuGH/tunerd/internal/hdhr"
	"github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/telemetry"
)

const (
	serviceName       = "tunerd"
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// App owns the long-lived runtime lifecycle: the HTTP server, the config
// watcher and reload wiring.
type App struct {
	rt           *Runtime
	server       *http.Server
	logger       zerolog.Logger
	reloadSignal os.Signal
}

// NewApp builds the HTTP surface over rt.
func NewApp(rt *Runtime) (*App, error) {
	if rt == nil {
		return nil, ErrMissingRuntime
	}
	cfg := rt.Holder.Get()

	var hdhrSrv *hdhr.Server
	if cfg.HDHR.Enabled {
		hdhrSrv = hdhr.NewServer(hdhr.Config{
			DeviceID:     cfg.HDHR.DeviceID,
			FriendlyName: cfg.HDHR.FriendlyName,
			TunerCount:   cfg.HDHR.TunerCount,
			BaseURL:      cfg.HDHR.BaseURL,
			Logger:       log.WithComponent("hdhr"),
		}, rt.Catalog)
	}

	stack := middleware.StackConfig{
		EnableMetrics:   cfg.Metrics.Enabled,
		EnableLogging:   true,
		EnableRateLimit: cfg.API.RateLimit.Enabled,
		RateLimit:       cfg.API.RateLimit.Requests,
		RateWindow:      cfg.API.RateLimit.Window,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = serviceName
	}

	srv := api.New(api.Options{
		Catalog: rt.Catalog,
		Health:  rt.Health,
		HDHR:    hdhrSrv,
		Metrics: cfg.Metrics.Enabled,
		Stack:   stack,
	})

	return &App{
		rt: rt,
		server: &http.Server{
			Addr:              cfg.API.ListenAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger:       log.WithComponent("daemon"),
		reloadSignal: syscall.SIGHUP,
	}, nil
}

// Run listens on the configured address and blocks until ctx is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the app on ln. The listener is closed on return.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	cfg := a.rt.Holder.Get()
	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("init telemetry: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: a failing watcher must not stop serving.
	g.Go(func() error {
		if err := a.rt.Holder.Watch(gctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_failed").Msg("config watcher stopped")
		}
		return nil
	})

	reloads := make(chan config.Config, 1)
	a.rt.Holder.RegisterListener(reloads)
	g.Go(func() error {
		prev := cfg
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-reloads:
				a.rt.ApplyReload(gctx, prev, next)
				prev = next
			}
		}
	})

	if a.reloadSignal != nil {
		g.Go(func() error {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, a.reloadSignal)
			defer signal.Stop(hup)
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-hup:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.rt.Holder.Reload(gctx); err != nil {
						a.logger.Warn().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		a.logger.Info().
			Str(log.FieldEvent, "api.server.started").
			Str("addr", ln.Addr().String()).
			Msg("API server listening (HTTP)")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.logger.Info().Str(log.FieldEvent, "api.server.stopping").Msg("shutting down API server")
		return a.server.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := tp.Shutdown(closeCtx); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "telemetry.shutdown_failed").Msg("telemetry shutdown failed")
	}
	return errors.Join(runErr, a.rt.Close(closeCtx))
}
