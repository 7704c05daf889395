// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/tunerd/internal/daemon"
	xglog "github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/version"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Serve the merged tuner lineup, media source resolution, M3U export and optional HDHomeRun emulation over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			holder, err := loadHolder(opts)
			if err != nil {
				return err
			}
			cfg := holder.Get()

			logger := xglog.WithComponent("daemon")
			logger.Info().
				Str(xglog.FieldEvent, "daemon.starting").
				Str("version", version.Version).
				Str("config", holder.Path()).
				Str("listen", cfg.API.ListenAddr).
				Msg("starting tunerd")

			rt, err := daemon.NewRuntime(ctx, holder)
			if err != nil {
				return err
			}
			app, err := daemon.NewApp(rt)
			if err != nil {
				_ = rt.Close(ctx)
				return err
			}
			if err := app.Run(ctx); err != nil {
				return err
			}
			logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("tunerd stopped")
			return nil
		},
	}
}
