// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ManuGH/tunerd/internal/daemon"
	"github.com/ManuGH/tunerd/internal/playlist"
	"github.com/ManuGH/tunerd/internal/tuner"
)

// ErrChannelNotFound is returned by resolve when no backend owns the id.
var ErrChannelNotFound = errors.New("channel not found")

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newChannelsCmd(opts *rootOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List the merged channel lineup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, func(rt *daemon.Runtime) error {
				channels, err := rt.Catalog.Channels(cmd.Context(), !refresh)
				if err != nil {
					return err
				}
				if channels == nil {
					channels = []tuner.Channel{}
				}
				return printJSON(cmd.OutOrStdout(), channels)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the discovery cache")
	return cmd
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var streamID string
	cmd := &cobra.Command{
		Use:   "resolve <channel-id>",
		Short: "Resolve a channel id to a playable media source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, func(rt *daemon.Runtime) error {
				ms, found, err := rt.Catalog.Resolve(cmd.Context(), args[0], streamID)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%w: %s", ErrChannelNotFound, args[0])
				}
				return printJSON(cmd.OutOrStdout(), ms)
			})
		},
	}
	cmd.Flags().StringVar(&streamID, "stream-id", "", "stream id (ignored by the m3u backend)")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured tuner instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, func(rt *daemon.Runtime) error {
				statuses, err := rt.Catalog.Statuses(cmd.Context())
				if err != nil {
					return err
				}
				if statuses == nil {
					statuses = []tuner.TunerStatus{}
				}
				return printJSON(cmd.OutOrStdout(), statuses)
			})
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var url, tunerType string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and check source connectivity",
		Long:  "Load and validate the configuration, then run the connectivity check for every enabled tuner host, or only for --url when given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, func(rt *daemon.Runtime) error {
				out := cmd.OutOrStdout()
				hosts := rt.Holder.Hosts()
				if url != "" {
					hosts = []tuner.HostConfig{{URL: url, Type: tunerType, Enabled: true}}
				}

				var errs []error
				checked := 0
				for _, h := range hosts {
					if !h.Enabled {
						continue
					}
					checked++
					if err := rt.Catalog.Validate(cmd.Context(), h); err != nil {
						writeLine(out, "FAIL %s", err)
						errs = append(errs, err)
						continue
					}
					writeLine(out, "OK   %s %s", h.Type, h.URL)
				}
				if len(errs) > 0 {
					return fmt.Errorf("%d of %d sources failed validation: %w", len(errs), checked, errors.Join(errs...))
				}
				writeLine(out, "configuration valid, %d sources reachable", checked)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "check this listing source instead of the configured hosts")
	cmd.Flags().StringVar(&tunerType, "type", "m3u", "tuner type for --url")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged lineup as an M3U playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, func(rt *daemon.Runtime) error {
				path := out
				if path == "" {
					path = rt.Holder.Get().ExportPath
				}
				if path == "" {
					return errors.New("no output path: pass --out or set exportPath")
				}
				channels, err := rt.Catalog.Channels(cmd.Context(), !refresh)
				if err != nil {
					return err
				}
				n, err := playlist.WriteFile(cmd.Context(), path, channels)
				if err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), "wrote %d channels to %s", n, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to exportPath from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the discovery cache")
	return cmd
}
