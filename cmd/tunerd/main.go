// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command tunerd serves M3U tuner lineups over HTTP and offers one-shot
// inspection commands against the same configuration.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/tunerd/internal/config"
	"github.com/ManuGH/tunerd/internal/daemon"
	xglog "github.com/ManuGH/tunerd/internal/log"
	"github.com/ManuGH/tunerd/internal/version"
)

const serviceName = "tunerd"

type rootOptions struct {
	configPath string
	logLevel   string
	logOut     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "M3U tuner host backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Console output belongs to the command; logs go to stderr.
			opts.logOut = cmd.ErrOrStderr()
			xglog.Configure(xglog.Config{
				Level:   opts.logLevel,
				Output:  opts.logOut,
				Service: serviceName,
				Version: version.Version,
			})
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("TUNERD_CONFIG"), "path to config file (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newChannelsCmd(opts),
		newResolveCmd(opts),
		newStatusCmd(opts),
		newValidateCmd(opts),
		newExportCmd(opts),
		newHealthcheckCmd(),
		newVersionCmd(),
	)
	return root
}

// loadHolder loads and validates configuration for a command.
func loadHolder(opts *rootOptions) (*config.Holder, error) {
	loader := config.NewLoader(strings.TrimSpace(opts.configPath), version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel == "" && cfg.LogLevel != "" {
		xglog.Configure(xglog.Config{Level: cfg.LogLevel, Output: opts.logOut, Service: serviceName, Version: version.Version})
	}
	return config.NewHolder(cfg, loader), nil
}

// withRuntime runs fn against a freshly built runtime and releases it afterwards.
func withRuntime(ctx context.Context, opts *rootOptions, fn func(rt *daemon.Runtime) error) (err error) {
	holder, err := loadHolder(opts)
	if err != nil {
		return err
	}
	rt, err := daemon.NewRuntime(ctx, holder)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(rt)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func writeLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
