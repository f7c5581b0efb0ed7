package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/swayctl/internal/config"
	"github.com/danmuck/swayctl/internal/ipc"
	"github.com/danmuck/swayctl/internal/provider"
	"github.com/danmuck/swayctl/internal/watch"
)

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run or stop the event watcher",
	}
	cmd.AddCommand(watchStartCmd(a), watchStopCmd(a))
	return cmd
}

func watchStartCmd(a *app) *cobra.Command {
	var events []string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Subscribe to events and report them until interrupted",
		Long: `Start the watcher. A watcher that is already running is asked to exit
first. Window events are printed as tab separated lines:

  window  <change>  <id>  <app>  <name>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("events") {
				parsed, err := config.ParseEvents(events)
				if err != nil {
					return err
				}
				cfg.Events = parsed
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			socket, err := provider.ResolveSocketPath(ctx, cfg.Provider, cfg.SocketPath, a.runner)
			if err != nil {
				return err
			}
			dial := ipc.DefaultDialConfig()
			dial.ConnectTimeout = cfg.ConnectTimeout
			dial.MaxAttempts = cfg.MaxConnectAttempts

			svc := watch.NewService(watch.Config{
				SocketPath:   socket,
				Events:       cfg.Events,
				CloseTimeout: cfg.CloseTimeout,
				Dial:         dial,
				LockFile:     cfg.LockFile,
				MetricsAddr:  cfg.MetricsAddr,
				Out:          cmd.OutOrStdout(),
			})
			return svc.Run(ctx)
		},
	}
	cmd.Flags().StringSliceVar(&events, "events", nil, "events to subscribe to (default window)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func watchStopCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return watch.Stop(ctx, a.cfg.LockFile)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", watch.DefaultTakeoverTimeout, "how long to wait for the watcher to exit")
	return cmd
}
