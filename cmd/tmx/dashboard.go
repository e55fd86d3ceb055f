package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JackMiao999/MCP-TMUX/internal/dashboard"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve a read-only HTTP view of agents and messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			if port <= 0 {
				port = cfg.DashboardPort
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return dashboard.Start(ctx, dashboard.StartOpts{
				Store:    st,
				Registry: registry.New(st, ""),
				Port:     port,
				Out:      cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from config)")
	return cmd
}
