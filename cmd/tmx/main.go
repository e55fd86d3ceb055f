package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JackMiao999/MCP-TMUX/internal/config"
	"github.com/JackMiao999/MCP-TMUX/internal/delivery"
	"github.com/JackMiao999/MCP-TMUX/internal/queue"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/store"
	"github.com/JackMiao999/MCP-TMUX/internal/tmux"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "tmx.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tmx",
		Short: "tmx — filesystem-backed presence and messaging for tmux agents",
		Long:  "tmx lets independent agent processes discover each other, exchange messages and commands, and deliver text straight into each other's tmux panes.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAgentCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newSendCommandCmd())
	cmd.AddCommand(newInboxCmd())
	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newDoctorCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tmx %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig reads the config file at path, falling back to pure
// defaults when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore resolves configuration and the record store shared by
// every command.
func openStore(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store.New(cfg.BaseDir), nil
}

// buildQueue wires a message queue acting on behalf of agentID.
func buildQueue(cfg *config.Config, st *store.Store, agentID string) (*queue.Queue, *registry.Registry) {
	reg := registry.New(st, "")
	if agentID != "" {
		reg.Bind(agentID)
	}
	settle := time.Duration(cfg.SettleDelayMS) * time.Millisecond
	bridge := delivery.New(reg, tmux.DefaultTmux, settle)
	return queue.New(st, reg, bridge), reg
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
