package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/JackMiao999/MCP-TMUX/internal/dashboard"
	"github.com/JackMiao999/MCP-TMUX/internal/delivery"
	"github.com/JackMiao999/MCP-TMUX/internal/queue"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/tmux"
)

func newDaemonCmd() *cobra.Command {
	var (
		configPath string
		name       string
		session    string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run a registered agent process",
		Long:  "Registers an agent, keeps its heartbeat fresh, processes incoming commands each tick, prunes aged messages hourly, and unregisters on shutdown.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, cmd.OutOrStdout(), configPath, name, session, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&name, "name", "", "agent name (required)")
	cmd.Flags().StringVar(&session, "session", "", "tmux session this agent lives in (required)")
	cmd.Flags().IntVar(&port, "port", 0, "also serve the dashboard on this port (0 = off)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("session")
	return cmd
}

func runDaemon(ctx context.Context, out io.Writer, configPath, name, session string, port int) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	reg := registry.New(st, name)
	confirmation, err := reg.Register(session)
	if err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	fmt.Fprintln(out, confirmation)
	defer func() { fmt.Fprintln(out, reg.Unregister()) }()

	settle := time.Duration(cfg.SettleDelayMS) * time.Millisecond
	bridge := delivery.New(reg, tmux.DefaultTmux, settle)
	q := queue.New(st, reg, bridge)

	interval := time.Duration(cfg.HeartbeatSeconds) * time.Second
	hbDone := reg.StartHeartbeat(ctx, interval)

	// Hourly sweep of aged message records.
	sched := cron.New()
	sched.AddFunc("@hourly", func() {
		summary, err := q.ClearOld(cfg.ClearAfterHours)
		if err != nil {
			log.Printf("daemon: clear old messages: %v", err)
			return
		}
		log.Printf("daemon: %s", summary)
	})
	sched.Start()
	defer sched.Stop()

	if port > 0 {
		go func() {
			if err := dashboard.Start(ctx, dashboard.StartOpts{
				Store:    st,
				Registry: reg,
				Port:     port,
				Out:      out,
			}); err != nil {
				log.Printf("daemon: dashboard: %v", err)
			}
		}()
	}

	fmt.Fprintf(out, "Agent daemon running (heartbeat every %s)...\n", interval)

	seen := make(map[string]bool)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Shutting down...")
			<-hbDone
			return nil
		case <-ticker.C:
			results, err := q.ProcessCommands()
			if err != nil {
				log.Printf("daemon: process commands: %v", err)
			}
			for _, r := range results {
				fmt.Fprintln(out, r)
			}
			notifyNewMessages(q, seen)
		}
	}
}

// notifyNewMessages flashes a tmux status-line notice for queued
// messages this process has not announced yet. Best-effort: errors are
// logged, not returned.
func notifyNewMessages(q *queue.Queue, seen map[string]bool) {
	msgs, err := q.Incoming()
	if err != nil {
		log.Printf("daemon: incoming: %v", err)
		return
	}
	fresh := 0
	for _, m := range msgs {
		if !seen[m.ID] {
			seen[m.ID] = true
			fresh++
		}
	}
	if fresh == 0 || os.Getenv("TMUX") == "" {
		return
	}
	text := fmt.Sprintf("tmx: %d new message(s)", fresh)
	if err := tmux.DefaultTmux.DisplayMessage(text); err != nil {
		log.Printf("daemon: notify: %v", err)
	}
}
