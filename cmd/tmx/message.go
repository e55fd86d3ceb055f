package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JackMiao999/MCP-TMUX/internal/models"
)

func newSendCmd() *cobra.Command {
	var (
		configPath string
		from       string
		to         string
		content    string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to an agent",
		Long:  "Persists a message for the target agent and attempts best-effort live delivery into its tmux session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			q, _ := buildQueue(cfg, st, from)
			confirmation, err := q.Send(to, content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), confirmation)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&from, "from", "", "sender agent ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient agent ID (required)")
	cmd.Flags().StringVar(&content, "content", "", "message text (required)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("content")
	return cmd
}

func newSendCommandCmd() *cobra.Command {
	var (
		configPath string
		from       string
		to         string
		command    string
		session    string
		window     int
		pane       int
	)

	cmd := &cobra.Command{
		Use:   "send-command",
		Short: "Send a command to an agent",
		Long:  "Like send, but typed as a command. An explicit --session (with optional --window/--pane) overrides the recipient's registered session for delivery.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			var si *models.SessionInfo
			if session != "" {
				si = &models.SessionInfo{Session: session, Window: window}
				if cmd.Flags().Changed("pane") {
					si.Pane = &pane
				}
			}

			q, _ := buildQueue(cfg, st, from)
			confirmation, err := q.SendCommand(to, command, si)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), confirmation)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&from, "from", "", "sender agent ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "recipient agent ID (required)")
	cmd.Flags().StringVar(&command, "command", "", "command text (required)")
	cmd.Flags().StringVar(&session, "session", "", "explicit target session override")
	cmd.Flags().IntVar(&window, "window", 0, "target window index (with --session)")
	cmd.Flags().IntVar(&pane, "pane", 0, "target pane index (with --session)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("command")
	return cmd
}

func newInboxCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "View an agent's incoming messages",
		Long:  "Lists queued messages addressed to the agent, oldest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			q, _ := buildQueue(cfg, st, agentID)
			msgs, err := q.Incoming()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintf(out, "No messages for %s\n", agentID)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFROM\tTYPE\tCONTENT\tTIMESTAMP")
			for _, m := range msgs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					m.ID, m.From, m.Type, truncate(m.Content, 48),
					m.Timestamp.Format("2006-01-02 15:04:05"))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID to check (required)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func newProcessCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process an agent's incoming commands",
		Long:  "Executes every queued command for the agent in timestamp order, replies to each sender, and deletes the processed records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			q, _ := buildQueue(cfg, st, agentID)
			results, err := q.ProcessCommands()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No commands for %s\n", agentID)
				return nil
			}
			for _, r := range results {
				fmt.Fprintln(out, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID whose commands to process (required)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
		with       string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "View message history",
		Long:  "Lists messages the agent sent or received (or, with --with, another agent's conversations), newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.HistoryLimit
			}

			q, _ := buildQueue(cfg, st, agentID)
			msgs, err := q.History(with, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "[%s] %s -> %s (%s): %s\n",
					m.Timestamp.Format("2006-01-02 15:04:05"),
					m.From, m.To, m.Type, m.Content)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID whose history to show (required)")
	cmd.Flags().StringVar(&with, "with", "", "show another agent's conversations instead")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum messages to show (default from config)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func newClearCmd() *cobra.Command {
	var (
		configPath string
		hours      int
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete aged message records",
		Long:  "Deletes every message record whose file modification time is older than the given number of hours.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			if hours <= 0 {
				hours = cfg.ClearAfterHours
			}

			q, _ := buildQueue(cfg, st, "")
			summary, err := q.ClearOld(hours)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVar(&hours, "hours", 0, "age threshold in hours (default from config)")
	return cmd
}

// truncate shortens s for table display.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
