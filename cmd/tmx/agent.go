package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JackMiao999/MCP-TMUX/internal/registry"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Presence registry commands",
	}

	cmd.AddCommand(newAgentRegisterCmd())
	cmd.AddCommand(newAgentUnregisterCmd())
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentInfoCmd())
	return cmd
}

func newAgentRegisterCmd() *cobra.Command {
	var (
		configPath string
		name       string
		session    string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an agent in the presence registry",
		Long:  "Creates an agent record with a generated identity, marked online, associated with a tmux session.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			reg := registry.New(st, name)
			confirmation, err := reg.Register(session)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), confirmation)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&name, "name", "", "human-readable agent name (required)")
	cmd.Flags().StringVar(&session, "session", "", "tmux session this agent lives in (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("session")
	return cmd
}

func newAgentUnregisterCmd() *cobra.Command {
	var (
		configPath string
		agentID    string
	)

	cmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove an agent's record from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			reg := registry.New(st, "")
			reg.Bind(agentID)
			fmt.Fprintln(cmd.OutOrStdout(), reg.Unregister())
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&agentID, "agent", "", "agent ID to unregister (required)")
	cmd.MarkFlagRequired("agent")
	return cmd
}

func newAgentListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered agents with computed status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			reg := registry.New(st, "")
			agents, err := reg.ListActive()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(agents) == 0 {
				fmt.Fprintln(out, "No agents registered")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSESSION\tSTATUS\tLAST SEEN")
			for _, a := range agents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.ID, a.Name, a.Session, a.Status,
					a.LastSeen.Format("2006-01-02 15:04:05"))
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func newAgentInfoCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "info <agent-id>",
		Short: "Show one agent's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}

			reg := registry.New(st, "")
			agent, err := reg.Info(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if agent == nil {
				fmt.Fprintf(out, "Agent %s not found\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "ID:        %s\n", agent.ID)
			fmt.Fprintf(out, "Name:      %s\n", agent.Name)
			fmt.Fprintf(out, "Session:   %s\n", agent.Session)
			fmt.Fprintf(out, "Status:    %s\n", agent.Status)
			fmt.Fprintf(out, "Last seen: %s\n", agent.LastSeen.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}
