package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JackMiao999/MCP-TMUX/internal/config"
	"github.com/JackMiao999/MCP-TMUX/internal/models"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/store"
	"github.com/JackMiao999/MCP-TMUX/internal/tmux"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system prerequisites and configuration",
		Long:  "Runs diagnostic checks on tmx prerequisites: config, the tmux binary, live sessions, and the shared record store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "tmx Doctor")
	fmt.Fprintln(out, "==========")

	var results []checkResult

	// 1. Config
	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	// 2. tmux binary
	results = append(results, checkTmuxBinary())

	// 3. Live sessions
	results = append(results, checkSessions())

	// 4. Record store
	results = append(results, checkStore(cfg)...)

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), checkResult{"Config file", "WARN", fmt.Sprintf("%s not found, using defaults", path)}
	}
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkTmuxBinary() checkResult {
	path, err := exec.LookPath("tmux")
	if err != nil {
		return checkResult{"tmux binary", "FAIL", "not found in PATH"}
	}
	out, err := exec.Command(path, "-V").Output()
	if err != nil {
		return checkResult{"tmux binary", "PASS", "found (version unknown)"}
	}
	return checkResult{"tmux binary", "PASS", strings.TrimSpace(string(out))}
}

func checkSessions() checkResult {
	sessions, err := tmux.DefaultTmux.ListSessions()
	if err != nil {
		return checkResult{"tmux sessions", "WARN", "no tmux server running (live delivery unavailable)"}
	}
	if len(sessions) == 0 {
		return checkResult{"tmux sessions", "WARN", "no live sessions"}
	}
	return checkResult{"tmux sessions", "PASS", strings.Join(sessions, ", ")}
}

func checkStore(cfg *config.Config) []checkResult {
	if cfg == nil {
		return []checkResult{{"Record store", "FAIL", "skipped (no config)"}}
	}

	st := store.New(cfg.BaseDir)
	var results []checkResult

	// Writability: touch and remove a probe file.
	dir, err := st.Dir(store.Agents)
	if err != nil {
		return append(results, checkResult{"Record store", "FAIL", err.Error()})
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return append(results, checkResult{"Record store", "FAIL", fmt.Sprintf("%s not writable: %v", cfg.BaseDir, err)})
	}
	os.Remove(probe)
	results = append(results, checkResult{"Record store", "PASS", cfg.BaseDir})

	// Registered agents.
	reg := registry.New(st, "")
	agents, err := reg.ListActive()
	if err != nil {
		results = append(results, checkResult{"Agents", "FAIL", err.Error()})
		return results
	}
	online := 0
	for _, a := range agents {
		if a.Status == models.StatusOnline {
			online++
		}
	}
	results = append(results, checkResult{"Agents", "PASS", fmt.Sprintf("%d registered, %d online", len(agents), online)})
	return results
}
