//go:build !unittest

package tmux

import (
	"fmt"
	"os/exec"
	"strings"
)

// RealTmux is the production implementation that calls the real tmux binary.
type RealTmux struct{}

func (RealTmux) SessionExists(name string) bool {
	cmd := exec.Command("tmux", "has-session", "-t", name)
	return cmd.Run() == nil
}

func (RealTmux) SendKeys(target, text string, pressEnter bool) error {
	args := []string{"send-keys", "-t", target}
	if text != "" {
		args = append(args, text)
	}
	if pressEnter {
		args = append(args, "Enter")
	}
	cmd := exec.Command("tmux", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("send keys to %q: %s: %w", target, strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (RealTmux) ListSessions() ([]string, error) {
	cmd := exec.Command("tmux", "list-sessions", "-F", "#{session_name}")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %s: %w", strings.TrimSpace(string(out)), err)
	}
	var sessions []string
	for _, l := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			sessions = append(sessions, l)
		}
	}
	return sessions, nil
}

func (RealTmux) DisplayMessage(text string) error {
	cmd := exec.Command("tmux", "display-message", text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("display message: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}
