//go:build unittest

package tmux

// RealTmux is a no-op stub used during unit testing (build tag: unittest).
// The real implementation is in tmux_real.go.
type RealTmux struct{}

func (RealTmux) SessionExists(name string) bool { return false }

func (RealTmux) SendKeys(target, text string, pressEnter bool) error { return nil }

func (RealTmux) ListSessions() ([]string, error) { return nil, nil }

func (RealTmux) DisplayMessage(text string) error { return nil }
