// Package tmux wraps the tmux binary used for live message delivery.
package tmux

// Tmux abstracts the tmux operations the messaging system needs.
type Tmux interface {
	// SessionExists reports whether a session with the given name is
	// live on the tmux server.
	SessionExists(name string) bool
	// SendKeys types text into the target pane or window. With an
	// empty text and pressEnter true it sends the activation
	// keystroke alone.
	SendKeys(target, text string, pressEnter bool) error
	// ListSessions returns the names of all live sessions.
	ListSessions() ([]string, error)
	// DisplayMessage flashes a status-line message in the current
	// session.
	DisplayMessage(text string) error
}

// DefaultTmux is the default tmux implementation used by the package.
// Set to RealTmux{} in tmux_real.go (excluded from test builds via build tag).
var DefaultTmux Tmux = RealTmux{}
