// Package delivery injects queued message text into a target agent's
// live terminal. Delivery is best-effort and layered on top of queue
// persistence: the stored record is never affected by anything that
// happens here.
package delivery

import (
	"fmt"
	"time"

	"github.com/JackMiao999/MCP-TMUX/internal/models"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/tmux"
)

const (
	// DefaultSettleDelay separates the pasted text from the
	// activation keystroke so target-side input handling sees them as
	// two events.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultWindow is the window index used when only a session name
	// is known for the target.
	DefaultWindow = 0
)

// Outcome tags the two-phase result of a send. The record is always
// persisted before delivery is attempted.
type Outcome int

const (
	// Persisted means live delivery was never attempted (no target to
	// deliver to).
	Persisted Outcome = iota
	// PersistedAndDelivered means the text reached the target's terminal.
	PersistedAndDelivered
	// PersistedDeliveryFailed means a delivery attempt was made and failed.
	PersistedDeliveryFailed
)

// Result describes how a send fared after persistence.
type Result struct {
	Outcome Outcome
	Reason  string // set unless delivered
}

// String renders the outcome for inclusion in confirmation messages.
func (r Result) String() string {
	switch r.Outcome {
	case PersistedAndDelivered:
		return "delivered live"
	case PersistedDeliveryFailed:
		return fmt.Sprintf("queued, live delivery failed: %s", r.Reason)
	default:
		return fmt.Sprintf("queued (%s)", r.Reason)
	}
}

// Bridge resolves a message's delivery target and performs the
// two-step terminal injection.
type Bridge struct {
	reg    *registry.Registry
	tmux   tmux.Tmux
	settle time.Duration
}

// New returns a Bridge. A zero settle duration selects
// DefaultSettleDelay; tests pass something smaller.
func New(reg *registry.Registry, t tmux.Tmux, settle time.Duration) *Bridge {
	if t == nil {
		t = tmux.DefaultTmux
	}
	if settle == 0 {
		settle = DefaultSettleDelay
	}
	return &Bridge{reg: reg, tmux: t, settle: settle}
}

// Deliver attempts live injection of msg into its target's terminal.
// Failures are folded into the Result, never returned as errors.
func (b *Bridge) Deliver(msg *models.Message) Result {
	session, target, err := b.resolveTarget(msg)
	if err != nil {
		return Result{Outcome: Persisted, Reason: err.Error()}
	}

	if !b.tmux.SessionExists(session) {
		return Result{
			Outcome: PersistedDeliveryFailed,
			Reason:  fmt.Sprintf("session %q not found", session),
		}
	}

	// Step 1: the raw text, no activation keystroke.
	if err := b.tmux.SendKeys(target, msg.Content, false); err != nil {
		return Result{Outcome: PersistedDeliveryFailed, Reason: err.Error()}
	}

	// Step 2: the activation keystroke alone, after a settle delay,
	// for targets that treat pasted text and Enter as separate input
	// events requiring a gap.
	time.Sleep(b.settle)
	if err := b.tmux.SendKeys(target, "", true); err != nil {
		return Result{Outcome: PersistedDeliveryFailed, Reason: err.Error()}
	}

	return Result{Outcome: PersistedAndDelivered}
}

// resolveTarget picks the delivery location: explicit sessionInfo on
// the message wins, else the recipient's registered session with the
// default window index.
func (b *Bridge) resolveTarget(msg *models.Message) (session, target string, err error) {
	if si := msg.SessionInfo; si != nil {
		if si.Pane != nil {
			return si.Session, fmt.Sprintf("%s:%d.%d", si.Session, si.Window, *si.Pane), nil
		}
		return si.Session, fmt.Sprintf("%s:%d", si.Session, si.Window), nil
	}

	agent, err := b.reg.Info(msg.To)
	if err != nil {
		return "", "", err
	}
	if agent == nil {
		return "", "", fmt.Errorf("recipient %s not registered", msg.To)
	}
	if agent.Session == "" {
		return "", "", fmt.Errorf("recipient %s has no session", msg.To)
	}
	return agent.Session, fmt.Sprintf("%s:%d", agent.Session, DefaultWindow), nil
}
