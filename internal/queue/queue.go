// Package queue provides durable directed messaging between agents.
// Records are persisted first; live delivery into the recipient's
// terminal is layered on top and never blocks a send from succeeding.
package queue

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/JackMiao999/MCP-TMUX/internal/delivery"
	"github.com/JackMiao999/MCP-TMUX/internal/models"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/store"
)

const (
	// DefaultHistoryLimit caps History results when no limit is given.
	DefaultHistoryLimit = 50

	// DefaultClearHours is the age past which ClearOld prunes records.
	DefaultClearHours = 24
)

// Queue persists and retrieves messages for the local agent.
type Queue struct {
	store  *store.Store
	reg    *registry.Registry
	bridge *delivery.Bridge
}

// New returns a Queue bound to the local agent's registry identity.
func New(st *store.Store, reg *registry.Registry, bridge *delivery.Bridge) *Queue {
	return &Queue{store: st, reg: reg, bridge: bridge}
}

// Send persists a message to the target agent and attempts live
// delivery. Persistence failure is a hard error; delivery failure is
// reported in the confirmation string only.
func (q *Queue) Send(to, content string) (string, error) {
	return q.send(to, content, models.TypeMessage, nil)
}

// SendCommand is Send with type=command. An explicit sessionInfo, if
// given, takes precedence over the recipient's registered session for
// delivery targeting.
func (q *Queue) SendCommand(to, command string, si *models.SessionInfo) (string, error) {
	return q.send(to, command, models.TypeCommand, si)
}

func (q *Queue) send(to, content string, typ models.MessageType, si *models.SessionInfo) (string, error) {
	if to == "" {
		return "", fmt.Errorf("queue: to is required")
	}
	if content == "" {
		return "", fmt.Errorf("queue: content is required")
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		From:        q.reg.LocalID(),
		To:          to,
		Type:        typ,
		Content:     content,
		Timestamp:   time.Now(),
		SessionInfo: si,
	}
	if err := q.store.Put(store.Messages, msg.ID, &msg); err != nil {
		return "", fmt.Errorf("queue: send: %w", err)
	}

	res := q.bridge.Deliver(&msg)
	return fmt.Sprintf("Sent %s %s to %s: %s", typ, msg.ID, to, res), nil
}

// Incoming returns every queued message addressed to the local agent,
// ascending by timestamp. Receivers rely on this delivery order.
func (q *Queue) Incoming() ([]models.Message, error) {
	msgs, err := store.ListAll[models.Message](q.store, store.Messages)
	if err != nil {
		return nil, fmt.Errorf("queue: incoming: %w", err)
	}

	var mine []models.Message
	for _, m := range msgs {
		if m.To == q.reg.LocalID() {
			mine = append(mine, m)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].Timestamp.Before(mine[j].Timestamp)
	})
	return mine, nil
}

// ProcessCommands handles every incoming command in timestamp order:
// execute, reply to the sender with a response message, delete the
// processed record. One failing command is recorded in the results and
// does not stop the batch. Non-command messages are left untouched.
func (q *Queue) ProcessCommands() ([]string, error) {
	msgs, err := q.Incoming()
	if err != nil {
		return nil, err
	}

	var results []string
	for i := range msgs {
		m := &msgs[i]
		if m.Type != models.TypeCommand {
			continue
		}
		result, err := q.processCommand(m)
		if err != nil {
			results = append(results, fmt.Sprintf("Failed to process command %s from %s: %v", m.ID, m.From, err))
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (q *Queue) processCommand(m *models.Message) (string, error) {
	// Command execution itself is an external collaborator concern;
	// record what was requested and acknowledge the sender.
	outcome := fmt.Sprintf("Executed command from %s: %s", m.From, m.Content)

	if _, err := q.send(m.From, outcome, models.TypeResponse, nil); err != nil {
		return "", err
	}
	if err := q.store.Delete(store.Messages, m.ID); err != nil {
		return "", err
	}
	return outcome, nil
}

// History returns messages involving targetID, or the local agent when
// targetID is empty, newest first, truncated to limit (default 50).
func (q *Queue) History(targetID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	who := targetID
	if who == "" {
		who = q.reg.LocalID()
	}

	msgs, err := store.ListAll[models.Message](q.store, store.Messages)
	if err != nil {
		return nil, fmt.Errorf("queue: history: %w", err)
	}

	var involved []models.Message
	for _, m := range msgs {
		if m.From == who || m.To == who {
			involved = append(involved, m)
		}
	}
	sort.Slice(involved, func(i, j int) bool {
		return involved[i].Timestamp.After(involved[j].Timestamp)
	})
	if len(involved) > limit {
		involved = involved[:limit]
	}
	return involved, nil
}

// ClearOld deletes message records whose file modification time
// predates the cutoff. Ages by mtime rather than the record's own
// timestamp field; the two normally coincide.
func (q *Queue) ClearOld(hours int) (string, error) {
	if hours <= 0 {
		hours = DefaultClearHours
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	n, err := q.store.PruneOlderThan(store.Messages, cutoff)
	if err != nil {
		return "", fmt.Errorf("queue: clear old: %w", err)
	}
	return fmt.Sprintf("Cleared %d message(s) older than %d hour(s)", n, hours), nil
}
