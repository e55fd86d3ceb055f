package models

import "time"

// MessageType classifies a message record.
type MessageType string

const (
	TypeCommand  MessageType = "command"
	TypeMessage  MessageType = "message"
	TypeResponse MessageType = "response"
)

// SessionInfo is an explicit delivery target override, carried only by
// command sends. When Pane is nil the target resolves to a window.
type SessionInfo struct {
	Session string `json:"session"`
	Window  int    `json:"window,omitempty"`
	Pane    *int   `json:"pane,omitempty"`
}

// Message represents one directed unit of agent-to-agent communication.
// Records are immutable once written; the only mutation is deletion.
type Message struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Type        MessageType  `json:"type"`
	Content     string       `json:"content"`
	Timestamp   time.Time    `json:"timestamp"`
	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
}
