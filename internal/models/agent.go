// Package models defines the persisted record shapes shared across the system.
package models

import "time"

// AgentStatus is the derived liveness of an agent.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "online"
	StatusOffline AgentStatus = "offline"
)

// StalenessThreshold is how long an agent may go without a heartbeat
// before it is reported offline.
const StalenessThreshold = 5 * time.Minute

// Agent represents one registered agent instance. The Status field is
// persisted for convenience but is never authoritative; readers must
// recompute it from LastSeen via StatusOf.
type Agent struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Session  string      `json:"session"`
	LastSeen time.Time   `json:"lastSeen"`
	Status   AgentStatus `json:"status"`
}

// StatusOf derives liveness from a heartbeat timestamp.
func StatusOf(lastSeen, now time.Time) AgentStatus {
	if now.Sub(lastSeen) < StalenessThreshold {
		return StatusOnline
	}
	return StatusOffline
}
