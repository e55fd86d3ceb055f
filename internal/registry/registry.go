// Package registry tracks agent presence records and derives liveness
// from heartbeat timestamps.
package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JackMiao999/MCP-TMUX/internal/models"
	"github.com/JackMiao999/MCP-TMUX/internal/store"
)

// Registry manages agent records in the shared store plus the local
// process's own identity.
type Registry struct {
	store   *store.Store
	id      string
	name    string
	session string
}

// New returns a Registry with no local identity. Register or Bind
// establishes one.
func New(st *store.Store, name string) *Registry {
	return &Registry{store: st, name: name}
}

// LocalID returns the local agent's identifier, empty until Register
// or Bind.
func (r *Registry) LocalID() string { return r.id }

// LocalName returns the human-assigned label of the local agent.
func (r *Registry) LocalName() string { return r.name }

// Session returns the terminal session the local agent registered with.
func (r *Registry) Session() string { return r.session }

// Bind adopts an existing agent id as the local identity without
// touching the store. Used by one-shot commands acting on behalf of an
// already-registered agent.
func (r *Registry) Bind(id string) {
	r.id = id
}

// Register creates the local agent's record with a fresh identifier
// and returns a confirmation describing it.
func (r *Registry) Register(session string) (string, error) {
	if session == "" {
		return "", fmt.Errorf("registry: session is required")
	}

	id := "agent-" + strings.Split(uuid.NewString(), "-")[0]
	agent := models.Agent{
		ID:       id,
		Name:     r.name,
		Session:  session,
		LastSeen: time.Now(),
		Status:   models.StatusOnline,
	}
	if err := r.store.Put(store.Agents, id, &agent); err != nil {
		return "", fmt.Errorf("registry: register: %w", err)
	}

	r.id = id
	r.session = session
	return fmt.Sprintf("Registered agent %q with ID %s in session %q", r.name, id, session), nil
}

// Unregister deletes the local agent's record. Failure is reported in
// the returned message rather than as an error, and unregistering an
// already-missing record is not fatal.
func (r *Registry) Unregister() string {
	if r.id == "" {
		return "No agent registered"
	}

	var existing models.Agent
	ok, err := r.store.Get(store.Agents, r.id, &existing)
	if err == nil && !ok {
		return fmt.Sprintf("Agent %s was not registered", r.id)
	}
	if err := r.store.Delete(store.Agents, r.id); err != nil {
		return fmt.Sprintf("Failed to unregister agent %s: %v", r.id, err)
	}
	return fmt.Sprintf("Unregistered agent %s", r.id)
}

// ListActive returns every agent record with a freshly computed
// status. Stale records are included, marked offline, until explicitly
// removed. Order follows directory enumeration.
func (r *Registry) ListActive() ([]models.Agent, error) {
	agents, err := store.ListAll[models.Agent](r.store, store.Agents)
	if err != nil {
		return nil, fmt.Errorf("registry: list agents: %w", err)
	}
	now := time.Now()
	for i := range agents {
		agents[i].Status = models.StatusOf(agents[i].LastSeen, now)
	}
	return agents, nil
}

// Info returns the record for one agent, status recomputed, or nil
// when the agent is unknown.
func (r *Registry) Info(id string) (*models.Agent, error) {
	var agent models.Agent
	ok, err := r.store.Get(store.Agents, id, &agent)
	if err != nil {
		return nil, fmt.Errorf("registry: info %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	agent.Status = models.StatusOf(agent.LastSeen, time.Now())
	return &agent, nil
}

// Heartbeat bumps the local agent's lastSeen timestamp. A missing
// record is a no-op: re-registration is deliberately not attempted.
func (r *Registry) Heartbeat() error {
	if r.id == "" {
		return nil
	}

	var agent models.Agent
	ok, err := r.store.Get(store.Agents, r.id, &agent)
	if err != nil {
		return fmt.Errorf("registry: heartbeat %s: %w", r.id, err)
	}
	if !ok {
		return nil
	}

	agent.LastSeen = time.Now()
	agent.Status = models.StatusOnline
	if err := r.store.Put(store.Agents, r.id, &agent); err != nil {
		return fmt.Errorf("registry: heartbeat %s: %w", r.id, err)
	}
	return nil
}
