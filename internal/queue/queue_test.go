package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JackMiao999/MCP-TMUX/internal/delivery"
	"github.com/JackMiao999/MCP-TMUX/internal/models"
	"github.com/JackMiao999/MCP-TMUX/internal/registry"
	"github.com/JackMiao999/MCP-TMUX/internal/store"
)

// ---------------------------------------------------------------------------
// mockTmux — minimal test double for the tmux.Tmux interface
// ---------------------------------------------------------------------------

type mockTmux struct {
	sessionExists bool
	sent          int
}

func (m *mockTmux) SessionExists(name string) bool { return m.sessionExists }

func (m *mockTmux) SendKeys(target, text string, pressEnter bool) error {
	m.sent++
	return nil
}

func (m *mockTmux) ListSessions() ([]string, error) { return nil, nil }

func (m *mockTmux) DisplayMessage(text string) error { return nil }

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// newTestAgent registers an agent named name and returns a queue bound
// to its identity, sharing the given store.
func newTestAgent(t *testing.T, st *store.Store, name string) (*Queue, *registry.Registry) {
	t.Helper()
	reg := registry.New(st, name)
	if _, err := reg.Register("work"); err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
	bridge := delivery.New(reg, &mockTmux{sessionExists: true}, time.Millisecond)
	return New(st, reg, bridge), reg
}

// putMessage writes a message record directly, bypassing Send, so
// tests can control timestamps.
func putMessage(t *testing.T, st *store.Store, m models.Message) {
	t.Helper()
	if err := st.Put(store.Messages, m.ID, &m); err != nil {
		t.Fatalf("Put %s: %v", m.ID, err)
	}
}

// --- Send ---

func TestSend_PersistsRetrievableMessage(t *testing.T) {
	st := store.New(t.TempDir())
	sender, senderReg := newTestAgent(t, st, "sender")
	receiver, receiverReg := newTestAgent(t, st, "receiver")

	confirmation, err := sender.Send(receiverReg.LocalID(), "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(confirmation, receiverReg.LocalID()) {
		t.Errorf("confirmation %q does not mention recipient", confirmation)
	}

	msgs, err := receiver.Incoming()
	if err != nil {
		t.Fatalf("Incoming: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("receiver sees %d messages, want 1", len(msgs))
	}
	got := msgs[0]
	if got.From != senderReg.LocalID() || got.To != receiverReg.LocalID() ||
		got.Type != models.TypeMessage || got.Content != "hello" {
		t.Errorf("message = %+v", got)
	}
}

func TestSend_Validation(t *testing.T) {
	st := store.New(t.TempDir())
	q, _ := newTestAgent(t, st, "sender")

	if _, err := q.Send("", "hi"); err == nil {
		t.Error("expected error for empty recipient")
	}
	if _, err := q.Send("agent-x", ""); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestSend_DeliveryFailureDoesNotFailSend(t *testing.T) {
	st := store.New(t.TempDir())
	reg := registry.New(st, "sender")
	if _, err := reg.Register("work"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Recipient unknown: delivery cannot even resolve a target.
	bridge := delivery.New(reg, &mockTmux{}, time.Millisecond)
	q := New(st, reg, bridge)

	confirmation, err := q.Send("agent-ghost", "hello")
	if err != nil {
		t.Fatalf("Send: %v, want queued-only success", err)
	}
	if !strings.Contains(confirmation, "queued") {
		t.Errorf("confirmation = %q, want queued outcome", confirmation)
	}

	// The record exists regardless.
	msgs, err := store.ListAll[models.Message](st, store.Messages)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("persisted %d messages, want 1", len(msgs))
	}
}

func TestSendCommand_CarriesSessionInfo(t *testing.T) {
	st := store.New(t.TempDir())
	q, _ := newTestAgent(t, st, "sender")

	si := &models.SessionInfo{Session: "explicit", Window: 1}
	if _, err := q.SendCommand("agent-target", "make test", si); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}

	msgs, err := store.ListAll[models.Message](st, store.Messages)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Type != models.TypeCommand {
		t.Errorf("type = %q, want command", got.Type)
	}
	if got.SessionInfo == nil || got.SessionInfo.Session != "explicit" {
		t.Errorf("sessionInfo = %+v", got.SessionInfo)
	}
}

// --- Incoming ordering ---

func TestIncoming_AscendingByTimestamp(t *testing.T) {
	st := store.New(t.TempDir())
	receiver, receiverReg := newTestAgent(t, st, "receiver")
	me := receiverReg.LocalID()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Written out of order on purpose.
	putMessage(t, st, models.Message{ID: "m-b", From: "agent-s", To: me, Type: models.TypeMessage, Content: "t2", Timestamp: base.Add(2 * time.Minute)})
	putMessage(t, st, models.Message{ID: "m-a", From: "agent-s", To: me, Type: models.TypeMessage, Content: "t1", Timestamp: base.Add(1 * time.Minute)})
	putMessage(t, st, models.Message{ID: "m-c", From: "agent-s", To: me, Type: models.TypeMessage, Content: "t3", Timestamp: base.Add(3 * time.Minute)})
	// Someone else's message is invisible to this receiver.
	putMessage(t, st, models.Message{ID: "m-x", From: "agent-s", To: "agent-other", Type: models.TypeMessage, Content: "nope", Timestamp: base})

	msgs, err := receiver.Incoming()
	if err != nil {
		t.Fatalf("Incoming: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"t1", "t2", "t3"} {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d].Content = %q, want %q", i, msgs[i].Content, want)
		}
	}
}

// --- ProcessCommands ---

func TestProcessCommands_ExecutesRepliesDeletes(t *testing.T) {
	st := store.New(t.TempDir())
	receiver, receiverReg := newTestAgent(t, st, "receiver")
	_, senderReg := newTestAgent(t, st, "sender")
	me := receiverReg.LocalID()
	them := senderReg.LocalID()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	putMessage(t, st, models.Message{ID: "c-1", From: them, To: me, Type: models.TypeCommand, Content: "first", Timestamp: base})
	putMessage(t, st, models.Message{ID: "c-2", From: them, To: me, Type: models.TypeCommand, Content: "second", Timestamp: base.Add(time.Minute)})
	putMessage(t, st, models.Message{ID: "p-1", From: them, To: me, Type: models.TypeMessage, Content: "plain", Timestamp: base})

	results, err := receiver.ProcessCommands()
	if err != nil {
		t.Fatalf("ProcessCommands: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !strings.Contains(results[0], "first") || !strings.Contains(results[1], "second") {
		t.Errorf("results out of order: %v", results)
	}

	// Command records deleted, plain message untouched.
	var out models.Message
	for _, id := range []string{"c-1", "c-2"} {
		if ok, _ := st.Get(store.Messages, id, &out); ok {
			t.Errorf("command %s survived processing", id)
		}
	}
	if ok, _ := st.Get(store.Messages, "p-1", &out); !ok {
		t.Error("plain message was deleted by command processing")
	}

	// Exactly one response back to each command's sender.
	msgs, err := store.ListAll[models.Message](st, store.Messages)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	responses := 0
	for _, m := range msgs {
		if m.Type == models.TypeResponse {
			responses++
			if m.To != them || m.From != me {
				t.Errorf("response routed %s -> %s, want %s -> %s", m.From, m.To, me, them)
			}
		}
	}
	if responses != 2 {
		t.Errorf("got %d responses, want 2", responses)
	}
}

func TestProcessCommands_NoCommands(t *testing.T) {
	st := store.New(t.TempDir())
	receiver, _ := newTestAgent(t, st, "receiver")
	results, err := receiver.ProcessCommands()
	if err != nil {
		t.Fatalf("ProcessCommands: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none", results)
	}
}

// --- History ---

func TestHistory_DescendingAndLimited(t *testing.T) {
	st := store.New(t.TempDir())
	q, reg := newTestAgent(t, st, "me")
	me := reg.LocalID()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		putMessage(t, st, models.Message{
			ID:        []string{"h1", "h2", "h3", "h4", "h5"}[i],
			From:      me,
			To:        "agent-peer",
			Type:      models.TypeMessage,
			Content:   []string{"one", "two", "three", "four", "five"}[i],
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	// A conversation not involving me.
	putMessage(t, st, models.Message{ID: "h6", From: "agent-a", To: "agent-b", Type: models.TypeMessage, Content: "other", Timestamp: base})

	msgs, err := q.History("", 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want limit 3", len(msgs))
	}
	for i, want := range []string{"five", "four", "three"} {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d].Content = %q, want %q (newest first)", i, msgs[i].Content, want)
		}
	}
}

func TestHistory_FiltersByTarget(t *testing.T) {
	st := store.New(t.TempDir())
	q, _ := newTestAgent(t, st, "me")

	base := time.Now()
	putMessage(t, st, models.Message{ID: "t1", From: "agent-a", To: "agent-b", Type: models.TypeMessage, Content: "ab", Timestamp: base})
	putMessage(t, st, models.Message{ID: "t2", From: "agent-c", To: "agent-a", Type: models.TypeMessage, Content: "ca", Timestamp: base})
	putMessage(t, st, models.Message{ID: "t3", From: "agent-c", To: "agent-d", Type: models.TypeMessage, Content: "cd", Timestamp: base})

	msgs, err := q.History("agent-a", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 involving agent-a", len(msgs))
	}
	for _, m := range msgs {
		if m.From != "agent-a" && m.To != "agent-a" {
			t.Errorf("message %s does not involve agent-a", m.ID)
		}
	}
}

// --- ClearOld ---

func TestClearOld_RemovesOnlyAgedRecords(t *testing.T) {
	st := store.New(t.TempDir())
	q, _ := newTestAgent(t, st, "me")

	putMessage(t, st, models.Message{ID: "aged", From: "a", To: "b", Type: models.TypeMessage, Content: "old", Timestamp: time.Now()})
	putMessage(t, st, models.Message{ID: "kept", From: "a", To: "b", Type: models.TypeMessage, Content: "new", Timestamp: time.Now()})

	dir, err := st.Dir(store.Messages)
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "aged.json"), stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	summary, err := q.ClearOld(24)
	if err != nil {
		t.Fatalf("ClearOld: %v", err)
	}
	if !strings.Contains(summary, "Cleared 1") {
		t.Errorf("summary = %q", summary)
	}

	var out models.Message
	if ok, _ := st.Get(store.Messages, "aged", &out); ok {
		t.Error("aged record survived")
	}
	if ok, _ := st.Get(store.Messages, "kept", &out); !ok {
		t.Error("fresh record was cleared")
	}

	// Idempotent for an unchanged file set.
	summary, err = q.ClearOld(24)
	if err != nil {
		t.Fatalf("ClearOld (second run): %v", err)
	}
	if !strings.Contains(summary, "Cleared 0") {
		t.Errorf("second summary = %q", summary)
	}
}
