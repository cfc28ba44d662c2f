package watch

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adlens/pulse/client"
)

// newTestModel builds a model around an idle client that never dials.
func newTestModel(t *testing.T) Model {
	t.Helper()
	cl := client.New(client.Config{URL: "ws://127.0.0.1:1/ws", Token: "t"})
	events := make(chan tea.Msg, 16)
	return New(cl, events)
}

func updated(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm
}

func TestMetricsMsgUpdatesView(t *testing.T) {
	m := newTestModel(t)

	m = updated(t, m, MetricsMsg{Update: client.MetricsUpdate{
		Metrics:   client.Metrics{Revenue: 1250.5, Spend: 310.2, ROAS: 4.03, Orders: 27},
		Timestamp: time.Now(),
	}})

	view := m.View()
	for _, want := range []string{"Revenue: $1250.50", "ROAS: 4.03", "Orders: 27"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNotificationRingIsCapped(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < maxNotifications+4; i++ {
		m = updated(t, m, NotificationMsg{Notification: client.Notification{
			Title: "n", Message: "m", Level: "info",
		}})
	}
	if got := len(m.notifications); got != maxNotifications {
		t.Errorf("notifications kept = %d, want %d", got, maxNotifications)
	}
}

func TestSyncMsgKeyedByPlatform(t *testing.T) {
	m := newTestModel(t)

	m = updated(t, m, SyncMsg{Status: client.SyncStatus{Platform: "google_ads", Status: "syncing"}})
	m = updated(t, m, SyncMsg{Status: client.SyncStatus{Platform: "google_ads", Status: "complete"}})
	m = updated(t, m, SyncMsg{Status: client.SyncStatus{Platform: "meta_ads", Status: "started"}})

	if got := len(m.syncs); got != 2 {
		t.Fatalf("sync platforms = %d, want 2", got)
	}
	if m.syncs["google_ads"].Status != "complete" {
		t.Errorf("google_ads status = %q, want complete", m.syncs["google_ads"].Status)
	}
}

func TestStateMsgClearsErrorOnConnect(t *testing.T) {
	m := newTestModel(t)

	m = updated(t, m, ErrMsg{Err: errors.New("boom")})
	if m.lastErr == "" {
		t.Fatal("error never recorded")
	}
	m = updated(t, m, StateMsg{State: client.StateConnected})
	if m.lastErr != "" {
		t.Errorf("lastErr = %q, want cleared on connect", m.lastErr)
	}
	if m.state != client.StateConnected {
		t.Errorf("state = %q, want connected", m.state)
	}
}

func TestQuitKeyDisconnectsAndQuits(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit key produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key did not produce tea.Quit")
	}
}

func TestChannelToggleTracked(t *testing.T) {
	m := newTestModel(t)

	if !m.wanted[client.ChannelMetrics] {
		t.Fatal("metrics not wanted by default")
	}
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	if m.wanted[client.ChannelMetrics] {
		t.Error("toggle did not clear the metrics channel")
	}
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	if !m.wanted[client.ChannelAnomalies] {
		t.Error("toggle did not set the anomalies channel")
	}
}
