// Package watch is the terminal dashboard consuming a pulse client: it
// renders the connection state, the active channels and the latest
// dispatched events, and demonstrates the caller-side subscription replay
// after a reconnect.
package watch

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adlens/pulse/client"
)

// Messages bridged from client callbacks into the Bubble Tea loop.
type (
	StateMsg        struct{ State client.State }
	MetricsMsg      struct{ Update client.MetricsUpdate }
	NotificationMsg struct{ Notification client.Notification }
	SyncMsg         struct{ Status client.SyncStatus }
	AnomalyMsg      struct{ Alert client.AnomalyAlert }
	ErrMsg          struct{ Err error }
)

// Wire installs callbacks on cfg that forward every dispatched event into
// ch. Sends never block: when the UI falls behind, events are dropped
// rather than stalling the client's read loop.
func Wire(ch chan<- tea.Msg, cfg *client.Config) {
	cfg.OnStateChange = func(s client.State) { push(ch, StateMsg{State: s}) }
	cfg.OnMetricsUpdate = func(p client.MetricsUpdate) { push(ch, MetricsMsg{Update: p}) }
	cfg.OnNotification = func(p client.Notification) { push(ch, NotificationMsg{Notification: p}) }
	cfg.OnSyncStatus = func(p client.SyncStatus) { push(ch, SyncMsg{Status: p}) }
	cfg.OnAnomalyAlert = func(p client.AnomalyAlert) { push(ch, AnomalyMsg{Alert: p}) }
	cfg.OnError = func(err error) { push(ch, ErrMsg{Err: err}) }
}

func push(ch chan<- tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}
