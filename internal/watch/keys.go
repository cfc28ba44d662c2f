package watch

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard bindings for the watch TUI.
type KeyMap struct {
	Metrics       key.Binding
	Notifications key.Binding
	SyncStatus    key.Binding
	Anomalies     key.Binding
	Ping          key.Binding
	Reconnect     key.Binding
	Quit          key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Metrics: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle metrics"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle notifications"),
		),
		SyncStatus: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle sync status"),
		),
		Anomalies: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "toggle anomalies"),
		),
		Ping: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "send ping"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reconnect"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
