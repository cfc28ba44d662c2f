package watch

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adlens/pulse/client"
)

const (
	maxNotifications = 6
	maxAnomalies     = 4
)

// Model is the root Bubble Tea model.
type Model struct {
	cl     *client.Client
	events <-chan tea.Msg
	keys   KeyMap
	width  int

	state client.State

	// wanted tracks the channels the user toggled on; they are replayed
	// with fresh Subscribe calls every time the session reconnects, since
	// the client itself never resubscribes.
	wanted map[client.Channel]bool

	metrics   client.Metrics
	metricsAt time.Time

	notifications []client.Notification
	syncs         map[string]client.SyncStatus
	anomalies     []client.Anomaly
	lastErr       string
}

// New creates the root model. The metrics and notifications channels start
// toggled on.
func New(cl *client.Client, events <-chan tea.Msg) Model {
	return Model{
		cl:     cl,
		events: events,
		keys:   DefaultKeyMap(),
		state:  cl.State(),
		wanted: map[client.Channel]bool{
			client.ChannelMetrics:       true,
			client.ChannelNotifications: true,
		},
		syncs: make(map[string]client.SyncStatus),
	}
}

// Init starts consuming bridged client events.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = msg.State
		if msg.State == client.StateConnected {
			m.lastErr = ""
			m.replaySubscriptions()
		}
		return m, m.listen()

	case MetricsMsg:
		m.metrics = msg.Update.Metrics
		m.metricsAt = msg.Update.Timestamp
		if m.metricsAt.IsZero() {
			m.metricsAt = time.Now()
		}
		return m, m.listen()

	case NotificationMsg:
		m.notifications = append(m.notifications, msg.Notification)
		if len(m.notifications) > maxNotifications {
			m.notifications = m.notifications[len(m.notifications)-maxNotifications:]
		}
		return m, m.listen()

	case SyncMsg:
		m.syncs[msg.Status.Platform] = msg.Status
		return m, m.listen()

	case AnomalyMsg:
		m.anomalies = append(m.anomalies, msg.Alert.Anomaly)
		if len(m.anomalies) > maxAnomalies {
			m.anomalies = m.anomalies[len(m.anomalies)-maxAnomalies:]
		}
		return m, m.listen()

	case ErrMsg:
		m.lastErr = msg.Err.Error()
		return m, m.listen()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cl.Disconnect()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Metrics):
		m.toggle(client.ChannelMetrics)
	case key.Matches(msg, m.keys.Notifications):
		m.toggle(client.ChannelNotifications)
	case key.Matches(msg, m.keys.SyncStatus):
		m.toggle(client.ChannelSyncStatus)
	case key.Matches(msg, m.keys.Anomalies):
		m.toggle(client.ChannelAnomalies)
	case key.Matches(msg, m.keys.Ping):
		m.cl.SendPing()
	case key.Matches(msg, m.keys.Reconnect):
		m.cl.Connect()
	}
	return m, nil
}

func (m Model) toggle(ch client.Channel) {
	m.wanted[ch] = !m.wanted[ch]
	if m.wanted[ch] {
		m.cl.Subscribe(ch)
	} else {
		m.cl.Unsubscribe(ch)
	}
}

func (m Model) replaySubscriptions() {
	for ch, on := range m.wanted {
		if on {
			m.cl.Subscribe(ch)
		}
	}
}

// View renders the status bar and the event panels.
func (m Model) View() string {
	width := m.width
	if width < 60 {
		width = 60
	}

	sections := []string{
		m.renderStatusBar(width),
		m.renderMetrics(width),
		m.renderSyncs(width),
		m.renderNotifications(width),
		m.renderAnomalies(width),
		styleDimmed.Render("  1-4 toggle channels · p ping · r reconnect · q quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusBar(width int) string {
	conn := lipgloss.NewStyle().
		Foreground(stateColor(string(m.state))).
		Render("● " + string(m.state))

	chs := m.cl.Channels()
	names := make([]string, len(chs))
	for i, ch := range chs {
		names[i] = string(ch)
	}
	var channels string
	if len(names) > 0 {
		channels = "subscribed: " + strings.Join(names, ", ")
	} else {
		channels = styleDimmed.Render("no active channels")
	}

	sep := lipgloss.NewStyle().Foreground(colorBorder).Render(" | ")
	content := conn + sep + channels
	if m.lastErr != "" {
		content += sep + lipgloss.NewStyle().Foreground(colorDanger).Render(m.lastErr)
	}
	return stylePanel.Width(width).Render(content)
}

func (m Model) renderMetrics(width int) string {
	if m.metricsAt.IsZero() {
		return stylePanel.Width(width).Render(styleDimmed.Render("waiting for metrics..."))
	}

	statStyle := lipgloss.NewStyle().Padding(0, 1)
	stats := []string{
		statStyle.Foreground(colorHealthy).Render(fmt.Sprintf("Revenue: $%.2f", m.metrics.Revenue)),
		statStyle.Foreground(colorWarning).Render(fmt.Sprintf("Spend: $%.2f", m.metrics.Spend)),
		statStyle.Foreground(colorInfo).Render(fmt.Sprintf("ROAS: %.2f", m.metrics.ROAS)),
		statStyle.Foreground(colorBright).Render(fmt.Sprintf("Orders: %d", m.metrics.Orders)),
		styleDimmed.Render(m.metricsAt.Format("15:04:05")),
	}
	sep := lipgloss.NewStyle().Foreground(colorBorder).Render("|")
	return stylePanel.Width(width).Render(strings.Join(stats, sep))
}

func (m Model) renderSyncs(width int) string {
	header := styleTitle.Render("  Sync status")
	if len(m.syncs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			styleDimmed.Render("  no sync activity"))
	}

	platforms := make([]string, 0, len(m.syncs))
	for p := range m.syncs {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	rows := []string{header}
	for _, p := range platforms {
		st := m.syncs[p]
		line := fmt.Sprintf("  %-12s %-9s", p, st.Status)
		if st.Details != nil {
			if st.Details.Error != "" {
				line += lipgloss.NewStyle().Foreground(colorDanger).Render(st.Details.Error)
			} else {
				line += fmt.Sprintf("%3.0f%%  %d records", st.Details.Progress, st.Details.Records)
			}
		}
		rows = append(rows, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderNotifications(width int) string {
	header := styleTitle.Render("  Notifications")
	if len(m.notifications) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			styleDimmed.Render("  none yet"))
	}

	rows := []string{header}
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		badge := lipgloss.NewStyle().Foreground(levelColor(n.Level)).Render(n.Level)
		rows = append(rows, fmt.Sprintf("  [%s] %s: %s", badge, n.Title, n.Message))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderAnomalies(width int) string {
	header := styleTitle.Render("  Anomalies")
	if len(m.anomalies) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			styleDimmed.Render("  none detected"))
	}

	rows := []string{header}
	for i := len(m.anomalies) - 1; i >= 0; i-- {
		a := m.anomalies[i]
		sev := lipgloss.NewStyle().Foreground(levelColor(a.Severity)).Render(a.Severity)
		rows = append(rows, fmt.Sprintf("  [%s] %s %s: %.2f expected %.2f (%+.0f%%)",
			sev, a.Metric, a.Type, a.ActualValue, a.ExpectedValue, a.DeviationPercent))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
