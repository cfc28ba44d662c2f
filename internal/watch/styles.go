package watch

import "github.com/charmbracelet/lipgloss"

// Palette and reusable styles for the watch TUI.
var (
	colorHealthy = lipgloss.Color("#22c55e")
	colorWarning = lipgloss.Color("#d97706")
	colorDanger  = lipgloss.Color("#dc2626")
	colorInfo    = lipgloss.Color("#3b82f6")
	colorBorder  = lipgloss.Color("#4b5563")
	colorDimmed  = lipgloss.Color("#6b7280")
	colorBright  = lipgloss.Color("#f9fafb")

	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorBright)
	styleDimmed = lipgloss.NewStyle().Foreground(colorDimmed)
	stylePanel  = lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)
)

// levelColor maps a notification level or anomaly severity to a color.
func levelColor(level string) lipgloss.Color {
	switch level {
	case "error", "high", "critical":
		return colorDanger
	case "warning", "medium":
		return colorWarning
	default:
		return colorInfo
	}
}

// stateColor maps a connection state string to a color.
func stateColor(state string) lipgloss.Color {
	switch state {
	case "connected":
		return colorHealthy
	case "connecting":
		return colorWarning
	case "error":
		return colorDanger
	default:
		return colorDimmed
	}
}
