package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/smartbedding/panel/internal/alerts"
)

// Shared styles for the CLI package
// All terminal colors and styling definitions are centralized here
var (
	// Primary styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280")).
			Width(16)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280"))

	// Connectivity styles
	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	inactiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	statusBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)
)

// alertStyle picks the style for an alert type.
func alertStyle(t alerts.Type) lipgloss.Style {
	switch t {
	case alerts.TypeSuccess:
		return successStyle
	case alerts.TypeWarning:
		return warningStyle
	case alerts.TypeError:
		return errorStyle
	default:
		return infoStyle
	}
}

// renderAlerts prints the queued alerts and clears them.
func renderAlerts(queue *alerts.Queue) string {
	var out strings.Builder
	for _, alert := range queue.List() {
		out.WriteString(alertStyle(alert.Type).Render(alert.Message))
		out.WriteString("\n")
	}
	queue.Clear()
	return out.String()
}
