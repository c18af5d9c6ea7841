package tui

import (
	"botcheck/internal/enrich"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentCyan    = lipgloss.Color("#00FFFF")
	accentMagenta = lipgloss.Color("#FF00FF")
	accentGreen   = lipgloss.Color("#39FF14")
	accentYellow  = lipgloss.Color("#FFFF00")
	accentOrange  = lipgloss.Color("#FF6700")
	alertRed      = lipgloss.Color("#FF0000")
	darkBg        = lipgloss.Color("#0A0E27")
	panelBg       = lipgloss.Color("#1A1E37")
	dimWhite      = lipgloss.Color("#B0B0B0")

	headerStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true).
			Padding(1, 0)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentMagenta).
			Background(panelBg).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Background(accentMagenta).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(accentCyan).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(accentYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(accentGreen).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(accentOrange).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(alertRed).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)
)

// kindStyle colors a check outcome in the recent checks panel
func kindStyle(k enrich.Kind) lipgloss.Style {
	switch k {
	case enrich.KindSuccess:
		return successStyle
	case enrich.KindSkip:
		return warningStyle
	default:
		return errorStyle
	}
}

// levelColor picks the log panel color for a level
func levelColor(level string) lipgloss.Color {
	switch level {
	case "ERROR":
		return alertRed
	case "WARN":
		return accentOrange
	case "SUCCESS":
		return accentGreen
	default:
		return accentCyan
	}
}
