package tui

import (
	"fmt"
	"strings"
	"time"

	"botcheck/internal/enrich"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	columnWidth := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSyncPanel(columnWidth),
		m.renderCheckPanel(columnWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(columnWidth),
		m.renderLogsPanel(columnWidth),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("q to stop after the current follower • ? for help"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	status := m.spinner.View() + " " + m.stage.String()
	switch {
	case m.stage == StageDone && m.err != nil:
		status = errorStyle.Render("✗ " + m.stage.String())
	case m.stage == StageDone:
		status = successStyle.Render("✓ " + m.stage.String())
	}
	return headerStyle.Width(m.width).Render(
		fmt.Sprintf("botcheck @%s  %s  %s", m.account, status, dimStyle.Render(formatDuration(m.now().Sub(m.start)))),
	)
}

func (m Model) renderSyncPanel(width int) string {
	lines := []string{
		stat("Pages committed:", fmt.Sprintf("%d", m.pages)),
		stat("Followers seen:", fmt.Sprintf("%d", m.seen)),
		stat("New followers:", fmt.Sprintf("%d", m.added)),
	}
	return panel(width, " SYNC ", lines...)
}

func (m Model) renderCheckPanel(width int) string {
	bar := m.bar
	bar.Width = width - 8
	if bar.Width < 10 {
		bar.Width = 10
	}

	lines := []string{
		stat("Due:", fmt.Sprintf("%d", m.eligible)),
		stat("Checked:", fmt.Sprintf("%d/%d", m.done, m.planned)),
		stat("Scored:", fmt.Sprintf("%d", m.succeeded)),
		stat("Blocked:", fmt.Sprintf("%d", m.skipped)),
		stat("ETA:", formatDuration(m.ETA())),
		bar.ViewAs(m.Percent()),
	}
	if m.interrupted {
		lines = append(lines, warningStyle.Render("⏸  stopping"))
	}
	return panel(width, " CHECK ", lines...)
}

func (m Model) renderRecentPanel(width int) string {
	if len(m.recent) == 0 {
		return panel(width, " RECENT ", dimStyle.Render("No followers checked yet"))
	}

	var lines []string
	for i := len(m.recent) - 1; i >= 0; i-- {
		item := m.recent[i]
		mark := "✓"
		if item.Kind != enrich.KindSuccess {
			mark = "⊘"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			timestampStyle.Render(item.At.Format("15:04:05")),
			kindStyle(item.Kind).Render(mark),
			truncate("@"+item.ScreenName, width-16),
		))
	}
	return panel(width, " RECENT ", lines...)
}

func (m Model) renderLogsPanel(width int) string {
	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, log := range m.logMessages[start:] {
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			timestampStyle.Render(log.Time.Format("15:04:05")),
			level,
			dimStyle.Render(truncate(log.Message, width-25)),
		))
	}
	if len(lines) == 0 {
		lines = append(lines, dimStyle.Render("No messages yet..."))
	}
	return panel(width, " LOG ", lines...)
}

func (m Model) renderHelp() string {
	help := `
  Keys:
    q/Q, ctrl+c  - Stop after the current follower and quit
    ctrl+l       - Clear the log panel
    ?            - Toggle this help

  Recent checks:
    ` + successStyle.Render("✓") + `  scored
    ` + warningStyle.Render("⊘") + `  blocked (protected, suspended or no tweets)
`
	return panelStyle.Width(m.width).Render(help)
}

func panel(width int, title string, lines ...string) string {
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), strings.Join(lines, "\n")),
	)
}

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", labelStyle.Render(label), valueStyle.Render(value))
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
