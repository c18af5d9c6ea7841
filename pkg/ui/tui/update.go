package tui

import (
	"fmt"
	"time"

	"botcheck/internal/enrich"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// PageMsg is sent when a follower page is committed
type PageMsg struct {
	Page  int
	Seen  int
	Added int
}

// StartedMsg is sent when the enrichment driver has its selection
type StartedMsg struct {
	Eligible int
	Planned  int
}

// RecordedMsg is sent after each follower outcome is stored
type RecordedMsg struct {
	Done       int
	Planned    int
	ScreenName string
	Kind       enrich.Kind
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// DoneMsg is sent when the run returns
type DoneMsg struct {
	Err error
}

// TickMsg is sent periodically to refresh elapsed time and ETA
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case PageMsg:
		m.pageCommitted(msg.Page, msg.Seen, msg.Added)
		return m, nil

	case StartedMsg:
		m.checkStarted(msg.Eligible, msg.Planned)
		return m, nil

	case RecordedMsg:
		m.recorded(msg.Done, msg.Planned, msg.ScreenName, msg.Kind)
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil

	case DoneMsg:
		m.finish(msg.Err)
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.stage != StageDone {
			m.interrupted = true
			m.AddLogMessage("WARN", "stopping after the current follower")
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func checkPlan(eligible, planned int) string {
	if planned < eligible {
		return fmt.Sprintf("%d followers due, checking %d today", eligible, planned)
	}
	return fmt.Sprintf("%d followers due", eligible)
}
