package tui

import (
	"time"

	"botcheck/internal/enrich"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Stage is the part of a run the dashboard is showing
type Stage int

const (
	StageWaiting Stage = iota
	StageSyncing
	StageChecking
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageSyncing:
		return "syncing followers"
	case StageChecking:
		return "checking followers"
	case StageDone:
		return "finished"
	default:
		return "starting"
	}
}

// CheckedItem is one follower recorded by the enrichment driver
type CheckedItem struct {
	ScreenName string
	Kind       enrich.Kind
	At         time.Time
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the dashboard state for one account
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	account string
	stage   Stage

	// sync
	pages int
	seen  int
	added int

	// check
	eligible   int
	planned    int
	done       int
	succeeded  int
	skipped    int
	checkStart time.Time
	recent     []CheckedItem
	maxRecent  int

	logMessages    []LogMessage
	maxLogMessages int

	width       int
	height      int
	showHelp    bool
	interrupted bool
	err         error

	start time.Time
	now   func() time.Time
}

// NewModel creates the dashboard model for account
func NewModel(account string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accentCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return Model{
		spinner:        s,
		bar:            bar,
		account:        account,
		maxRecent:      8,
		maxLogMessages: 50,
		start:          time.Now(),
		now:            time.Now,
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Interrupted reports whether the user quit before the run finished
func (m *Model) Interrupted() bool {
	return m.interrupted
}

func (m *Model) pageCommitted(page, seen, added int) {
	m.stage = StageSyncing
	m.pages, m.seen, m.added = page, seen, added
}

func (m *Model) checkStarted(eligible, planned int) {
	m.stage = StageChecking
	m.eligible, m.planned = eligible, planned
	m.checkStart = m.now()
	m.AddLogMessage("INFO", checkPlan(eligible, planned))
}

func (m *Model) recorded(done, planned int, name string, kind enrich.Kind) {
	m.done, m.planned = done, planned
	switch kind {
	case enrich.KindSuccess:
		m.succeeded++
	case enrich.KindSkip:
		m.skipped++
	}

	m.recent = append(m.recent, CheckedItem{ScreenName: name, Kind: kind, At: m.now()})
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

func (m *Model) finish(err error) {
	m.stage = StageDone
	m.err = err
	if err != nil {
		m.AddLogMessage("ERROR", err.Error())
		return
	}
	m.AddLogMessage("SUCCESS", "run finished")
}

// AddLogMessage adds a log message, keeping the most recent ones
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Percent is the share of planned checks already recorded
func (m Model) Percent() float64 {
	if m.planned == 0 {
		return 0
	}
	p := float64(m.done) / float64(m.planned)
	if p > 1 {
		p = 1
	}
	return p
}

// ETA estimates the time left for the planned checks from the pace so far
func (m Model) ETA() time.Duration {
	if m.done == 0 || m.done >= m.planned || m.checkStart.IsZero() {
		return 0
	}
	perRecord := m.now().Sub(m.checkStart) / time.Duration(m.done)
	return perRecord * time.Duration(m.planned-m.done)
}
