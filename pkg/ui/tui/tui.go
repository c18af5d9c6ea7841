package tui

import (
	"context"
	"time"

	"botcheck/internal/enrich"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI is a full-screen dashboard for one account's sync and check. It
// receives progress as a follower.PageObserver and an enrich.Observer.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a dashboard for account. Without options it takes over
// the terminal with the alternate screen.
func NewTUI(account string, opts ...tea.ProgramOption) *TUI {
	model := NewModel(account)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
	}
}

// Run shows the dashboard while work runs and returns work's error.
// Quitting the dashboard early calls cancel, so work stops at the next
// record boundary; Run still waits for it to return.
func (t *TUI) Run(cancel context.CancelFunc, work func() error) error {
	done := make(chan error, 1)
	go func() {
		err := work()
		t.program.Send(DoneMsg{Err: err})
		done <- err
	}()
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.program.Send(TickMsg(time.Now()))
	}()

	_, uiErr := t.program.Run()
	cancel()
	err := <-done
	if err == nil && uiErr != nil {
		return uiErr
	}
	return err
}

// Interrupted reports whether the user quit before the run finished
func (t *TUI) Interrupted() bool {
	return t.model.Interrupted()
}

// PageCommitted implements follower.PageObserver
func (t *TUI) PageCommitted(page, seen, added int) {
	t.program.Send(PageMsg{Page: page, Seen: seen, Added: added})
}

// Started implements enrich.Observer
func (t *TUI) Started(eligible, planned int) {
	t.program.Send(StartedMsg{Eligible: eligible, Planned: planned})
}

// Recorded implements enrich.Observer
func (t *TUI) Recorded(done, planned int, screenName string, kind enrich.Kind) {
	t.program.Send(RecordedMsg{Done: done, Planned: planned, ScreenName: screenName, Kind: kind})
}

// Warn implements enrich.Observer
func (t *TUI) Warn(message string) {
	t.program.Send(LogMsg{Level: "WARN", Message: message})
}
