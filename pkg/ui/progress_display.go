package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"botcheck/internal/enrich"
)

// ProgressDisplay renders a single status line for one account. It is an
// enrich.Observer for checks and a follower.PageObserver for syncs.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	account   string
	planned   int
	done      int
	succeeded int
	skipped   int
	current   string
	startTime time.Time
	isDebug   bool
	now       func() time.Time
}

// NewProgressDisplay creates a display writing to Output
func NewProgressDisplay(account string, debug bool) *ProgressDisplay {
	return NewProgressDisplayTo(Output, account, debug)
}

// NewProgressDisplayTo creates a display writing to out
func NewProgressDisplayTo(out io.Writer, account string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		account:   account,
		startTime: time.Now(),
		isDebug:   debug,
		now:       time.Now,
	}
}

// PageCommitted reports one persisted follower page
func (p *ProgressDisplay) PageCommitted(page, seen, added int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuiet() {
		return
	}
	p.printLine(fmt.Sprintf("%s page %d • %d seen • %s",
		Cyan("@"+p.account), page, seen, Green(fmt.Sprintf("%d new", added))))
}

// Started records the size of the check pass
func (p *ProgressDisplay) Started(eligible, planned int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.planned = planned
	p.done = 0
	p.startTime = p.now()

	if IsQuiet() {
		return
	}
	fmt.Fprintf(p.out, "%s %d followers due, checking %d\n", Magenta("→"), eligible, planned)
}

// Recorded advances the "x/N" counter
func (p *ProgressDisplay) Recorded(done, planned int, screenName string, kind enrich.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.planned = planned
	p.current = screenName
	switch kind {
	case enrich.KindSuccess:
		p.succeeded++
	case enrich.KindSkip:
		p.skipped++
	}

	if IsQuiet() {
		return
	}
	if p.isDebug {
		mark := Green("✓")
		if kind == enrich.KindSkip {
			mark = Yellow("∅")
		}
		fmt.Fprintf(p.out, "%s %d/%d %s\n", mark, done, planned, screenName)
		return
	}
	p.printProgress()
}

// Warn prints an operator warning on its own line
func (p *ProgressDisplay) Warn(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuiet() {
		return
	}
	fmt.Fprintf(p.out, "\n%s %s\n", Yellow("⚠"), message)
}

// Complete prints the summary for a finished check pass
func (p *ProgressDisplay) Complete(report enrich.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuiet() {
		return
	}
	elapsed := p.now().Sub(p.startTime)

	fmt.Fprintf(p.out, "\n%s Checked %d followers of @%s in %s\n",
		Green("✓"), report.Processed, p.account, formatDuration(elapsed))
	fmt.Fprintf(p.out, "  %s %d scored, %d blocked\n", Dim("•"), report.Succeeded, report.Skipped)
	if report.Remaining > 0 {
		fmt.Fprintf(p.out, "  %s %d still due, run again tomorrow\n", Dim("•"), report.Remaining)
	}
}

// printProgress prints the minimal progress line
func (p *ProgressDisplay) printProgress() {
	const barWidth = 20

	filled := 0
	if p.planned > 0 {
		filled = p.done * barWidth / p.planned
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s [%s] %d/%d • %s",
		Cyan("@"+p.account),
		bar,
		p.done,
		p.planned,
		p.eta(),
	)
	if p.current != "" {
		line += " • " + p.current
	}
	if p.skipped > 0 {
		line += " • " + Yellow(fmt.Sprintf("%d blocked", p.skipped))
	}
	p.printLine(line)
}

func (p *ProgressDisplay) printLine(line string) {
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// eta estimates time remaining
func (p *ProgressDisplay) eta() string {
	if p.done == 0 {
		return "calculating..."
	}
	elapsed := p.now().Sub(p.startTime)
	perRecord := elapsed / time.Duration(p.done)
	return formatDuration(perRecord * time.Duration(p.planned-p.done))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
