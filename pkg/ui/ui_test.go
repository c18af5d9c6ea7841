package ui

import (
	"bytes"
	"testing"
	"time"

	"botcheck/internal/enrich"
	"botcheck/pkg/config"

	"github.com/stretchr/testify/assert"
)

func plainDisplay(t *testing.T, debug bool) (*ProgressDisplay, *bytes.Buffer) {
	t.Helper()
	SetNoColor(true)
	t.Cleanup(func() { SetNoColor(false) })

	var buf bytes.Buffer
	d := NewProgressDisplayTo(&buf, "alice", debug)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	d.now = func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	}
	return d, &buf
}

func TestProgressDisplayCountsRecords(t *testing.T) {
	d, buf := plainDisplay(t, false)

	d.Started(5, 5)
	d.Recorded(1, 5, "bob", enrich.KindSuccess)
	d.Recorded(2, 5, "carol", enrich.KindSkip)

	out := buf.String()
	assert.Contains(t, out, "5 followers due, checking 5")
	assert.Contains(t, out, "2/5")
	assert.Contains(t, out, "carol")
	assert.Contains(t, out, "1 blocked")
}

func TestProgressDisplayDebugLines(t *testing.T) {
	d, buf := plainDisplay(t, true)

	d.Started(2, 2)
	d.Recorded(1, 2, "bob", enrich.KindSuccess)

	assert.Contains(t, buf.String(), "✓ 1/2 bob\n")
}

func TestProgressDisplayComplete(t *testing.T) {
	d, buf := plainDisplay(t, false)

	d.Started(10, 3)
	d.Complete(enrich.Report{Processed: 3, Succeeded: 2, Skipped: 1, Remaining: 7})

	out := buf.String()
	assert.Contains(t, out, "Checked 3 followers of @alice")
	assert.Contains(t, out, "2 scored, 1 blocked")
	assert.Contains(t, out, "7 still due")
}

func TestProgressDisplayPages(t *testing.T) {
	d, buf := plainDisplay(t, false)

	d.PageCommitted(2, 5, 2)

	assert.Contains(t, buf.String(), "@alice page 2 • 5 seen • 2 new")
}

func TestQuietSuppressesProgress(t *testing.T) {
	d, buf := plainDisplay(t, false)
	SetQuietMode(true)
	defer SetQuietMode(false)

	d.Started(1, 1)
	d.Warn("backlog")
	d.Recorded(1, 1, "bob", enrich.KindSuccess)

	assert.Empty(t, buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func withOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	SetNoColor(true)
	t.Cleanup(func() {
		Output = prev
		SetNoColor(false)
	})
	return &buf
}

func TestNotifierSendsBoth(t *testing.T) {
	buf := withOutput(t)
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	n.SendSuccess("Check complete", "@alice: 4 scored")
	n.SendError("Check failed", "quota exhausted")

	assert.Equal(t, []string{"Check complete", "Check failed"}, sender.titles)
	assert.Contains(t, buf.String(), "Check complete: @alice: 4 scored")
	assert.Contains(t, buf.String(), "Check failed: quota exhausted")
}

func TestNotifierRespectsSettings(t *testing.T) {
	buf := withOutput(t)

	n := NewNotifier(config.NotificationConfig{Enabled: false, OnComplete: true, OnError: true, NotificationType: "terminal"})
	n.SendSuccess("done", "x")
	n.SendError("failed", "y")
	assert.Empty(t, buf.String())

	n = NewNotifier(config.NotificationConfig{Enabled: true, OnComplete: false, OnError: true, NotificationType: "terminal"})
	n.SendSuccess("done", "x")
	assert.Empty(t, buf.String())
	n.SendError("failed", "y")
	assert.Contains(t, buf.String(), "failed: y")
}
