package staleness

import (
	"context"
	"time"

	"botcheck/internal/store"
)

// MaxTTLDays bounds the configurable freshness window.
const MaxTTLDays = 360

// Selection is the ordered list of followers due for a check.
type Selection struct {
	ScreenNames []string
	// Total is the number of eligible records before any cap is applied
	Total int
}

// SnapshotReader reads the store as it is now
type SnapshotReader interface {
	Snapshot(ctx context.Context) ([]store.Follower, error)
}

// Selector picks eligible records from a live store.
type Selector struct {
	source SnapshotReader
	now    func() time.Time
}

// NewSelector creates a Selector; a nil now uses time.Now.
func NewSelector(source SnapshotReader, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{source: source, now: now}
}

// Eligible reads the store at call time and selects against it.
func (s *Selector) Eligible(ctx context.Context, ttlDays int) (Selection, error) {
	records, err := s.source.Snapshot(ctx)
	if err != nil {
		return Selection{}, err
	}
	return Select(records, ttlDays, s.now()), nil
}

// Select returns the records whose last check is older than ttlDays whole
// days, in store order. Never-checked records are always eligible and
// blocked records never are.
func Select(records []store.Follower, ttlDays int, now time.Time) Selection {
	var sel Selection
	for _, r := range records {
		if Eligible(r, ttlDays, now) {
			sel.ScreenNames = append(sel.ScreenNames, r.ScreenName)
		}
	}
	sel.Total = len(sel.ScreenNames)
	return sel
}

// Eligible reports whether a single record is due.
func Eligible(r store.Follower, ttlDays int, now time.Time) bool {
	if r.LastCheckStatus == store.StatusBlocked {
		return false
	}
	if r.LastCheckDate == nil {
		return true
	}
	return AgeDays(*r.LastCheckDate, now) > ttlDays
}

// AgeDays is the whole number of days elapsed since t, rounded down.
func AgeDays(t, now time.Time) int {
	return int(now.Sub(t) / (24 * time.Hour))
}
