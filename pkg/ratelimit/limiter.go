package ratelimit

import (
	"context"
	"sync"
	"time"

	"botcheck/pkg/retry"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a call may proceed now and records it if so
	Allow() bool
	// Wait blocks until a call may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset clears the limiter state
	Reset()
}

// Clock lets tests control time.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	return retry.Wait(ctx, d)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Interval enforces a minimum spacing between consecutive calls.
type Interval struct {
	spacing time.Duration
	clock   Clock
	last    time.Time
	mu      sync.Mutex
}

// NewInterval creates a limiter that allows one call per spacing.
func NewInterval(spacing time.Duration, clock Clock) *Interval {
	if clock == nil {
		clock = RealClock
	}
	return &Interval{spacing: spacing, clock: clock}
}

// Allow checks if a call can proceed
func (iv *Interval) Allow() bool {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	now := iv.clock.Now()
	if !iv.last.IsZero() && now.Sub(iv.last) < iv.spacing {
		return false
	}
	iv.last = now
	return true
}

// Wait sleeps out whatever remains of the spacing since the previous call
func (iv *Interval) Wait(ctx context.Context) error {
	for {
		if iv.Allow() {
			return nil
		}
		iv.mu.Lock()
		remaining := iv.spacing - iv.clock.Now().Sub(iv.last)
		iv.mu.Unlock()

		if err := iv.clock.Sleep(ctx, remaining); err != nil {
			return err
		}
	}
}

// Reset forgets the previous call
func (iv *Interval) Reset() {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.last = time.Time{}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	clock       Clock
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration, clock Clock) *SlidingWindow {
	if clock == nil {
		clock = RealClock
	}
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
		clock:       clock,
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := sw.clock.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		wait := 100 * time.Millisecond
		if len(sw.requests) > 0 {
			wait = sw.windowSize - sw.clock.Now().Sub(sw.requests[0])
		}
		sw.mu.Unlock()

		if err := sw.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}
