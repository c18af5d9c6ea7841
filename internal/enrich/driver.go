package enrich

import (
	"context"
	"fmt"
	"time"

	"botcheck/internal/staleness"
	"botcheck/internal/store"
	"botcheck/pkg/botometer"
	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
	"botcheck/pkg/ratelimit"
	"botcheck/pkg/retry"
)

const (
	DefaultCallInterval   = time.Second
	DefaultQuotaCooldown  = 15 * time.Minute
	DefaultBacklogWarning = 500
)

// Scorer scores one account
type Scorer interface {
	CheckAccount(ctx context.Context, screenName string) (*botometer.Result, error)
}

// Recorder persists per-record outcomes
type Recorder interface {
	ApplyCheckSuccess(ctx context.Context, screenName string, rep store.Reputation, at time.Time) error
	ApplyCheckBlocked(ctx context.Context, screenName string) error
}

// Observer receives operator-facing signals during a run
type Observer interface {
	Started(eligible, planned int)
	Recorded(done, planned int, screenName string, kind Kind)
	Warn(message string)
}

// Options configures a Driver. Zero values take the defaults, except
// DailyCap which is always taken literally.
type Options struct {
	// DailyCap is the number of records scored per run; 0 scores none
	DailyCap       int
	CallInterval   time.Duration
	QuotaCooldown  time.Duration
	BacklogWarning int
	// Pacer overrides the CallInterval limiter
	Pacer    ratelimit.Limiter
	Sleep    func(ctx context.Context, d time.Duration) error
	Now      func() time.Time
	Observer Observer
	Logger   logger.Logger
}

// Report summarises a run. Checked lists the records written, in order,
// so an aborted run still tells the operator what is already done.
type Report struct {
	Eligible   int
	Planned    int
	Processed  int
	Succeeded  int
	Skipped    int
	Remaining  int
	CapReached bool
	Aborted    bool
	Checked    []string
}

// Driver walks a selection and records one outcome per candidate
type Driver struct {
	scorer   Scorer
	recorder Recorder
	opts     Options
	log      logger.Logger
}

// NewDriver creates a Driver
func NewDriver(scorer Scorer, recorder Recorder, opts Options) *Driver {
	if opts.DailyCap < 0 {
		opts.DailyCap = 0
	}
	if opts.CallInterval <= 0 {
		opts.CallInterval = DefaultCallInterval
	}
	if opts.QuotaCooldown <= 0 {
		opts.QuotaCooldown = DefaultQuotaCooldown
	}
	if opts.BacklogWarning == 0 {
		opts.BacklogWarning = DefaultBacklogWarning
	}
	if opts.Pacer == nil {
		opts.Pacer = ratelimit.NewInterval(opts.CallInterval, nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Driver{scorer: scorer, recorder: recorder, opts: opts, log: opts.Logger}
}

// Run scores the selected records in order until the selection or the
// daily cap is exhausted. Each record's write is committed before the next
// call, so an error or cancellation never undoes finished records.
func (d *Driver) Run(ctx context.Context, sel staleness.Selection) (Report, error) {
	report := Report{Eligible: sel.Total, Planned: len(sel.ScreenNames)}
	if report.Planned > d.opts.DailyCap {
		report.Planned = d.opts.DailyCap
	}

	if d.opts.BacklogWarning > 0 && sel.Total > d.opts.BacklogWarning {
		d.warn(fmt.Sprintf("%d followers are due for a check, more than the %d the scoring service allows per day; finishing will take several runs",
			sel.Total, d.opts.BacklogWarning))
	}
	d.opts.Observer.Started(report.Eligible, report.Planned)

	err := d.walk(ctx, sel.ScreenNames, &report)
	report.Remaining = report.Eligible - report.Processed
	if err != nil {
		report.Aborted = true
		d.log.WithError(err).ErrorWithFields("Reputation check aborted", map[string]interface{}{
			"processed": report.Processed,
			"remaining": report.Remaining,
		})
		return report, err
	}

	d.log.InfoWithFields("Reputation check finished", map[string]interface{}{
		"processed": report.Processed,
		"succeeded": report.Succeeded,
		"skipped":   report.Skipped,
		"remaining": report.Remaining,
	})
	return report, nil
}

func (d *Driver) walk(ctx context.Context, candidates []string, report *Report) error {
	for _, name := range candidates {
		if report.Processed >= d.opts.DailyCap {
			report.CapReached = true
			d.warn(fmt.Sprintf("daily cap of %d checks reached; %d followers stay due for the next run",
				d.opts.DailyCap, report.Eligible-report.Processed))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome := d.score(ctx, name)
		log := d.log.WithField("screen_name", name)

		switch outcome.Kind {
		case KindSuccess:
			if err := d.recorder.ApplyCheckSuccess(ctx, name, toReputation(outcome.Result), d.opts.Now()); err != nil {
				return errs.Storage(err, "record check result")
			}
			report.Succeeded++
		case KindSkip:
			log.WithError(outcome.Err).Info("Follower cannot be scored, marking blocked")
			if err := d.recorder.ApplyCheckBlocked(ctx, name); err != nil {
				return errs.Storage(err, "record blocked follower")
			}
			report.Skipped++
		default:
			return fmt.Errorf("check %s: %w", name, outcome.Err)
		}

		report.Processed++
		report.Checked = append(report.Checked, name)
		d.opts.Observer.Recorded(report.Processed, report.Planned, name, outcome.Kind)
	}
	return nil
}

// score makes the paced call and allows one retry after the quota cooldown.
func (d *Driver) score(ctx context.Context, name string) Outcome {
	for attempt := 0; ; attempt++ {
		if err := d.opts.Pacer.Wait(ctx); err != nil {
			return Outcome{Kind: KindFatal, Err: err}
		}

		outcome := Classify(d.scorer.CheckAccount(ctx, name))
		if outcome.Kind != KindRetry {
			return outcome
		}
		if attempt > 0 {
			return Outcome{
				Kind: KindFatal,
				Err:  fmt.Errorf("%w: still throttled after cooldown: %w", errs.ErrQuotaExhausted, outcome.Err),
			}
		}

		d.warn(fmt.Sprintf("scoring quota appears exhausted at %s; waiting %s before one retry", name, d.opts.QuotaCooldown))
		if err := d.opts.Sleep(ctx, d.opts.QuotaCooldown); err != nil {
			return Outcome{Kind: KindFatal, Err: err}
		}
	}
}

func (d *Driver) warn(message string) {
	d.log.Warn(message)
	d.opts.Observer.Warn(message)
}

type nopObserver struct{}

func (nopObserver) Started(eligible, planned int)                            {}
func (nopObserver) Recorded(done, planned int, screenName string, kind Kind) {}
func (nopObserver) Warn(message string)                                      {}
