package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"botcheck/internal/pipeline"
	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"

	"github.com/robfig/cron/v3"
)

// DefaultSpec runs each account once a day, when the scoring quota resets
const DefaultSpec = "@daily"

// Runner performs one sync, check and export pass
type Runner interface {
	Run(ctx context.Context, account string) (pipeline.RunReport, error)
}

// ResultFunc is called after every scheduled run
type ResultFunc func(account string, report pipeline.RunReport, err error)

// Manager runs the pipeline for each registered account on a cron schedule.
// Runs for the same account never overlap.
type Manager struct {
	engine   *cron.Cron
	runner   Runner
	log      logger.Logger
	onResult ResultFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option configures a Manager
type Option func(*Manager)

// WithResultFunc reports each finished run
func WithResultFunc(fn ResultFunc) Option {
	return func(m *Manager) { m.onResult = fn }
}

// NewManager creates a scheduler for runner
func NewManager(runner Runner, log logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.NewNopLogger()
	}
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		engine: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:  runner,
		log:     log,
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register schedules account on spec. An account is registered at most once.
func (m *Manager) Register(spec, account string) error {
	if account == "" {
		return errs.Config(errs.ErrEmptyAccount, "schedule needs a target account")
	}
	if spec == "" {
		spec = DefaultSpec
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[account]; ok {
		return errs.New(errs.ErrorTypeConfig, fmt.Sprintf("%s is already scheduled", account))
	}

	id, err := m.engine.AddJob(spec, &accountJob{account: account, manager: m})
	if err != nil {
		return errs.Config(err, fmt.Sprintf("invalid schedule %q", spec))
	}
	m.entries[account] = id

	m.log.WithFields(map[string]interface{}{
		"account": account,
		"spec":    spec,
	}).Info("Account scheduled")
	return nil
}

// Accounts lists the scheduled accounts with their next run time
func (m *Manager) Accounts() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]time.Time, len(m.entries))
	for account, id := range m.entries {
		next[account] = m.engine.Entry(id).Next
	}
	return next
}

// Start begins running jobs in the background
func (m *Manager) Start() {
	m.log.Info("Scheduler started")
	m.engine.Start()
}

// Stop cancels in-flight runs and waits for them to return
func (m *Manager) Stop() {
	m.cancel()
	<-m.engine.Stop().Done()
	m.log.Info("Scheduler stopped")
}

// RunNow runs account immediately through the same wrapped job cron uses,
// so it is skipped if a scheduled run is still going.
func (m *Manager) RunNow(account string) error {
	m.mu.Lock()
	id, ok := m.entries[account]
	m.mu.Unlock()
	if !ok {
		return errs.New(errs.ErrorTypeNotFound, fmt.Sprintf("%s is not scheduled", account))
	}
	m.engine.Entry(id).WrappedJob.Run()
	return nil
}

type accountJob struct {
	account string
	manager *Manager
}

func (j *accountJob) Run() {
	m := j.manager
	log := m.log.WithField("account", j.account)
	log.Info("Scheduled run starting")

	report, err := m.runner.Run(m.ctx, j.account)
	if err != nil {
		log.WithError(err).WithField("run_id", report.RunID).Error("Scheduled run failed")
	} else {
		log.WithFields(map[string]interface{}{
			"run_id":    report.RunID,
			"added":     report.Sync.Added,
			"processed": report.Check.Processed,
			"remaining": report.Check.Remaining,
		}).Info("Scheduled run finished")
	}
	if m.onResult != nil {
		m.onResult(j.account, report, err)
	}
}

// cronLogger adapts Logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.DebugWithFields(msg, fields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).ErrorWithFields(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
