package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"botcheck/internal/enrich"
	"botcheck/internal/export"
	"botcheck/internal/follower"
	"botcheck/internal/staleness"
	"botcheck/internal/store"
	"botcheck/pkg/auth"
	"botcheck/pkg/botometer"
	"botcheck/pkg/config"
	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
	"botcheck/pkg/ratelimit"
	"botcheck/pkg/storage"
	"botcheck/pkg/twitter"

	"github.com/google/uuid"
)

// ErrNoDatabase is returned by read-only operations on an account that was never synced
var ErrNoDatabase = errors.New("no follower database for account")

// Progress receives sync and check progress for one account
type Progress interface {
	follower.PageObserver
	enrich.Observer
}

// Options configures a Pipeline
type Options struct {
	// Credentials are checked before any file is opened or request made
	Credentials *auth.Credentials
	Logger      logger.Logger
	// Progress builds the observer for an account; nil disables progress
	Progress func(account string) Progress
	Now      func() time.Time
	// Sleep overrides the quota cooldown wait
	Sleep func(ctx context.Context, d time.Duration) error
	// Pacer overrides the spacing between scoring calls
	Pacer ratelimit.Limiter
}

// Pipeline runs sync, check and export for one account at a time
type Pipeline struct {
	cfg  *config.Config
	opts Options
	log  logger.Logger
}

// SyncReport is the outcome of Sync
type SyncReport struct {
	RunID string
	follower.Result
	ExportPath string
	Rows       int
}

// CheckReport is the outcome of Check
type CheckReport struct {
	RunID string
	enrich.Report
	ExportPath string
	Rows       int
}

// RunReport is the outcome of Run
type RunReport struct {
	RunID      string
	Sync       follower.Result
	Check      enrich.Report
	ExportPath string
	Rows       int
}

// Status describes an account's stored followers
type Status struct {
	Account   string
	Database  string
	Followers int64
	ByStatus  map[store.CheckStatus]int64
	// Due counts followers eligible at the configured TTL
	Due  int
	Sync *store.SyncState
}

// New creates a Pipeline. It touches neither disk nor network.
func New(cfg *config.Config, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{cfg: cfg, opts: opts, log: opts.Logger}
}

// session holds what one operation opened
type session struct {
	runID  string
	log    logger.Logger
	layout *storage.Manager
	store  *store.Store
}

func (s *session) close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.WithError(err).Warn("Failed to close follower database")
		}
	}
}

func checkAccount(account string) error {
	if strings.TrimSpace(account) == "" {
		return errs.Config(errs.ErrEmptyAccount, "a target account is required")
	}
	if err := storage.ValidateAccount(account); err != nil {
		return errs.Config(err, "invalid target account")
	}
	return nil
}

func (p *Pipeline) credentials() (*auth.Credentials, error) {
	if err := p.opts.Credentials.Validate(); err != nil {
		return nil, err
	}
	return p.opts.Credentials, nil
}

// open prepares the data layout and the account's store. With mustExist a
// missing database is an error instead of being created.
func (p *Pipeline) open(account, operation string, mustExist bool) (*session, error) {
	runID := uuid.NewString()
	log := p.log.WithFields(map[string]interface{}{
		"run_id":    runID,
		"account":   account,
		"operation": operation,
	})

	layout, err := storage.NewManager(p.cfg.Storage.DataDir, p.cfg.Export.Directory)
	if err != nil {
		return nil, errs.Storage(err, "prepare data directory")
	}

	path := p.cfg.Storage.Database
	if path == "" {
		path = layout.DatabasePath(account)
	}
	if mustExist {
		if _, err := os.Stat(path); err != nil {
			return nil, errs.Storage(ErrNoDatabase, fmt.Sprintf("%s has no database at %s, run sync first", account, path))
		}
	}

	st, err := store.Open(path, log)
	if err != nil {
		return nil, err
	}
	return &session{runID: runID, log: log, layout: layout, store: st}, nil
}

func (p *Pipeline) progress(account string) Progress {
	if p.opts.Progress == nil {
		return nil
	}
	return p.opts.Progress(account)
}

func (p *Pipeline) twitterClient(creds *auth.Credentials, log logger.Logger) (*twitter.Client, error) {
	tc := p.cfg.Twitter
	return twitter.NewClient(twitter.Options{
		BaseURL:        tc.BaseURL,
		TokenURL:       tc.TokenURL,
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		PageSize:       tc.PageSize,
		Timeout:        tc.Timeout,
		RateLimitWait:  tc.RateLimitWait,
		Limiter:        ratelimit.NewSlidingWindow(tc.RateLimitCalls, tc.RateLimitWindow, nil),
		Logger:         log,
	})
}

func (p *Pipeline) scoringClient(creds *auth.Credentials, source botometer.TweetSource, log logger.Logger) (*botometer.Client, error) {
	bc := p.cfg.Botometer
	return botometer.NewClient(source, botometer.Options{
		BaseURL: bc.BaseURL,
		Host:    bc.Host,
		APIKey:  creds.RapidAPIKey,
		Timeout: bc.Timeout,
		Logger:  log,
	})
}

// Sync adds the account's new followers to its store
func (p *Pipeline) Sync(ctx context.Context, account string, restart bool) (SyncReport, error) {
	var report SyncReport
	if err := checkAccount(account); err != nil {
		return report, err
	}
	creds, err := p.credentials()
	if err != nil {
		return report, err
	}

	s, err := p.open(account, "sync", false)
	if err != nil {
		return report, err
	}
	defer s.close()
	report.RunID = s.runID

	tw, err := p.twitterClient(creds, s.log)
	if err != nil {
		return report, err
	}

	report.Result, err = p.sync(ctx, s, tw, account, restart)
	if err != nil {
		return report, err
	}

	if p.cfg.Export.Auto {
		report.ExportPath, report.Rows, err = p.export(ctx, s, account)
	}
	return report, err
}

func (p *Pipeline) sync(ctx context.Context, s *session, lister follower.PageLister, account string, restart bool) (follower.Result, error) {
	opts := []follower.Option{follower.WithRestart(restart), follower.WithClock(p.opts.Now)}
	if obs := p.progress(account); obs != nil {
		opts = append(opts, follower.WithObserver(obs))
	}
	return follower.NewSynchronizer(lister, s.store, s.log, opts...).Sync(ctx, account)
}

// Check scores the account's stale followers up to the daily cap
func (p *Pipeline) Check(ctx context.Context, account string) (CheckReport, error) {
	var report CheckReport
	if err := checkAccount(account); err != nil {
		return report, err
	}
	creds, err := p.credentials()
	if err != nil {
		return report, err
	}

	s, err := p.open(account, "check", false)
	if err != nil {
		return report, err
	}
	defer s.close()
	report.RunID = s.runID

	tw, err := p.twitterClient(creds, s.log)
	if err != nil {
		return report, err
	}
	scorer, err := p.scoringClient(creds, tw, s.log)
	if err != nil {
		return report, err
	}

	report.Report, err = p.check(ctx, s, scorer, account)
	if err != nil {
		return report, err
	}

	if p.cfg.Export.Auto {
		report.ExportPath, report.Rows, err = p.export(ctx, s, account)
	}
	return report, err
}

func (p *Pipeline) check(ctx context.Context, s *session, scorer enrich.Scorer, account string) (enrich.Report, error) {
	sel, err := staleness.NewSelector(s.store, p.opts.Now).Eligible(ctx, p.cfg.Check.TTLDays)
	if err != nil {
		return enrich.Report{}, errs.Storage(err, "select stale followers")
	}

	cc := p.cfg.Check
	driver := enrich.NewDriver(scorer, s.store, enrich.Options{
		DailyCap:       cc.DailyCap,
		CallInterval:   cc.CallInterval,
		QuotaCooldown:  cc.QuotaCooldown,
		BacklogWarning: cc.BacklogWarning,
		Pacer:          p.opts.Pacer,
		Sleep:          p.opts.Sleep,
		Now:            p.opts.Now,
		Observer:       p.progress(account),
		Logger:         s.log,
	})
	return driver.Run(ctx, sel)
}

// Export writes the account's CSV from the current store contents
func (p *Pipeline) Export(ctx context.Context, account string) (string, int, error) {
	if err := checkAccount(account); err != nil {
		return "", 0, err
	}
	s, err := p.open(account, "export", true)
	if err != nil {
		return "", 0, err
	}
	defer s.close()
	return p.export(ctx, s, account)
}

func (p *Pipeline) export(ctx context.Context, s *session, account string) (string, int, error) {
	return export.NewExporter(s.store, s.layout, s.log).Export(ctx, account)
}

// Run syncs, checks and exports in one go
func (p *Pipeline) Run(ctx context.Context, account string) (RunReport, error) {
	var report RunReport
	if err := checkAccount(account); err != nil {
		return report, err
	}
	creds, err := p.credentials()
	if err != nil {
		return report, err
	}

	s, err := p.open(account, "run", false)
	if err != nil {
		return report, err
	}
	defer s.close()
	report.RunID = s.runID

	tw, err := p.twitterClient(creds, s.log)
	if err != nil {
		return report, err
	}
	scorer, err := p.scoringClient(creds, tw, s.log)
	if err != nil {
		return report, err
	}

	if report.Sync, err = p.sync(ctx, s, tw, account, false); err != nil {
		return report, err
	}
	if report.Check, err = p.check(ctx, s, scorer, account); err != nil {
		return report, err
	}
	report.ExportPath, report.Rows, err = p.export(ctx, s, account)
	return report, err
}

// Status summarises the account's store without calling any remote service
func (p *Pipeline) Status(ctx context.Context, account string) (*Status, error) {
	if err := checkAccount(account); err != nil {
		return nil, err
	}
	s, err := p.open(account, "status", true)
	if err != nil {
		return nil, err
	}
	defer s.close()

	status := &Status{Account: account, Database: s.store.Path()}
	if status.Followers, err = s.store.Count(ctx); err != nil {
		return nil, errs.Storage(err, "count followers")
	}
	if status.ByStatus, err = s.store.StatusCounts(ctx); err != nil {
		return nil, errs.Storage(err, "count check statuses")
	}
	if status.Sync, err = s.store.SyncState(ctx, account); err != nil {
		return nil, errs.Storage(err, "read sync state")
	}

	sel, err := staleness.NewSelector(s.store, p.opts.Now).Eligible(ctx, p.cfg.Check.TTLDays)
	if err != nil {
		return nil, errs.Storage(err, "select stale followers")
	}
	status.Due = sel.Total
	return status, nil
}

// ResolveCredentials overlays keys set in configuration on the stored
// profile. The result may be incomplete; callers validate it.
func ResolveCredentials(cfg config.CredentialsConfig, m *auth.Manager) *auth.Credentials {
	creds := &auth.Credentials{
		Profile:        cfg.Profile,
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		RapidAPIKey:    cfg.RapidAPIKey,
	}
	if creds.Profile == "" {
		creds.Profile = auth.DefaultProfile
	}
	if m != nil {
		if stored, err := m.Retrieve(creds.Profile); err == nil {
			creds.Merge(stored)
		}
	}
	return creds
}
