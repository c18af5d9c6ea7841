package follower

import (
	"context"
	"fmt"
	"time"

	"botcheck/internal/store"
	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
	"botcheck/pkg/twitter"
)

// PageLister yields an account's followers one page at a time from cursor
type PageLister interface {
	FollowerPages(ctx context.Context, account, cursor string, fn func(twitter.Page) error) error
}

// PageStore persists pages together with the listing cursor
type PageStore interface {
	UpsertPage(ctx context.Context, account string, profiles []store.Profile, nextCursor string) (int, error)
	SyncState(ctx context.Context, account string) (*store.SyncState, error)
	CompleteSync(ctx context.Context, account string, at time.Time) error
	ResetSync(ctx context.Context, account string) error
}

// PageObserver is told about every committed page
type PageObserver interface {
	PageCommitted(page, seen, added int)
}

// Result summarises one synchronization
type Result struct {
	Added   int
	Pages   int
	Seen    int
	Resumed bool
}

// Synchronizer brings the store up to date with the account's current followers
type Synchronizer struct {
	lister   PageLister
	store    PageStore
	logger   logger.Logger
	observer PageObserver
	restart  bool
	now      func() time.Time
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

// WithRestart discards any interrupted listing and starts from the first page.
func WithRestart(restart bool) Option {
	return func(s *Synchronizer) { s.restart = restart }
}

// WithObserver reports page progress.
func WithObserver(o PageObserver) Option {
	return func(s *Synchronizer) { s.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// NewSynchronizer creates a synchronizer
func NewSynchronizer(lister PageLister, st PageStore, log logger.Logger, opts ...Option) *Synchronizer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &Synchronizer{
		lister: lister,
		store:  st,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync lists every follower of account and inserts the ones not yet stored.
// Stored followers are never modified. A listing interrupted by an error or
// cancellation resumes after its last committed page on the next call.
func (s *Synchronizer) Sync(ctx context.Context, account string) (Result, error) {
	var result Result
	if account == "" {
		return result, errs.Config(errs.ErrEmptyAccount, "sync needs a target account")
	}

	log := s.logger.WithField("account", account)

	if s.restart {
		if err := s.store.ResetSync(ctx, account); err != nil {
			return result, errs.Storage(err, "reset sync state")
		}
	}

	cursor := ""
	state, err := s.store.SyncState(ctx, account)
	if err != nil {
		return result, errs.Storage(err, "read sync state")
	}
	if state != nil && state.InProgress && state.Cursor != "" {
		cursor = state.Cursor
		result.Resumed = true
		log.InfoWithFields("Resuming interrupted follower sync", map[string]interface{}{
			"cursor": cursor,
			"pages":  state.Pages,
		})
	}

	err = s.lister.FollowerPages(ctx, account, cursor, func(page twitter.Page) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		next := page.NextCursor
		if page.Last() {
			next = ""
		}

		added, err := s.store.UpsertPage(ctx, account, toProfiles(page.Users, log), next)
		if err != nil {
			return errs.Storage(err, "commit follower page")
		}

		result.Pages++
		result.Seen += len(page.Users)
		result.Added += added

		log.DebugWithFields("Follower page committed", map[string]interface{}{
			"page":  result.Pages,
			"users": len(page.Users),
			"added": added,
		})
		if s.observer != nil {
			s.observer.PageCommitted(result.Pages, result.Seen, result.Added)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WarnWithFields("Follower sync interrupted", map[string]interface{}{
			"pages": result.Pages,
			"added": result.Added,
		})
		return result, fmt.Errorf("sync followers of %s: %w", account, err)
	}

	if err := s.store.CompleteSync(ctx, account, s.now()); err != nil {
		return result, errs.Storage(err, "complete sync state")
	}

	log.InfoWithFields("Follower sync complete", map[string]interface{}{
		"pages": result.Pages,
		"seen":  result.Seen,
		"added": result.Added,
	})
	return result, nil
}

func toProfiles(users []twitter.User, log logger.Logger) []store.Profile {
	profiles := make([]store.Profile, 0, len(users))
	for _, u := range users {
		p := store.Profile{
			ScreenName:      u.ScreenName,
			Name:            u.Name,
			Description:     u.Description,
			FollowersCount:  u.FollowersCount,
			FriendsCount:    u.FriendsCount,
			ListedCount:     u.ListedCount,
			FavouritesCount: u.FavouritesCount,
		}
		if u.CreatedAt != "" {
			created, err := u.Created()
			if err != nil {
				log.WithField("screen_name", u.ScreenName).Debug("Unparseable created_at")
			} else {
				p.CreatedAt = created
			}
		}
		profiles = append(profiles, p)
	}
	return profiles
}
