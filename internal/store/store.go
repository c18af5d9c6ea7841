package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrFollowerNotFound is returned when a check result targets an unknown screen name.
var ErrFollowerNotFound = errors.New("follower not found")

// Store is the durable follower table for one tracked account.
type Store struct {
	db   *gorm.DB
	path string
	log  logger.Logger
}

// Open creates the database at path if absent, else continues with its contents.
func Open(path string, log logger.Logger) (*Store, error) {
	if path == "" {
		return nil, errs.Storage(nil, "database path is empty")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errs.Storage(err, fmt.Sprintf("create directory for %s", path))
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGormLogger(log),
	})
	if err != nil {
		return nil, errs.Storage(err, fmt.Sprintf("open %s", path))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Storage(err, "access connection pool")
	}
	// one writer per account database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Follower{}, &SyncState{}); err != nil {
		_ = sqlDB.Close()
		return nil, errs.Storage(err, fmt.Sprintf("migrate %s", path))
	}

	log.WithField("path", path).Debug("Follower store opened")
	return &Store{db: db, path: path, log: log}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func insertIgnore() clause.Expression {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "screen_name"}},
		DoNothing: true,
	}
}

// UpsertDiscovered inserts the profile unless its screen name is already stored.
func (s *Store) UpsertDiscovered(ctx context.Context, p Profile) (bool, error) {
	f := p.toFollower()
	res := s.db.WithContext(ctx).Clauses(insertIgnore()).Create(&f)
	if res.Error != nil {
		return false, fmt.Errorf("upsert %s: %w", p.ScreenName, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpsertPage inserts a page of profiles and records nextCursor for account in
// one transaction, so a page is either fully committed with its cursor or not at all.
func (s *Store) UpsertPage(ctx context.Context, account string, profiles []Profile, nextCursor string) (int, error) {
	added := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range profiles {
			f := p.toFollower()
			res := tx.Clauses(insertIgnore()).Create(&f)
			if res.Error != nil {
				return fmt.Errorf("upsert %s: %w", p.ScreenName, res.Error)
			}
			added += int(res.RowsAffected)
		}

		state := SyncState{Account: account}
		if err := tx.Where(SyncState{Account: account}).FirstOrCreate(&state).Error; err != nil {
			return fmt.Errorf("load sync state: %w", err)
		}
		now := time.Now()
		return tx.Model(&state).Updates(map[string]interface{}{
			"cursor":          nextCursor,
			"pages":           gorm.Expr("pages + 1"),
			"added":           gorm.Expr("added + ?", added),
			"in_progress":     true,
			"last_attempt_at": now,
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// ApplyCheckSuccess writes both reputation groups and marks the record checked at at.
func (s *Store) ApplyCheckSuccess(ctx context.Context, screenName string, rep Reputation, at time.Time) error {
	cols := make(map[string]interface{}, 18)
	rep.English.columns("en_", cols)
	rep.Universal.columns("un_", cols)
	cols["last_check_date"] = at
	cols["last_check_status"] = StatusSuccess

	return s.updateOne(ctx, screenName, cols)
}

// ApplyCheckBlocked marks the record as permanently unscorable.
func (s *Store) ApplyCheckBlocked(ctx context.Context, screenName string) error {
	return s.updateOne(ctx, screenName, map[string]interface{}{
		"last_check_status": StatusBlocked,
	})
}

func (s *Store) updateOne(ctx context.Context, screenName string, cols map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Follower{}).Where("screen_name = ?", screenName).Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("update %s: %w", screenName, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrFollowerNotFound, screenName)
		}
		return nil
	})
}

// Snapshot returns every record in insertion order.
func (s *Store) Snapshot(ctx context.Context) ([]Follower, error) {
	var followers []Follower
	if err := s.db.WithContext(ctx).Order("id asc").Find(&followers).Error; err != nil {
		return nil, fmt.Errorf("read followers: %w", err)
	}
	return followers, nil
}

// Get returns one record by screen name.
func (s *Store) Get(ctx context.Context, screenName string) (*Follower, error) {
	var f Follower
	err := s.db.WithContext(ctx).Where("screen_name = ?", screenName).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFollowerNotFound, screenName)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Count returns the number of stored followers.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Follower{}).Count(&n).Error
	return n, err
}

// StatusCounts returns how many records carry each check status.
func (s *Store) StatusCounts(ctx context.Context) (map[CheckStatus]int64, error) {
	var rows []struct {
		LastCheckStatus CheckStatus
		N               int64
	}
	err := s.db.WithContext(ctx).Model(&Follower{}).
		Select("last_check_status, count(*) as n").
		Group("last_check_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[CheckStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.LastCheckStatus] += r.N
	}
	return counts, nil
}

// SyncState returns the listing progress for account, or nil if none was recorded.
func (s *Store) SyncState(ctx context.Context, account string) (*SyncState, error) {
	var state SyncState
	err := s.db.WithContext(ctx).Where("account = ?", account).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// CompleteSync clears the cursor after the last page was committed.
func (s *Store) CompleteSync(ctx context.Context, account string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state := SyncState{Account: account}
		if err := tx.Where(SyncState{Account: account}).FirstOrCreate(&state).Error; err != nil {
			return err
		}
		return tx.Model(&state).Updates(map[string]interface{}{
			"cursor":          "",
			"pages":           0,
			"added":           0,
			"in_progress":     false,
			"last_success_at": at,
		}).Error
	})
}

// ResetSync discards an interrupted listing so the next sync starts over.
func (s *Store) ResetSync(ctx context.Context, account string) error {
	return s.db.WithContext(ctx).
		Model(&SyncState{}).
		Where("account = ?", account).
		Updates(map[string]interface{}{"cursor": "", "pages": 0, "added": 0, "in_progress": false}).Error
}
