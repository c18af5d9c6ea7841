package store

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// CheckStatus is the outcome of the most recent reputation check.
type CheckStatus string

const (
	StatusUnset   CheckStatus = ""
	StatusSuccess CheckStatus = "success"
	StatusBlocked CheckStatus = "blocked"
)

// Scan maps NULL to StatusUnset.
func (s *CheckStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = StatusUnset
	case string:
		*s = CheckStatus(v)
	case []byte:
		*s = CheckStatus(v)
	default:
		return fmt.Errorf("unsupported check status type %T", value)
	}
	return nil
}

// Value stores StatusUnset as NULL.
func (s CheckStatus) Value() (driver.Value, error) {
	if s == StatusUnset {
		return nil, nil
	}
	return string(s), nil
}

// ScoreColumns is one nullable reputation group as stored.
type ScoreColumns struct {
	Cap          *float64
	Astroturf    *float64
	FakeFollower *float64
	Financial    *float64
	Other        *float64
	Overall      *float64
	SelfDeclared *float64
	Spammer      *float64
}

// Follower is one row per distinct follower ever observed.
type Follower struct {
	ID              uint   `gorm:"primaryKey"`
	ScreenName      string `gorm:"not null;uniqueIndex"`
	Name            string
	Description     string
	FollowersCount  int
	FriendsCount    int
	ListedCount     int
	FavouritesCount int
	// AccountCreatedAt is the follower's own sign-up time, not the row's.
	AccountCreatedAt *time.Time   `gorm:"column:created_at"`
	English          ScoreColumns `gorm:"embedded;embeddedPrefix:en_"`
	Universal        ScoreColumns `gorm:"embedded;embeddedPrefix:un_"`
	LastCheckDate    *time.Time
	LastCheckStatus  CheckStatus `gorm:"type:text"`
}

func (Follower) TableName() string { return "followers" }

// SyncState tracks an in-flight follower listing so it can resume.
type SyncState struct {
	Account       string `gorm:"primaryKey"`
	Cursor        string
	Pages         int
	Added         int
	InProgress    bool
	LastAttemptAt *time.Time
	LastSuccessAt *time.Time
}

// Profile is the snapshot captured when a follower is first discovered.
type Profile struct {
	ScreenName      string
	Name            string
	Description     string
	FollowersCount  int
	FriendsCount    int
	ListedCount     int
	FavouritesCount int
	CreatedAt       time.Time
}

// ScoreGroup is one complete reputation group.
type ScoreGroup struct {
	Cap          float64
	Astroturf    float64
	FakeFollower float64
	Financial    float64
	Other        float64
	Overall      float64
	SelfDeclared float64
	Spammer      float64
}

// Reputation holds both groups written by a successful check.
type Reputation struct {
	English   ScoreGroup
	Universal ScoreGroup
}

func (p Profile) toFollower() Follower {
	f := Follower{
		ScreenName:      p.ScreenName,
		Name:            p.Name,
		Description:     p.Description,
		FollowersCount:  p.FollowersCount,
		FriendsCount:    p.FriendsCount,
		ListedCount:     p.ListedCount,
		FavouritesCount: p.FavouritesCount,
	}
	if !p.CreatedAt.IsZero() {
		created := p.CreatedAt
		f.AccountCreatedAt = &created
	}
	return f
}

func (g ScoreGroup) columns(prefix string, into map[string]interface{}) {
	into[prefix+"cap"] = g.Cap
	into[prefix+"astroturf"] = g.Astroturf
	into[prefix+"fake_follower"] = g.FakeFollower
	into[prefix+"financial"] = g.Financial
	into[prefix+"other"] = g.Other
	into[prefix+"overall"] = g.Overall
	into[prefix+"self_declared"] = g.SelfDeclared
	into[prefix+"spammer"] = g.Spammer
}
