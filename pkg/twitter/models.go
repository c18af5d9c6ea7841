package twitter

import (
	"time"

	"github.com/goccy/go-json"
)

// User is the subset of a v1.1 user object the follower store keeps
type User struct {
	ID              int64  `json:"id"`
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	FollowersCount  int    `json:"followers_count"`
	FriendsCount    int    `json:"friends_count"`
	ListedCount     int    `json:"listed_count"`
	FavouritesCount int    `json:"favourites_count"`
	StatusesCount   int    `json:"statuses_count"`
	Protected       bool   `json:"protected"`
	CreatedAt       string `json:"created_at"`
}

// Created parses the account creation time, e.g. "Wed Oct 10 20:19:24 +0000 2018".
func (u User) Created() (time.Time, error) {
	return time.Parse(time.RubyDate, u.CreatedAt)
}

// Page is one batch of followers in listing order
type Page struct {
	Users      []User
	NextCursor string
}

// Last reports whether no further pages follow.
func (p Page) Last() bool {
	return p.NextCursor == "" || p.NextCursor == "0"
}

type followersResponse struct {
	Users         []User `json:"users"`
	NextCursor    int64  `json:"next_cursor"`
	NextCursorStr string `json:"next_cursor_str"`
}

type searchResponse struct {
	Statuses []json.RawMessage `json:"statuses"`
}

// apiError covers both error envelopes the v1.1 API returns
type apiError struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Error string `json:"error"`
}

func (e *apiError) message() string {
	if e == nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return ""
}

func (e *apiError) hasCode(codes ...int) bool {
	if e == nil {
		return false
	}
	for _, got := range e.Errors {
		for _, want := range codes {
			if got.Code == want {
				return true
			}
		}
	}
	return false
}
