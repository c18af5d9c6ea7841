package twitter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
	"botcheck/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-bearer"

// newAPIServer serves the token endpoint and routes everything else to api
// once the bearer token checks out.
func newAPIServer(t *testing.T, api http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "key" || secret != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"errors":[{"code":99,"message":"Unable to verify your credentials"}]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"bearer","access_token":"` + testToken + `"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		api(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestClient(t *testing.T, srv *httptest.Server, secret string, sleeps *sleepRecorder) *Client {
	t.Helper()
	if sleeps == nil {
		sleeps = &sleepRecorder{}
	}
	client, err := NewClient(Options{
		BaseURL:        srv.URL,
		TokenURL:       srv.URL + "/oauth2/token",
		ConsumerKey:    "key",
		ConsumerSecret: secret,
		Timeout:        5 * time.Second,
		RateLimitWait:  time.Minute,
		Retry: &retry.Config{
			MaxAttempts:      3,
			Backoff:          &retry.ConstantBackoff{Delay: time.Millisecond},
			AbsorbRateLimits: true,
			Sleep:            sleeps.sleep,
		},
		Logger: logger.NewTestLogger(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Options{ConsumerKey: "key"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrMissingCredentials))
	assert.True(t, errs.Is(err, errs.ErrorTypeConfig))
}

func TestFollowerPagesWalksCursor(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, FollowersEndpoint, r.URL.Path)
		assert.Equal(t, "alice", q.Get("screen_name"))
		assert.Equal(t, "200", q.Get("count"))
		assert.Equal(t, "true", q.Get("skip_status"))

		switch q.Get("cursor") {
		case "-1":
			w.Write([]byte(`{"users":[{"screen_name":"a","followers_count":3},{"screen_name":"b"}],"next_cursor":123,"next_cursor_str":"123"}`))
		case "123":
			w.Write([]byte(`{"users":[{"screen_name":"c","created_at":"Wed Oct 10 20:19:24 +0000 2018"}],"next_cursor":0,"next_cursor_str":"0"}`))
		default:
			t.Errorf("unexpected cursor %q", q.Get("cursor"))
		}
	})
	client := newTestClient(t, srv, "secret", nil)

	var pages []Page
	err := client.FollowerPages(context.Background(), "alice", "", func(p Page) error {
		pages = append(pages, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "123", pages[0].NextCursor)
	assert.False(t, pages[0].Last())
	assert.Equal(t, 3, pages[0].Users[0].FollowersCount)
	assert.True(t, pages[1].Last())

	created, err := pages[1].Users[0].Created()
	require.NoError(t, err)
	assert.Equal(t, 2018, created.Year())
}

func TestFollowerPagesResumesFromCursor(t *testing.T) {
	var calls int32
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "555", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"users":[{"screen_name":"z"}],"next_cursor_str":"0"}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	err := client.FollowerPages(context.Background(), "alice", "555", func(Page) error { return nil })
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFollowerPagesStopsOnCallbackError(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[],"next_cursor_str":"9"}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	boom := errors.New("disk full")
	err := client.FollowerPages(context.Background(), "alice", "", func(Page) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestFollowerPagesEmptyAccount(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	client := newTestClient(t, srv, "secret", nil)

	err := client.FollowerPages(context.Background(), "", "", func(Page) error { return nil })
	assert.ErrorIs(t, err, errs.ErrEmptyAccount)
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Allow() bool { return true }
func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return nil
}
func (l *countingLimiter) Reset() {}

func TestFollowerPagesUsesLimiter(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "-1" {
			w.Write([]byte(`{"users":[],"next_cursor_str":"2"}`))
			return
		}
		w.Write([]byte(`{"users":[],"next_cursor_str":"0"}`))
	})
	client := newTestClient(t, srv, "secret", nil)
	limiter := &countingLimiter{}
	client.limiter = limiter

	require.NoError(t, client.FollowerPages(context.Background(), "alice", "", func(Page) error { return nil }))
	assert.Equal(t, 2, limiter.waits)
}

func TestRateLimitWaitsUntilReset(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var calls int32
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("x-rate-limit-reset", strconv.FormatInt(now.Add(30*time.Second).Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`))
			return
		}
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	})
	sleeps := &sleepRecorder{}
	client := newTestClient(t, srv, "secret", sleeps)
	client.now = func() time.Time { return now }

	tweets, err := client.UserTimeline(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, tweets, 2)
	assert.Equal(t, []time.Duration{30 * time.Second}, sleeps.delays)
}

func TestRateLimitWithoutResetHeader(t *testing.T) {
	client := &Client{rateLimitWait: 42 * time.Second, now: time.Now}
	assert.Equal(t, 42*time.Second, client.resetWait(""))
	assert.Equal(t, 42*time.Second, client.resetWait("garbage"))
	assert.Equal(t, time.Second, client.resetWait("1"))
}

func TestProtectedTimelineIsAuthError(t *testing.T) {
	var calls int32
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"request":"/1.1/statuses/user_timeline.json","error":"Not authorized."}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	_, err := client.UserTimeline(context.Background(), "locked")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
	assert.Contains(t, err.Error(), "Not authorized")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestUnknownUserIsNotFound(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"code":50,"message":"User not found."}]}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	_, err := client.User(context.Background(), "ghost")
	assert.True(t, errs.Is(err, errs.ErrorTypeNotFound))
}

func TestServerErrorRetries(t *testing.T) {
	var calls int32
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"statuses":[{"id":7}]}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	mentions, err := client.Mentions(context.Background(), "bob")
	require.NoError(t, err)
	assert.Len(t, mentions, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestMentionsQuery(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SearchEndpoint, r.URL.Path)
		assert.Equal(t, "@bob", r.URL.Query().Get("q"))
		assert.Equal(t, "100", r.URL.Query().Get("count"))
		w.Write([]byte(`{"statuses":[]}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	mentions, err := client.Mentions(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, mentions)
}

func TestBadCredentialsAreCredentialErrors(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("API must not be reached without a token")
	})
	client := newTestClient(t, srv, "wrong", nil)

	err := client.VerifyCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeCredentials))

	_, err = client.UserTimeline(context.Background(), "bob")
	assert.True(t, errs.Is(err, errs.ErrorTypeCredentials), "a rejected app is never mistaken for a protected account")
}

func TestStatusCodeClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   errs.ErrorType
	}{
		{"protected", http.StatusUnauthorized, `{"error":"Not authorized."}`, errs.ErrorTypeAuth},
		{"invalid token", http.StatusUnauthorized, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`, errs.ErrorTypeCredentials},
		{"could not authenticate", http.StatusUnauthorized, `{"errors":[{"code":32,"message":"Could not authenticate you."}]}`, errs.ErrorTypeCredentials},
		{"suspended", http.StatusForbidden, `{"errors":[{"code":63,"message":"User has been suspended."}]}`, errs.ErrorTypeNotFound},
		{"user not found", http.StatusForbidden, `{"errors":[{"code":50,"message":"User not found."}]}`, errs.ErrorTypeNotFound},
		{"forbidden", http.StatusForbidden, `{"errors":[{"code":453,"message":"You currently have access to a subset of endpoints"}]}`, errs.ErrorTypeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			client := newTestClient(t, srv, "secret", nil)

			_, err := client.User(context.Background(), "someone")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.TypeOf(err))
		})
	}
}

func TestVerifyCredentials(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RateStatusEndpoint, r.URL.Path)
		w.Write([]byte(`{"resources":{}}`))
	})
	client := newTestClient(t, srv, "secret", nil)

	assert.NoError(t, client.VerifyCredentials(context.Background()))
}

func TestSanitizeScreenName(t *testing.T) {
	assert.Equal(t, "alice", SanitizeScreenName("@alice"))
	assert.Equal(t, "alice", SanitizeScreenName(" alice/ "))
	assert.True(t, IsValidScreenName("alice_99"))
	assert.False(t, IsValidScreenName("alice.b"))
	assert.False(t, IsValidScreenName("abcdefghijklmnop"))
	assert.False(t, IsValidScreenName(""))
}
