package botometer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	user        json.RawMessage
	timeline    []json.RawMessage
	mentions    []json.RawMessage
	timelineErr error
}

func (f *fakeSource) User(ctx context.Context, screenName string) (json.RawMessage, error) {
	return f.user, nil
}

func (f *fakeSource) UserTimeline(ctx context.Context, screenName string) ([]json.RawMessage, error) {
	return f.timeline, f.timelineErr
}

func (f *fakeSource) Mentions(ctx context.Context, screenName string) ([]json.RawMessage, error) {
	return f.mentions, nil
}

const scoredBody = `{
  "cap": {"english": 0.81, "universal": 0.77},
  "raw_scores": {
    "english": {"astroturf": 0.1, "fake_follower": 0.2, "financial": 0.3, "other": 0.4, "overall": 0.5, "self_declared": 0.6, "spammer": 0.7},
    "universal": {"astroturf": 0.11, "fake_follower": 0.21, "financial": 0.31, "other": 0.41, "overall": 0.51, "self_declared": 0.61, "spammer": 0.71}
  },
  "user": {"majority_lang": "en"}
}`

func newSource() *fakeSource {
	return &fakeSource{
		user:     json.RawMessage(`{"screen_name":"bob"}`),
		timeline: []json.RawMessage{json.RawMessage(`{"id":1}`)},
		mentions: []json.RawMessage{},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, source TweetSource) *Client {
	t.Helper()
	client, err := NewClient(source, Options{
		BaseURL: srv.URL,
		Host:    "scoring.test",
		APIKey:  "rapid-key",
		Logger:  logger.NewTestLogger(),
	})
	require.NoError(t, err)
	return client
}

func TestCheckAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, CheckAccountEndpoint, r.URL.Path)
		assert.Equal(t, "rapid-key", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "scoring.test", r.Header.Get("x-rapidapi-host"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.JSONEq(t, `{"screen_name":"bob"}`, string(body["user"]))
		assert.JSONEq(t, `[{"id":1}]`, string(body["timeline"]))
		assert.JSONEq(t, `[]`, string(body["mentions"]))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(scoredBody))
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv, newSource()).CheckAccount(context.Background(), "bob")
	require.NoError(t, err)
	assert.InDelta(t, 0.81, result.Cap.English, 1e-9)
	assert.InDelta(t, 0.77, result.Cap.Universal, 1e-9)
	assert.InDelta(t, 0.2, result.RawScores.English.FakeFollower, 1e-9)
	assert.InDelta(t, 0.71, result.RawScores.Universal.Spammer, 1e-9)
}

func TestCheckAccountEmptyTimeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("scoring service must not be called")
	}))
	defer srv.Close()

	source := newSource()
	source.timeline = nil

	_, err := newTestClient(t, srv, source).CheckAccount(context.Background(), "quiet")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrorTypeNoTimeline))
}

func TestCheckAccountSourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("scoring service must not be called")
	}))
	defer srv.Close()

	source := newSource()
	source.timelineErr = errs.FromStatus(http.StatusUnauthorized, "Not authorized.")

	_, err := newTestClient(t, srv, source).CheckAccount(context.Background(), "locked")
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestCheckAccountStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   errs.ErrorType
	}{
		{"quota", http.StatusTooManyRequests, `{"message":"You have exceeded the DAILY quota"}`, errs.ErrorTypeRateLimit},
		{"bad key", http.StatusUnauthorized, `{"message":"Invalid API key. Go to https://docs.rapidapi.com/docs/keys for more info."}`, errs.ErrorTypeCredentials},
		{"not subscribed", http.StatusForbidden, `{"message":"You are not subscribed to this API."}`, errs.ErrorTypeForbidden},
		{"server", http.StatusBadGateway, ``, errs.ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, newSource()).CheckAccount(context.Background(), "bob")
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.TypeOf(err))
			assert.Equal(t, 1, calls)
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(newSource(), Options{})
	assert.True(t, errors.Is(err, errs.ErrMissingCredentials))
}
