package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"
	"botcheck/pkg/ratelimit"
	"botcheck/pkg/retry"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Options configures a Client
type Options struct {
	BaseURL        string
	TokenURL       string
	ConsumerKey    string
	ConsumerSecret string
	PageSize       int
	Timeout        time.Duration
	// RateLimitWait is used when a 429 carries no x-rate-limit-reset header
	RateLimitWait time.Duration
	// Limiter paces follower page requests
	Limiter ratelimit.Limiter
	Retry   *retry.Config
	Logger  logger.Logger
}

// Client talks to the v1.1 REST API with an application-only bearer token
type Client struct {
	http          *resty.Client
	pageSize      int
	rateLimitWait time.Duration
	limiter       ratelimit.Limiter
	retryConfig   *retry.Config
	logger        logger.Logger
	now           func() time.Time
}

// NewClient creates a client whose transport fetches and refreshes the bearer token
func NewClient(opts Options) (*Client, error) {
	if opts.ConsumerKey == "" || opts.ConsumerSecret == "" {
		return nil, errs.Config(errs.ErrMissingCredentials, "twitter consumer key and secret are required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = TokenURL
	}
	if opts.PageSize <= 0 || opts.PageSize > DefaultPageSize {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimitWait <= 0 {
		opts.RateLimitWait = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
		opts.Retry.AbsorbRateLimits = true
		opts.Retry.Logger = opts.Logger
	}

	creds := &clientcredentials.Config{
		ClientID:     opts.ConsumerKey,
		ClientSecret: opts.ConsumerSecret,
		TokenURL:     opts.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: opts.Timeout})
	httpClient := creds.Client(tokenCtx)
	httpClient.Timeout = opts.Timeout

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(logger.NewRestyLogger(opts.Logger))

	return &Client{
		http:          rc,
		pageSize:      opts.PageSize,
		rateLimitWait: opts.RateLimitWait,
		limiter:       opts.Limiter,
		retryConfig:   opts.Retry,
		logger:        opts.Logger,
		now:           time.Now,
	}, nil
}

// get performs one GET, decoding a 2xx body into result and mapping failures to typed errors
func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		start := time.Now()
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(result).
			SetError(&apiError{}).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var tokenErr *oauth2.RetrieveError
			if errors.As(err, &tokenErr) {
				return tokenError(tokenErr)
			}
			c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return errs.Wrap(errs.ErrorTypeNetwork, err, fmt.Sprintf("request %s", path))
		}

		logger.LogRequest(c.logger, http.MethodGet, path, resp.StatusCode(), time.Since(start))

		if !resp.IsError() {
			return nil
		}
		return c.statusError(path, resp)
	})
}

func (c *Client) statusError(path string, resp *resty.Response) error {
	msg, _ := resp.Error().(*apiError)
	text := msg.message()
	if text == "" {
		text = http.StatusText(resp.StatusCode())
	}

	apiErr := errs.FromStatus(resp.StatusCode(), text)
	switch apiErr.Type {
	case errs.ErrorTypeAuth:
		// a bare 401 is a protected account; these codes reject the app itself
		if msg.hasCode(codeCouldNotAuthenticate, codeInvalidToken, codeUnverifiedCreds) {
			apiErr.Type = errs.ErrorTypeCredentials
		}
	case errs.ErrorTypeForbidden:
		if msg.hasCode(codeUserNotFound, codeUserSuspended) {
			apiErr.Type = errs.ErrorTypeNotFound
		}
	case errs.ErrorTypeRateLimit:
		apiErr.RetryAfter = c.resetWait(resp.Header().Get("x-rate-limit-reset"))
		logger.LogRateLimit(c.logger, path, apiErr.RetryAfter)
	}
	return apiErr
}

// tokenError maps a failed bearer token exchange. Only a server-side
// failure is worth retrying; anything else means the app keys are wrong.
func tokenError(err *oauth2.RetrieveError) error {
	if err.Response != nil && err.Response.StatusCode >= 500 {
		e := errs.Wrap(errs.ErrorTypeServerError, err, "obtain bearer token")
		e.Code = err.Response.StatusCode
		return e
	}
	return errs.Wrap(errs.ErrorTypeCredentials, err, "twitter rejected the consumer key and secret")
}

// resetWait converts an epoch-seconds reset header into a wait from now
func (c *Client) resetWait(header string) time.Duration {
	reset, err := strconv.ParseInt(header, 10, 64)
	if err != nil || reset <= 0 {
		return c.rateLimitWait
	}
	wait := time.Unix(reset, 0).Sub(c.now())
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

// FollowerPages lists account's followers starting at cursor ("" for the
// beginning) and hands each page to fn before requesting the next.
// Listing stops at the last page or at the first error from fn.
func (c *Client) FollowerPages(ctx context.Context, account, cursor string, fn func(Page) error) error {
	if account == "" {
		return errs.ErrEmptyAccount
	}
	if cursor == "" || cursor == "0" {
		cursor = firstCursor
	}

	for {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var body followersResponse
		err := c.get(ctx, FollowersEndpoint, map[string]string{
			"screen_name":           account,
			"count":                 strconv.Itoa(c.pageSize),
			"cursor":                cursor,
			"skip_status":           "true",
			"include_user_entities": "false",
		}, &body)
		if err != nil {
			return fmt.Errorf("list followers of %s: %w", account, err)
		}

		next := body.NextCursorStr
		if next == "" {
			next = strconv.FormatInt(body.NextCursor, 10)
		}
		page := Page{Users: body.Users, NextCursor: next}

		c.logger.DebugWithFields("follower page fetched", map[string]interface{}{
			"account": account,
			"users":   len(page.Users),
			"next":    next,
		})

		if err := fn(page); err != nil {
			return err
		}
		if page.Last() {
			return nil
		}
		cursor = next
	}
}

// User returns the raw user object for screenName
func (c *Client) User(ctx context.Context, screenName string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, UserShowEndpoint, map[string]string{
		"screen_name":      screenName,
		"include_entities": "false",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// UserTimeline returns up to TimelineCount recent tweets, retweets included
func (c *Client) UserTimeline(ctx context.Context, screenName string) ([]json.RawMessage, error) {
	var tweets []json.RawMessage
	err := c.get(ctx, TimelineEndpoint, map[string]string{
		"screen_name": screenName,
		"count":       strconv.Itoa(TimelineCount),
		"include_rts": "true",
	}, &tweets)
	if err != nil {
		return nil, err
	}
	return tweets, nil
}

// Mentions returns up to MentionCount recent tweets mentioning screenName
func (c *Client) Mentions(ctx context.Context, screenName string) ([]json.RawMessage, error) {
	var body searchResponse
	err := c.get(ctx, SearchEndpoint, map[string]string{
		"q":     "@" + screenName,
		"count": strconv.Itoa(MentionCount),
	}, &body)
	if err != nil {
		return nil, err
	}
	return body.Statuses, nil
}

// VerifyCredentials obtains a bearer token and makes one cheap authenticated call
func (c *Client) VerifyCredentials(ctx context.Context) error {
	var status json.RawMessage
	return c.get(ctx, RateStatusEndpoint, map[string]string{"resources": "followers"}, &status)
}
