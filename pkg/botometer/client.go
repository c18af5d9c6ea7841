package botometer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	errs "botcheck/pkg/errors"
	"botcheck/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	// BaseURL is the default RapidAPI gateway for the scoring service
	BaseURL = "https://botometer-pro.p.rapidapi.com"

	// Host is sent as x-rapidapi-host
	Host = "botometer-pro.p.rapidapi.com"

	CheckAccountEndpoint = "/4/check_account"
)

// TweetSource supplies the account data the scoring service evaluates
type TweetSource interface {
	User(ctx context.Context, screenName string) (json.RawMessage, error)
	UserTimeline(ctx context.Context, screenName string) ([]json.RawMessage, error)
	Mentions(ctx context.Context, screenName string) ([]json.RawMessage, error)
}

// Options configures a Client
type Options struct {
	BaseURL string
	Host    string
	APIKey  string
	Timeout time.Duration
	Logger  logger.Logger
}

// Client scores accounts. It never retries; throttling and quota decisions
// belong to the caller.
type Client struct {
	http   *resty.Client
	source TweetSource
	logger logger.Logger
}

// NewClient creates a scoring client that gathers tweets from source
func NewClient(source TweetSource, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errs.Config(errs.ErrMissingCredentials, "rapidapi key is required")
	}
	if source == nil {
		return nil, errs.New(errs.ErrorTypeConfig, "tweet source is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Host == "" {
		opts.Host = Host
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("x-rapidapi-key", opts.APIKey).
		SetHeader("x-rapidapi-host", opts.Host).
		SetHeader("Content-Type", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(logger.NewRestyLogger(opts.Logger))

	return &Client{http: rc, source: source, logger: opts.Logger}, nil
}

// CheckAccount gathers screenName's profile, timeline and mentions and
// returns the service's scores. An account without tweets fails with
// ErrorTypeNoTimeline before the service is called.
func (c *Client) CheckAccount(ctx context.Context, screenName string) (*Result, error) {
	user, err := c.source.User(ctx, screenName)
	if err != nil {
		return nil, fmt.Errorf("look up %s: %w", screenName, err)
	}

	timeline, err := c.source.UserTimeline(ctx, screenName)
	if err != nil {
		return nil, fmt.Errorf("timeline of %s: %w", screenName, err)
	}
	if len(timeline) == 0 {
		return nil, errs.New(errs.ErrorTypeNoTimeline, fmt.Sprintf("%s has no tweets in timeline", screenName))
	}

	mentions, err := c.source.Mentions(ctx, screenName)
	if err != nil {
		return nil, fmt.Errorf("mentions of %s: %w", screenName, err)
	}
	if mentions == nil {
		mentions = []json.RawMessage{}
	}

	start := time.Now()
	var result Result
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(checkRequest{User: user, Timeline: timeline, Mentions: mentions}).
		SetResult(&result).
		SetError(&apiError{}).
		Post(CheckAccountEndpoint)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "check_account request failed")
	}

	logger.LogRequest(c.logger, http.MethodPost, CheckAccountEndpoint, resp.StatusCode(), time.Since(start))

	if resp.IsError() {
		body, _ := resp.Error().(*apiError)
		text := body.text()
		if text == "" {
			text = http.StatusText(resp.StatusCode())
		}
		apiErr := errs.FromStatus(resp.StatusCode(), text)
		if apiErr.Type == errs.ErrorTypeAuth {
			// every RapidAPI 401 is about the key, never the scored account
			apiErr.Type = errs.ErrorTypeCredentials
		}
		return nil, apiErr
	}

	c.logger.DebugWithFields("account scored", map[string]interface{}{
		"screen_name": screenName,
		"cap_en":      result.Cap.English,
		"cap_un":      result.Cap.Universal,
	})
	return &result, nil
}
