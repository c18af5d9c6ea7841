// Package retry provides backoff strategies and a retry loop for transient
// failures in remote calls.
//
// Errors are classified through botcheck/pkg/errors: network, server and
// rate-limit errors are retried, everything else returns immediately.
// Throttling errors honor the server's RetryAfter hint when present and,
// with AbsorbRateLimits set, wait indefinitely without consuming the
// attempt budget:
//
//	cfg := retry.DefaultConfig()
//	cfg.AbsorbRateLimits = true
//	err := retry.Do(ctx, cfg, func() error {
//		return client.fetchPage(ctx, cursor)
//	})
//
// Every wait goes through Wait, which returns early with ctx.Err() when the
// context is cancelled.
package retry
