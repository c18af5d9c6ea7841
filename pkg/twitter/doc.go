// Package twitter is a small v1.1 REST client for follower listing and the
// tweet lookups reputation scoring needs.
//
// Requests carry an application-only bearer token obtained with the OAuth2
// client-credentials grant. Follower pages are paced by a ratelimit.Limiter
// and throttled responses wait until the x-rate-limit-reset time before the
// request is repeated.
//
//	client, err := twitter.NewClient(twitter.Options{
//	    ConsumerKey:    key,
//	    ConsumerSecret: secret,
//	    Limiter:        ratelimit.NewSlidingWindow(15, 15*time.Minute, nil),
//	})
//	err = client.FollowerPages(ctx, "alice", "", func(p twitter.Page) error {
//	    return save(p.Users, p.NextCursor)
//	})
package twitter
