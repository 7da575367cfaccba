// Package ratelimit throttles outbound requests.
//
// TokenBucket wraps golang.org/x/time/rate. Downloads use NewPerMinute with
// the configured requests_per_minute; zero disables throttling.
//
//	limiter := ratelimit.NewPerMinute(30)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
