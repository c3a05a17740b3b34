package imagechat

import (
	"log/slog"
	"time"

	"github.com/mhpenta/imagechat/ratelimiter"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEnumerations sets the allow-lists requests are validated against.
// Empty lists fall back to DefaultEnumerations.
func WithEnumerations(enums Enumerations) ClientOption {
	return func(c *Client) {
		c.enums = enums
	}
}

// WithRetryPolicy sets the retry policy applied to every provider call.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithRateLimiter installs a limiter for one capability.
// Use this to swap in a distributed limiter for production.
func WithRateLimiter(op Op, limiter ratelimiter.Limiter) ClientOption {
	return func(c *Client) {
		c.limiters.Set(string(op), limiter)
	}
}

// WithRateLimits installs in-memory limiters for all three capabilities.
func WithRateLimits(tokensPerMinute, requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if tokensPerMinute <= 0 && requestsPerMinute <= 0 {
			return
		}
		for _, op := range []Op{OpChatCompletion, OpImageGeneration, OpImageEdit} {
			c.limiters.Set(string(op), ratelimiter.New(tokensPerMinute, requestsPerMinute))
		}
	}
}

// WithWaitOnRateLimit makes the client wait for rate limit capacity, up to
// maxWait (zero means no limit), instead of failing immediately.
func WithWaitOnRateLimit(maxWait time.Duration) ClientOption {
	return func(c *Client) {
		c.waitOnRateLimit = true
		c.maxWait = maxWait
	}
}

// WithTokenEstimator replaces the estimator used for rate limiting.
func WithTokenEstimator(est TokenEstimator) ClientOption {
	return func(c *Client) {
		if est != nil {
			c.tokenEstimator = est
		}
	}
}
