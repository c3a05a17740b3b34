package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrMaxWaitExceeded is returned by WaitAndConsume when the required wait is
// longer than the caller allows.
var ErrMaxWaitExceeded = errors.New("rate limit wait exceeds max wait")

// ErrExceedsCapacity is returned by WaitAndConsume when a request needs more
// tokens than the bucket can ever hold.
var ErrExceedsCapacity = errors.New("request exceeds rate limit capacity")

// RateLimiter limits both tokens and requests per minute.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   *TokenBucket
	requests *TokenBucket
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New creates a limiter allowing tokensPerMinute tokens and requestsPerMinute
// requests. A non-positive value disables that dimension.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		tokens:   NewTokenBucket(tokensPerMinute, tokensPerMinute, time.Minute),
		requests: NewTokenBucket(requestsPerMinute, requestsPerMinute, time.Minute),
	}
}

// TryConsume consumes numTokens tokens and one request, or nothing.
func (rl *RateLimiter) TryConsume(numTokens int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.tokens.HasCapacity(numTokens) || !rl.requests.HasCapacity(1) {
		return false
	}
	rl.tokens.TryConsume(numTokens)
	rl.requests.TryConsume(1)
	return true
}

// TimeUntilAvailable returns the longer of the token and request waits.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	return max(rl.tokens.TimeUntilAvailable(tokens), rl.requests.TimeUntilAvailable(1))
}

// WaitAndConsume waits until tokens are available (up to maxWait), then consumes them.
// If maxWait is 0, there is no limit on how long to wait.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	if !rl.tokens.Fits(tokens) {
		return fmt.Errorf("%w: need %d tokens, capacity %d", ErrExceedsCapacity, tokens, rl.tokens.capacity)
	}

	deadline := time.Time{}
	if maxWait > 0 {
		deadline = time.Now().Add(maxWait)
	}

	for {
		if rl.TryConsume(tokens) {
			return nil
		}

		wait := rl.TimeUntilAvailable(tokens)
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		if !deadline.IsZero() && time.Now().Add(wait).After(deadline) {
			return fmt.Errorf("%w: need %v, max %v", ErrMaxWaitExceeded, wait, maxWait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TokenBucket implements a continuously refilling token bucket.
// A bucket with non-positive capacity is unlimited.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      float64
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time
}

// NewTokenBucket creates a new token bucket that refills capacity tokens per
// refillInterval.
func NewTokenBucket(capacity int, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      float64(initialTokens),
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

func (tb *TokenBucket) unlimited() bool {
	return tb.capacity <= 0
}

// Fits reports whether a request for tokens could ever be satisfied.
func (tb *TokenBucket) Fits(tokens int) bool {
	return tb.unlimited() || tokens <= tb.capacity
}

// refill must be called with mu held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}
	rate := float64(tb.capacity) / float64(tb.refillInterval)
	tb.remaining = min(float64(tb.capacity), tb.remaining+rate*float64(elapsed))
	tb.lastRefill = now
}

// HasCapacity checks if tokens are available WITHOUT consuming them.
func (tb *TokenBucket) HasCapacity(tokens int) bool {
	if tb.unlimited() {
		return true
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return float64(tokens) <= tb.remaining
}

// TryConsume atomically checks and consumes tokens.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	if tb.unlimited() {
		return true
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	if float64(tokens) > tb.remaining {
		return false
	}
	tb.remaining -= float64(tokens)
	return true
}

// Remaining returns the current number of whole tokens available.
func (tb *TokenBucket) Remaining() int {
	if tb.unlimited() {
		return 0
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return int(tb.remaining)
}

// TimeUntilAvailable returns how long until tokens would be available (read-only).
// Requests larger than the capacity can never be satisfied and report the
// time to refill the whole bucket.
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	if tb.unlimited() {
		return 0
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()

	if float64(tokens) <= tb.remaining {
		return 0
	}
	needed := min(float64(tokens), float64(tb.capacity)) - tb.remaining
	rate := float64(tb.capacity) / float64(tb.refillInterval)
	wait := time.Duration(needed / rate)

	// Add a small buffer (10% extra time)
	return wait + wait/10
}
