package imagechat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/mhpenta/imagechat/ratelimiter"
)

// Models are the fixed model identifiers a Client merges into every request.
type Models struct {
	// Chat is used for text and vision completions.
	Chat string

	// Image is used for generation and edits.
	Image string
}

// RetryPolicy controls how failed provider calls are retried. Only rate
// limit and transient errors are retried.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
	}
}

// Client is the single entry point to a Provider. It merges the configured
// model into every request, validates requests before they are sent, applies
// rate limits and retries, logs a redacted copy of each payload, and wraps
// failures in *ProviderError.
//
// A Client holds no per-request state and is safe for concurrent use.
type Client struct {
	provider Provider
	models   Models
	enums    Enumerations
	retry    RetryPolicy

	limiters        ratelimiter.Registry
	waitOnRateLimit bool
	maxWait         time.Duration
	tokenEstimator  TokenEstimator

	logger *slog.Logger
}

// NewClient creates a Client around provider.
//
// Example:
//
//	p := openai.New(openai.Config{APIKey: key})
//	client := imagechat.NewClient(p, imagechat.Models{Chat: "gpt-4o", Image: "gpt-image-1"},
//	    imagechat.WithLogger(slog.Default()),
//	)
func NewClient(provider Provider, models Models, opts ...ClientOption) *Client {
	c := &Client{
		provider:       provider,
		models:         models,
		enums:          DefaultEnumerations(),
		retry:          DefaultRetryPolicy(),
		limiters:       ratelimiter.NewRegistry(),
		tokenEstimator: NewSimpleTokenEstimator(),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.enums = c.enums.withFallbacks()
	return c
}

// WithChatModel returns a Client that shares everything with c but merges a
// different chat model, e.g. a cheaper model for parameter optimization.
func (c *Client) WithChatModel(model string) *Client {
	if model == "" || model == c.models.Chat {
		return c
	}
	cp := *c
	cp.models.Chat = model
	return &cp
}

// Models returns the model identifiers merged into requests.
func (c *Client) Models() Models {
	return c.models
}

// Enumerations returns the allow-lists requests are validated against.
func (c *Client) Enumerations() Enumerations {
	return c.enums
}

// ProviderName returns the name of the wrapped provider.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// Close releases provider resources.
func (c *Client) Close() error {
	return c.provider.Close()
}

// CompleteChat runs a text or vision completion.
func (c *Client) CompleteChat(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req == nil {
		return nil, ValidateCompletionRequest(nil)
	}
	sent := *req
	sent.Model = c.models.Chat

	if err := ValidateCompletionRequest(&sent); err != nil {
		c.logger.Warn("rejected malformed completion request", "error", err.Error())
		return nil, err
	}

	return invoke(ctx, c, OpChatCompletion, sent.Model, &sent, estimateCompletionTokens(c.tokenEstimator, &sent),
		func(ctx context.Context) (*CompletionResponse, error) {
			resp, err := c.provider.CompleteChat(ctx, &sent)
			if err == nil && resp == nil {
				return nil, ErrEmptyCompletion
			}
			return resp, err
		},
		func(resp *CompletionResponse) []any {
			attrs := []any{"finish_reason", resp.FinishReason, "content_length", len(resp.Content)}
			return append(attrs, usageAttrs(resp.Usage)...)
		},
	)
}

// GenerateImages creates images from a prompt.
func (c *Client) GenerateImages(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error) {
	if req == nil {
		return nil, ValidateGenerateRequest(nil, c.enums)
	}
	sent := *req
	sent.Model = c.models.Image

	if err := ValidateGenerateRequest(&sent, c.enums); err != nil {
		c.logger.Warn("rejected malformed generate request", "error", err.Error())
		return nil, err
	}

	return invoke(ctx, c, OpImageGeneration, sent.Model, &sent, c.tokenEstimator.EstimateTokens(sent.Prompt),
		func(ctx context.Context) (*ImageResponse, error) {
			resp, err := c.provider.GenerateImages(ctx, &sent)
			if err == nil && resp == nil {
				return nil, ErrEmptyImageResult
			}
			return resp, err
		},
		imageResponseAttrs,
	)
}

// EditImages edits one or more images following a prompt.
func (c *Client) EditImages(ctx context.Context, req *ImageEditRequest) (*ImageResponse, error) {
	if req == nil {
		return nil, ValidateEditRequest(nil, c.enums)
	}
	sent := *req
	sent.Model = c.models.Image

	if err := ValidateEditRequest(&sent, c.enums); err != nil {
		c.logger.Warn("rejected malformed edit request", "error", err.Error())
		return nil, err
	}

	return invoke(ctx, c, OpImageEdit, sent.Model, &sent, c.tokenEstimator.EstimateTokens(sent.Prompt),
		func(ctx context.Context) (*ImageResponse, error) {
			resp, err := c.provider.EditImages(ctx, &sent)
			if err == nil && resp == nil {
				return nil, ErrEmptyImageResult
			}
			return resp, err
		},
		imageResponseAttrs,
	)
}

type noRetryKey struct{}

// WithoutRetry returns a context under which Client calls are attempted
// once, regardless of the retry policy. Use it when the caller has its own
// fallback for a failed call.
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func retriesDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}

// invoke runs call under the client's rate limit and retry policy.
func invoke[T any](
	ctx context.Context,
	c *Client,
	op Op,
	model string,
	payload any,
	estimatedTokens int,
	call func(context.Context) (T, error),
	describe func(T) []any) (T, error) {

	var zero T
	start := time.Now()

	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("provider request",
			"op", string(op),
			"provider", c.provider.Name(),
			"model", model,
			"payload", RedactPayload(payload),
		)
	}

	if err := c.checkRateLimit(ctx, op, model, estimatedTokens); err != nil {
		c.logger.Warn("rate limit hit",
			"op", string(op),
			"model", model,
			"error", err.Error(),
		)
		return zero, &ProviderError{Op: op, Provider: c.provider.Name(), Err: err}
	}

	maxTries := uint(max(c.retry.MaxRetries, 0) + 1)
	if retriesDisabled(ctx) {
		maxTries = 1
	}

	attempts := 0
	result, err := backoff.Retry(ctx,
		func() (T, error) {
			attempts++
			v, err := call(ctx)
			if err != nil && !IsRetryable(err) {
				return zero, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("retrying provider call",
				"op", string(op),
				"model", model,
				"attempt", attempts,
				"backoff_ms", next.Milliseconds(),
				"error", err.Error(),
			)
		}),
	)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("provider call failed",
			"op", string(op),
			"provider", c.provider.Name(),
			"model", model,
			"attempts", attempts,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return zero, &ProviderError{Op: op, Provider: c.provider.Name(), Err: err}
	}

	attrs := []any{
		"op", string(op),
		"model", model,
		"attempts", attempts,
		"duration_ms", duration.Milliseconds(),
	}
	c.logger.Info("provider call completed", append(attrs, describe(result)...)...)

	return result, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.retry.InitialBackoff > 0 {
		b.InitialInterval = c.retry.InitialBackoff
	}
	if c.retry.MaxBackoff > 0 {
		b.MaxInterval = c.retry.MaxBackoff
	}
	return b
}

// checkRateLimit charges the estimated tokens against the limiter registered
// for op, optionally waiting for capacity.
func (c *Client) checkRateLimit(ctx context.Context, op Op, model string, estimatedTokens int) error {
	const tokenBuffer = 100

	limiter, ok := c.limiters.Get(string(op))
	if !ok {
		return nil
	}

	estimatedTokens += tokenBuffer

	if c.waitOnRateLimit {
		err := limiter.WaitAndConsume(ctx, estimatedTokens, c.maxWait)
		if errors.Is(err, ratelimiter.ErrExceedsCapacity) {
			return err
		}
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return &RateLimitError{
				RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
				LimitType:  "local",
				Model:      model,
				Err:        err,
			}
		}
		return err
	}

	if !limiter.TryConsume(estimatedTokens) {
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  "local",
			Model:      model,
		}
	}
	return nil
}

func imageResponseAttrs(resp *ImageResponse) []any {
	return append([]any{"image_count", len(resp.Images)}, usageAttrs(resp.Usage)...)
}

func usageAttrs(u *Usage) []any {
	if u == nil {
		return nil
	}
	return []any{
		"prompt_tokens", u.PromptTokens,
		"completion_tokens", u.CompletionTokens,
		"total_tokens", u.TotalTokens,
	}
}
