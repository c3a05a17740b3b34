package imagechat

import (
	"errors"
	"fmt"
	"time"
)

// Op names the provider capability that failed.
type Op string

const (
	OpChatCompletion  Op = "chat-completion"
	OpImageGeneration Op = "image-generation"
	OpImageEdit       Op = "image-edit"
)

// Input errors.
var (
	ErrMissingInput     = errors.New("message text or at least one image is required")
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrNoImages         = errors.New("at least one image is required")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidCount     = errors.New("invalid image count")
)

// ErrEmptyCompletion is wrapped in a ProviderError when a completion returns
// no text.
var ErrEmptyCompletion = errors.New("completion returned no content")

// ErrEmptyImageResult is wrapped in a ProviderError when a generate or edit
// call returns no images.
var ErrEmptyImageResult = errors.New("provider returned no images")

// ErrNoImageData is returned when decoding a record that only carries a URL.
var ErrNoImageData = errors.New("record has no inline image data")

// InputError reports missing or malformed caller input.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid input %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(field string, err error) error {
	return &InputError{Field: field, Err: err}
}

// IsInputError checks if an error is an InputError.
func IsInputError(err error) bool {
	var inErr *InputError
	return errors.As(err, &inErr)
}

// ValidationError is returned by Client when a request is malformed. It is
// raised before anything is sent.
type ValidationError struct {
	Op     Op
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s request invalid: %s", e.Op, e.Reason)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// ProviderError reports a failed provider capability, tagged with the
// operation and carrying the original cause.
type ProviderError struct {
	Op       Op
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var pErr *ProviderError
	return errors.As(err, &pErr)
}

// ProviderOp returns the operation tag of a ProviderError in err's chain.
func ProviderOp(err error) (Op, bool) {
	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		return "", false
	}
	return pErr.Op, true
}

// asProviderError tags err with op unless it already carries a tag.
func asProviderError(op Op, provider string, err error) error {
	if err == nil {
		return nil
	}
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return err
	}
	return &ProviderError{Op: op, Provider: provider, Err: err}
}

// RateLimitError is returned when a rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// TransientError marks a provider failure that may succeed on retry, such as
// a 5xx response or a dropped connection.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode == 0 {
		return "transient provider failure: " + e.Err.Error()
	}
	return fmt.Sprintf("transient provider failure (status %d): %v", e.StatusCode, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var tErr *TransientError
	return IsRateLimitError(err) || errors.As(err, &tErr)
}
