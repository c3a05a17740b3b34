package openai

import (
	"net/http"
	"strconv"
	"time"
)

const defaultRetryAfter = 20 * time.Second

// retryAfter reads the Retry-After header, in seconds, from a 429 response.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return defaultRetryAfter
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}
