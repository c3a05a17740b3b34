package imagechat

import "github.com/mhpenta/imagechat/ratelimiter"

// ModelKind says which capabilities a model serves.
type ModelKind string

const (
	// ModelKindChat models serve text and vision completions.
	ModelKindChat ModelKind = "chat"

	// ModelKindImage models serve image generation and edits.
	ModelKindImage ModelKind = "image"
)

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// ModelInfo contains the metadata a Client needs about a model.
type ModelInfo struct {
	// Name is the API model identifier, e.g. "gpt-image-1".
	Name string
	Kind ModelKind

	// ContextLength is the model's input window in tokens, 0 if unknown.
	ContextLength int

	RateLimits RateLimits
}

// ops returns the capabilities served by a model of this kind.
func (m ModelInfo) ops() []Op {
	switch m.Kind {
	case ModelKindChat:
		return []Op{OpChatCompletion}
	case ModelKindImage:
		return []Op{OpImageGeneration, OpImageEdit}
	}
	return nil
}

// WithModelInfo installs in-memory limiters derived from each model's
// published rate limits, for the capabilities that model serves. Models
// without limits are skipped.
func WithModelInfo(models ...ModelInfo) ClientOption {
	return func(c *Client) {
		for _, m := range models {
			rl := m.RateLimits
			if rl.TokensPerMinute <= 0 && rl.RequestsPerMinute <= 0 {
				continue
			}
			for _, op := range m.ops() {
				c.limiters.Set(string(op), ratelimiter.New(rl.TokensPerMinute, rl.RequestsPerMinute))
			}
		}
	}
}
