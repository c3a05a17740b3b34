package imagechat

import (
	"math"
)

// TokenEstimator approximates how many tokens a prompt will consume; the
// Client charges the estimate against its rate limiters.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// SimpleTokenEstimator is a fast character-count approximation.
type SimpleTokenEstimator struct {
	SafetyMargin float64

	// ImageTokens is charged per attached image.
	ImageTokens int
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin: 1.2,
		ImageTokens:  765,
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	charCount := len([]rune(text))
	tokenEstimate := float64(charCount) / 4.0
	tokenEstimate *= e.SafetyMargin

	return int(math.Ceil(tokenEstimate)) + 3
}

// estimateCompletionTokens sums the text of every message plus a flat cost
// per image block.
func estimateCompletionTokens(est TokenEstimator, req *CompletionRequest) int {
	imageTokens := 0
	if s, ok := est.(*SimpleTokenEstimator); ok {
		imageTokens = s.ImageTokens
	}

	total := 0
	for _, msg := range req.Messages {
		if msg.Content != nil {
			total += est.EstimateTokens(*msg.Content)
		}
		for _, block := range msg.Blocks {
			switch block.Type {
			case BlockText:
				if block.Text != nil {
					total += est.EstimateTokens(*block.Text)
				}
			case BlockImage:
				total += imageTokens
			}
		}
	}
	return total
}
