package openai

import "github.com/mhpenta/imagechat"

// Default model identifiers.
const (
	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPTImage1 = "gpt-image-1"
)

// GPT4oInfo describes the default chat and vision model.
var GPT4oInfo = imagechat.ModelInfo{
	Name:          ModelGPT4o,
	Kind:          imagechat.ModelKindChat,
	ContextLength: 128000,
	RateLimits: imagechat.RateLimits{
		TokensPerMinute:   800000,
		RequestsPerMinute: 5000,
	},
}

// GPT4oMiniInfo describes the cheaper model used for parameter optimization.
var GPT4oMiniInfo = imagechat.ModelInfo{
	Name:          ModelGPT4oMini,
	Kind:          imagechat.ModelKindChat,
	ContextLength: 128000,
	RateLimits: imagechat.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 5000,
	},
}

// GPTImage1Info describes the default image model.
var GPTImage1Info = imagechat.ModelInfo{
	Name: ModelGPTImage1,
	Kind: imagechat.ModelKindImage,
	RateLimits: imagechat.RateLimits{
		TokensPerMinute:   100000,
		RequestsPerMinute: 50,
	},
}

// DefaultModels returns the models used when none are configured.
func DefaultModels() imagechat.Models {
	return imagechat.Models{Chat: ModelGPT4o, Image: ModelGPTImage1}
}

// LookupModel returns the known metadata for a model name.
func LookupModel(name string) (imagechat.ModelInfo, bool) {
	for _, m := range []imagechat.ModelInfo{GPT4oInfo, GPT4oMiniInfo, GPTImage1Info} {
		if m.Name == name {
			return m, true
		}
	}
	return imagechat.ModelInfo{}, false
}
