package gemini

import "github.com/mhpenta/imagechat"

// Model name constants - the actual API model names.
const (
	// APIModelFlash is the default chat and vision model.
	APIModelFlash = "gemini-2.5-flash"

	// APIModelNanoBanana2 is the actual API name for Gemini 3 Pro Image
	APIModelNanoBanana2 = "gemini-3-pro-image-preview"

	// APIModelNanoBanana1 is the actual API name for Gemini 2.5 Flash Image
	APIModelNanoBanana1 = "gemini-2.5-flash-image"
)

// FlashInfo is the model info for Gemini 2.5 Flash.
var FlashInfo = imagechat.ModelInfo{
	Name:          APIModelFlash,
	Kind:          imagechat.ModelKindChat,
	ContextLength: 1048576,
	RateLimits: imagechat.RateLimits{
		TokensPerMinute:   1000000,
		RequestsPerMinute: 1000,
	},
}

// NanoBanana2Info is the model info for Gemini 3 Pro Image (nano-banana-2).
var NanoBanana2Info = imagechat.ModelInfo{
	Name:          APIModelNanoBanana2,
	Kind:          imagechat.ModelKindImage,
	ContextLength: 1048576, // 1M tokens
	RateLimits: imagechat.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 360,
	},
}

// NanoBanana1Info is the model info for Gemini 2.5 Flash Image (nano-banana-1).
var NanoBanana1Info = imagechat.ModelInfo{
	Name:          APIModelNanoBanana1,
	Kind:          imagechat.ModelKindImage,
	ContextLength: 32768,
	RateLimits: imagechat.RateLimits{
		TokensPerMinute:   1000000,
		RequestsPerMinute: 500,
	},
}

// DefaultModels returns the models used when none are configured.
func DefaultModels() imagechat.Models {
	return imagechat.Models{Chat: APIModelFlash, Image: APIModelNanoBanana2}
}

// LookupModel returns the known metadata for a model name.
func LookupModel(name string) (imagechat.ModelInfo, bool) {
	for _, m := range []imagechat.ModelInfo{FlashInfo, NanoBanana2Info, NanoBanana1Info} {
		if m.Name == name {
			return m, true
		}
	}
	return imagechat.ModelInfo{}, false
}
