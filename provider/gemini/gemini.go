// Package gemini provides a Provider implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// Chat and vision completions go through GenerateContent with the chat model.
// Image generation and edits go through GenerateContent with an image model;
// Gemini returns one image per call, so n images cost n calls.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mhpenta/imagechat"
	"google.golang.org/genai"
)

// ProviderName is reported by Name and used in error tags.
const ProviderName = "gemini"

// Config holds connection settings.
type Config struct {
	// APIKey for the Gemini API. If empty, the SDK will try GOOGLE_API_KEY
	// or GEMINI_API_KEY.
	APIKey string
}

// SafetySetting configures content filtering for one harm category.
type SafetySetting struct {
	Category  string // e.g. "HARM_CATEGORY_DANGEROUS_CONTENT"
	Threshold string // e.g. "BLOCK_ONLY_HIGH"
}

// Provider implements imagechat.Provider using Google's Gemini API.
type Provider struct {
	client         *genai.Client
	safetySettings []*genai.SafetySetting
	now            func() time.Time
	mu             sync.RWMutex
}

var _ imagechat.Provider = (*Provider)(nil)

// New creates a Provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.APIKey != "" {
		clientCfg.APIKey = cfg.APIKey
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{
		client: client,
		now:    time.Now,
	}, nil
}

// SetSafetySettings configures safety settings for all requests.
func (p *Provider) SetSafetySettings(settings []SafetySetting) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.safetySettings = convertSafetySettings(settings)
	return p
}

// Name returns ProviderName.
func (p *Provider) Name() string {
	return ProviderName
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// CompleteChat runs a text or vision completion. System messages are folded
// into the system instruction.
func (p *Provider) CompleteChat(ctx context.Context, req *imagechat.CompletionRequest) (*imagechat.CompletionResponse, error) {
	system, contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	genConfig := &genai.GenerateContentConfig{
		SafetySettings: p.currentSafetySettings(),
	}
	if system != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.Temperature != nil {
		genConfig.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.ResponseFormat != nil {
		genConfig.ResponseMIMEType = "application/json"
	}

	result, err := p.client.Models.GenerateContent(ctx, req.Model, contents, genConfig)
	if err != nil {
		return nil, mapError(err, req.Model)
	}

	resp := &imagechat.CompletionResponse{
		Content: result.Text(),
		Usage:   convertUsage(result.UsageMetadata),
	}
	if len(result.Candidates) > 0 {
		resp.FinishReason = string(result.Candidates[0].FinishReason)
	}
	if resp.Content == "" && result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		resp.Refusal = "blocked: " + string(result.PromptFeedback.BlockReason)
	}
	return resp, nil
}

// GenerateImages creates images from a text prompt.
func (p *Provider) GenerateImages(ctx context.Context, req *imagechat.ImageGenerateRequest) (*imagechat.ImageResponse, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	return p.generate(ctx, req.Model, parts, req.N, req.Size, req.Quality)
}

// EditImages modifies the input images following the prompt. A mask, if
// present, is sent as an extra reference image after the inputs.
func (p *Provider) EditImages(ctx context.Context, req *imagechat.ImageEditRequest) (*imagechat.ImageResponse, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+2)
	for _, img := range req.Images {
		part, err := imagePart(img)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	if req.Mask != nil {
		part, err := imagePart(*req.Mask)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	return p.generate(ctx, req.Model, parts, req.N, req.Size, req.Quality)
}

func (p *Provider) generate(ctx context.Context, model string, parts []*genai.Part, n int, size imagechat.Size, quality imagechat.Quality) (*imagechat.ImageResponse, error) {
	if n <= 0 {
		n = 1
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	genConfig := p.buildImageConfig(model, size, quality)

	resp := &imagechat.ImageResponse{Created: p.now().Unix()}
	usage := &imagechat.Usage{}
	for range n {
		result, err := p.client.Models.GenerateContent(ctx, model, contents, genConfig)
		if err != nil {
			return nil, mapError(err, model)
		}
		resp.Images = append(resp.Images, parseImages(result)...)
		if u := convertUsage(result.UsageMetadata); u != nil {
			usage.PromptTokens += u.PromptTokens
			usage.CompletionTokens += u.CompletionTokens
			usage.TotalTokens += u.TotalTokens
		}
	}
	if usage.TotalTokens > 0 {
		resp.Usage = usage
	}
	return resp, nil
}

// buildImageConfig converts size and quality to Gemini's image configuration.
func (p *Provider) buildImageConfig(model string, size imagechat.Size, quality imagechat.Quality) *genai.GenerateContentConfig {
	imageConfig := &genai.ImageConfig{
		AspectRatio: AspectRatio(size),
	}
	// Only the Pro image model accepts an output resolution.
	if model == APIModelNanoBanana2 && quality == imagechat.QualityHigh {
		imageConfig.ImageSize = "2K"
	}

	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        imageConfig,
		SafetySettings:     p.currentSafetySettings(),
	}
}

// AspectRatio maps a pixel size onto the closest Gemini aspect ratio.
// Auto and unknown sizes return "" and let the model decide.
func AspectRatio(size imagechat.Size) string {
	switch size {
	case imagechat.Size1024x1024:
		return "1:1"
	case imagechat.Size1792x1024:
		return "16:9"
	case imagechat.Size1024x1792:
		return "9:16"
	case imagechat.Size1536x1024:
		return "3:2"
	case imagechat.Size1024x1536:
		return "2:3"
	}
	return ""
}

func (p *Provider) currentSafetySettings() []*genai.SafetySetting {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.safetySettings
}

// convertSafetySettings converts our SafetySettings to Gemini's format.
func convertSafetySettings(settings []SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// convertMessages splits system text from the conversation and maps roles
// onto Gemini's user and model roles.
func convertMessages(msgs []imagechat.ChatMessage) (string, []*genai.Content, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))

	for _, m := range msgs {
		if m.Role == imagechat.RoleSystem {
			if m.Content != nil {
				system = append(system, *m.Content)
			}
			continue
		}

		role := "user"
		if m.Role == imagechat.RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		if m.Content != nil {
			parts = append(parts, &genai.Part{Text: *m.Content})
		}
		for _, b := range m.Blocks {
			switch b.Type {
			case imagechat.BlockText:
				parts = append(parts, &genai.Part{Text: *b.Text})
			case imagechat.BlockImage:
				part, err := imagePart(*b.Image)
				if err != nil {
					return "", nil, err
				}
				parts = append(parts, part)
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return strings.Join(system, "\n\n"), contents, nil
}

func imagePart(img imagechat.ImageRef) (*genai.Part, error) {
	data, err := base64.StdEncoding.DecodeString(img.EncodedData)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			Data:     data,
			MIMEType: mime,
		},
	}, nil
}

// parseImages extracts inline images from a response. Text parts that
// accompany them become the revised prompt.
func parseImages(result *genai.GenerateContentResponse) []imagechat.ProviderImage {
	if result == nil {
		return nil
	}

	var (
		images []imagechat.ProviderImage
		text   strings.Builder
	)
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if part.InlineData != nil && part.InlineData.Data != nil {
				images = append(images, imagechat.ProviderImage{
					B64JSON: base64.StdEncoding.EncodeToString(part.InlineData.Data),
				})
			}
		}
	}

	if revised := strings.TrimSpace(text.String()); revised != "" {
		for i := range images {
			images[i].RevisedPrompt = revised
		}
	}
	return images
}

func convertUsage(u *genai.GenerateContentResponseUsageMetadata) *imagechat.Usage {
	if u == nil {
		return nil
	}
	return &imagechat.Usage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

// mapError converts Gemini API errors into the errors the imagechat Client
// retries on; other errors are returned unchanged.
func mapError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
		return &imagechat.RateLimitError{
			RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
			LimitType:  "requests",
			Model:      model,
			Err:        err,
		}
	case apiErr.Code >= 500:
		return &imagechat.TransientError{StatusCode: apiErr.Code, Err: err}
	}
	return err
}
