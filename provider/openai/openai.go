// Package openai provides a Provider implementation backed by the OpenAI API.
//
// It uses the official Go SDK: https://github.com/openai/openai-go
//
// Retries are disabled in the SDK; the imagechat Client owns retry policy and
// relies on the error mapping in this package to decide what is retryable.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/mhpenta/imagechat"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// ProviderName is reported by Name and used in error tags.
const ProviderName = "openai"

// DefaultMIMEType is assumed for images that carry no MIME type.
const DefaultMIMEType = "image/png"

// Config holds connection settings.
type Config struct {
	APIKey  string
	BaseURL string

	// Logger receives request traces at Debug level. Authorization headers
	// are never logged.
	Logger *slog.Logger
}

// Provider implements imagechat.Provider using OpenAI.
type Provider struct {
	client openai.Client
	logger *slog.Logger
}

var _ imagechat.Provider = (*Provider)(nil)

// New creates a Provider. An empty APIKey falls back to OPENAI_API_KEY,
// which the SDK reads itself.
func New(cfg Config) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithMiddleware(traceMiddleware(logger)),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

// Name returns ProviderName.
func (p *Provider) Name() string {
	return ProviderName
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

// CompleteChat runs a chat completion.
func (p *Provider) CompleteChat(ctx context.Context, req *imagechat.CompletionRequest) (*imagechat.CompletionResponse, error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    req.Model,
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if len(req.Metadata) > 0 {
		params.Metadata = shared.Metadata(req.Metadata)
	}
	if req.ResponseFormat != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.ResponseFormat.Name,
					Schema: req.ResponseFormat.Schema,
					Strict: param.NewOpt(true),
				},
			},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapError(err, req.Model)
	}
	if len(resp.Choices) == 0 {
		return nil, imagechat.ErrEmptyCompletion
	}

	choice := resp.Choices[0]
	return &imagechat.CompletionResponse{
		Content:      choice.Message.Content,
		Refusal:      choice.Message.Refusal,
		FinishReason: choice.FinishReason,
		Usage: &imagechat.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// GenerateImages creates images from a prompt.
func (p *Provider) GenerateImages(ctx context.Context, req *imagechat.ImageGenerateRequest) (*imagechat.ImageResponse, error) {
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(req.Model),
	}
	if req.N > 0 {
		params.N = param.NewOpt(int64(req.N))
	}
	if req.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(req.Size)
	}
	if req.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(req.Quality)
	}
	if req.Background != "" {
		params.Background = openai.ImageGenerateParamsBackground(req.Background)
	}

	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, mapError(err, req.Model)
	}
	return convertImages(resp), nil
}

// EditImages edits one or more input images according to a prompt.
func (p *Provider) EditImages(ctx context.Context, req *imagechat.ImageEditRequest) (*imagechat.ImageResponse, error) {
	files := make([]io.Reader, 0, len(req.Images))
	for i, img := range req.Images {
		f, err := imageFile(img, fmt.Sprintf("image-%d", i))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	params := openai.ImageEditParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(req.Model),
		Image:  openai.ImageEditParamsImageUnion{OfFileArray: files},
	}
	if req.Mask != nil {
		mask, err := imageFile(*req.Mask, "mask")
		if err != nil {
			return nil, err
		}
		params.Mask = mask
	}
	if req.N > 0 {
		params.N = param.NewOpt(int64(req.N))
	}
	if req.Size != "" {
		params.Size = openai.ImageEditParamsSize(req.Size)
	}
	if req.Quality != "" {
		params.Quality = openai.ImageEditParamsQuality(req.Quality)
	}

	resp, err := p.client.Images.Edit(ctx, params)
	if err != nil {
		return nil, mapError(err, req.Model)
	}
	return convertImages(resp), nil
}

func convertMessages(msgs []imagechat.ChatMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		if len(m.Blocks) > 0 {
			if m.Role != imagechat.RoleUser {
				return nil, fmt.Errorf("content blocks are only supported on user messages, got %s", m.Role)
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Blocks))
			for _, b := range m.Blocks {
				switch b.Type {
				case imagechat.BlockText:
					parts = append(parts, openai.TextContentPart(*b.Text))
				case imagechat.BlockImage:
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL: DataURL(*b.Image),
					}))
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			})
			continue
		}

		var text string
		if m.Content != nil {
			text = *m.Content
		}
		switch m.Role {
		case imagechat.RoleSystem:
			out = append(out, openai.SystemMessage(text))
		case imagechat.RoleAssistant:
			out = append(out, openai.AssistantMessage(text))
		default:
			out = append(out, openai.UserMessage(text))
		}
	}
	return out, nil
}

// DataURL renders an image as a data URL, defaulting the MIME type to
// DefaultMIMEType.
func DataURL(img imagechat.ImageRef) string {
	mime := img.MIMEType
	if mime == "" {
		mime = DefaultMIMEType
	}
	return "data:" + mime + ";base64," + img.EncodedData
}

func imageFile(img imagechat.ImageRef, name string) (io.Reader, error) {
	data, err := base64.StdEncoding.DecodeString(img.EncodedData)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	mime := img.MIMEType
	if mime == "" {
		mime = DefaultMIMEType
	}
	return openai.File(bytes.NewReader(data), name+extension(mime), mime), nil
}

func extension(mime string) string {
	switch mime {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func convertImages(resp *openai.ImagesResponse) *imagechat.ImageResponse {
	out := &imagechat.ImageResponse{
		Images:  make([]imagechat.ProviderImage, 0, len(resp.Data)),
		Created: resp.Created,
	}
	for _, d := range resp.Data {
		out.Images = append(out.Images, imagechat.ProviderImage{
			B64JSON:       d.B64JSON,
			URL:           d.URL,
			RevisedPrompt: d.RevisedPrompt,
		})
	}
	if resp.Usage.TotalTokens > 0 {
		out.Usage = &imagechat.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}
	}
	return out
}

// mapError converts SDK errors into the errors the imagechat Client retries on.
func mapError(err error, model string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &imagechat.RateLimitError{
				RetryAfter: retryAfter(apiErr.Response),
				LimitType:  "requests",
				Model:      model,
				Err:        err,
			}
		case apiErr.StatusCode >= 500:
			return &imagechat.TransientError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &imagechat.TransientError{Err: err}
	}
	return err
}

func traceMiddleware(logger *slog.Logger) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		if !logger.Enabled(req.Context(), slog.LevelDebug) {
			return next(req)
		}

		headers := req.Header.Clone()
		if headers.Get("Authorization") != "" {
			headers.Set("Authorization", "[REDACTED]")
		}
		logger.Debug("openai request",
			"method", req.Method,
			"url", req.URL.String(),
			"headers", imagechat.RedactPayload(headers))

		resp, err := next(req)
		if err != nil {
			logger.Debug("openai request failed", "url", req.URL.String(), "error", err)
			return resp, err
		}
		logger.Debug("openai response", "url", req.URL.String(), "status", resp.StatusCode)
		return resp, nil
	}
}
