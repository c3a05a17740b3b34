package imagechat

import "context"

// Provider is implemented by generative-AI backends. Implementations receive
// fully formed requests from Client and return the raw provider result; they
// should map rate limiting onto *RateLimitError and transient failures onto
// *TransientError so the Client can retry them.
type Provider interface {
	// CompleteChat runs a text or vision completion.
	CompleteChat(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// GenerateImages creates images from a text prompt.
	GenerateImages(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error)

	// EditImages modifies one or more input images following a prompt.
	EditImages(ctx context.Context, req *ImageEditRequest) (*ImageResponse, error)

	// Name identifies the provider in logs and errors.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// BlockType tags the payload of a ContentBlock.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// ContentBlock is one part of a multimodal message.
type ContentBlock struct {
	Type  BlockType `json:"type"`
	Text  *string   `json:"text,omitempty"`
	Image *ImageRef `json:"image,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(s string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: &s}
}

// ImageBlock returns an image content block.
func ImageBlock(img ImageRef) ContentBlock {
	return ContentBlock{Type: BlockImage, Image: &img}
}

// ChatMessage is a message sent to a completion endpoint. Exactly one of
// Content and Blocks is set.
type ChatMessage struct {
	Role    Role           `json:"role"`
	Content *string        `json:"content,omitempty"`
	Blocks  []ContentBlock `json:"blocks,omitempty"`
}

// TextMessage returns a plain-text ChatMessage.
func TextMessage(role Role, s string) ChatMessage {
	return ChatMessage{Role: role, Content: &s}
}

// MultimodalMessage returns a ChatMessage made of content blocks.
func MultimodalMessage(role Role, blocks ...ContentBlock) ChatMessage {
	return ChatMessage{Role: role, Blocks: blocks}
}

// ResponseFormat asks the provider for structured output.
type ResponseFormat struct {
	// Name of the schema, used by providers that require one.
	Name string `json:"name"`

	// Schema is a JSON schema document.
	Schema map[string]any `json:"schema"`
}

// CompletionRequest is a text or vision completion call.
type CompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []ChatMessage     `json:"messages"`
	Temperature    *float64          `json:"temperature,omitempty"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat   `json:"response_format,omitempty"`

	// Metadata tags the completion on providers that record it (OpenAI).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CompletionResponse is the raw result of a completion call.
type CompletionResponse struct {
	Content      string
	Refusal      string
	FinishReason string
	Usage        *Usage
}

// ImageGenerateRequest is an image generation call.
type ImageGenerateRequest struct {
	Model      string     `json:"model"`
	Prompt     string     `json:"prompt"`
	N          int        `json:"n"`
	Size       Size       `json:"size,omitempty"`
	Quality    Quality    `json:"quality,omitempty"`
	Background Background `json:"background,omitempty"`
}

// ImageEditRequest is an image edit call. Images always holds at least one
// entry; Mask is optional.
type ImageEditRequest struct {
	Model   string     `json:"model"`
	Prompt  string     `json:"prompt"`
	Images  []ImageRef `json:"images"`
	Mask    *ImageRef  `json:"mask,omitempty"`
	N       int        `json:"n"`
	Size    Size       `json:"size,omitempty"`
	Quality Quality    `json:"quality,omitempty"`
}

// ProviderImage is one image in a provider response.
type ProviderImage struct {
	B64JSON       string
	URL           string
	RevisedPrompt string
}

// ImageResponse is the raw result of a generate or edit call.
type ImageResponse struct {
	Images  []ProviderImage
	Created int64
	Usage   *Usage
}
