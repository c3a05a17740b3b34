package imagechat

import (
	"fmt"
)

// Limits enforced before a request leaves the process.
const (
	// MaxImagesPerRequest bounds n for generate and edit.
	MaxImagesPerRequest = 10

	// MaxInputImages is the maximum number of input images for an edit.
	MaxInputImages = 16
)

// ValidatePrompt validates a text prompt.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateCompletionRequest checks that every message has a known role and
// non-null content, including each content block.
func ValidateCompletionRequest(req *CompletionRequest) error {
	if req == nil {
		return &ValidationError{Op: OpChatCompletion, Reason: "request is nil"}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{Op: OpChatCompletion, Reason: "messages are required"}
	}
	for i, msg := range req.Messages {
		if err := validateChatMessage(msg); err != nil {
			return &ValidationError{Op: OpChatCompletion, Reason: fmt.Sprintf("message %d: %s", i, err)}
		}
	}
	return nil
}

func validateChatMessage(msg ChatMessage) error {
	switch msg.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	case "":
		return fmt.Errorf("role is required")
	default:
		return fmt.Errorf("unknown role %q", msg.Role)
	}

	switch {
	case msg.Content != nil && msg.Blocks != nil:
		return fmt.Errorf("content and blocks are mutually exclusive")
	case msg.Content != nil:
		return nil
	case len(msg.Blocks) == 0:
		return fmt.Errorf("content is required")
	}

	if msg.Role != RoleUser {
		return fmt.Errorf("only user messages may carry content blocks")
	}
	for j, block := range msg.Blocks {
		if err := validateBlock(block); err != nil {
			return fmt.Errorf("block %d: %w", j, err)
		}
	}
	return nil
}

func validateBlock(block ContentBlock) error {
	switch block.Type {
	case BlockText:
		if block.Text == nil {
			return fmt.Errorf("text block has no text")
		}
	case BlockImage:
		if block.Image == nil || block.Image.EncodedData == "" {
			return fmt.Errorf("image block has no data")
		}
	case "":
		return fmt.Errorf("block type is required")
	default:
		return fmt.Errorf("unknown block type %q", block.Type)
	}
	return nil
}

// ValidateGenerateRequest checks an image generation request against enums.
func ValidateGenerateRequest(req *ImageGenerateRequest, enums Enumerations) error {
	if req == nil {
		return &ValidationError{Op: OpImageGeneration, Reason: "request is nil"}
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return &ValidationError{Op: OpImageGeneration, Reason: err.Error()}
	}
	if req.N < 1 || req.N > MaxImagesPerRequest {
		return &ValidationError{Op: OpImageGeneration, Reason: fmt.Sprintf("n must be between 1 and %d, got %d", MaxImagesPerRequest, req.N)}
	}
	if req.Size != "" && !enums.ValidGenerateSize(req.Size) {
		return &ValidationError{Op: OpImageGeneration, Reason: fmt.Sprintf("size %q not allowed", req.Size)}
	}
	if req.Quality != "" && !enums.ValidQuality(req.Quality) {
		return &ValidationError{Op: OpImageGeneration, Reason: fmt.Sprintf("quality %q not allowed", req.Quality)}
	}
	if req.Background != "" && !enums.ValidBackground(req.Background) {
		return &ValidationError{Op: OpImageGeneration, Reason: fmt.Sprintf("background %q not allowed", req.Background)}
	}
	return nil
}

// ValidateEditRequest checks an image edit request against enums.
func ValidateEditRequest(req *ImageEditRequest, enums Enumerations) error {
	if req == nil {
		return &ValidationError{Op: OpImageEdit, Reason: "request is nil"}
	}
	if err := ValidatePrompt(req.Prompt); err != nil {
		return &ValidationError{Op: OpImageEdit, Reason: err.Error()}
	}
	if len(req.Images) == 0 {
		return &ValidationError{Op: OpImageEdit, Reason: ErrNoImages.Error()}
	}
	if len(req.Images) > MaxInputImages {
		return &ValidationError{Op: OpImageEdit, Reason: fmt.Sprintf("too many input images: %d (max %d)", len(req.Images), MaxInputImages)}
	}
	for i, img := range req.Images {
		if img.EncodedData == "" {
			return &ValidationError{Op: OpImageEdit, Reason: fmt.Sprintf("image %d has no data", i)}
		}
	}
	if req.Mask != nil && req.Mask.EncodedData == "" {
		return &ValidationError{Op: OpImageEdit, Reason: "mask has no data"}
	}
	if req.N < 1 || req.N > MaxImagesPerRequest {
		return &ValidationError{Op: OpImageEdit, Reason: fmt.Sprintf("n must be between 1 and %d, got %d", MaxImagesPerRequest, req.N)}
	}
	if req.Size != "" && !enums.ValidEditSize(req.Size) {
		return &ValidationError{Op: OpImageEdit, Reason: fmt.Sprintf("size %q not allowed", req.Size)}
	}
	if req.Quality != "" && !enums.ValidQuality(req.Quality) {
		return &ValidationError{Op: OpImageEdit, Reason: fmt.Sprintf("quality %q not allowed", req.Quality)}
	}
	return nil
}
