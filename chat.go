package imagechat

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSystemPrompt is the instruction sent with every text completion.
const DefaultSystemPrompt = `You are a helpful assistant that can chat, describe and analyze images, and create images.
Answer clearly and concisely. When the user attaches images, describe or analyze them as asked.`

// imagePlaceholder stands in for assistant turns from history that carried
// only an image, so the replayed conversation has no empty messages.
const imagePlaceholder = "[image generated]"

// ChatService is the top-level entry point: it classifies each message and
// either generates an image or produces a text reply.
type ChatService struct {
	client       *Client
	generator    *Generator
	classifier   *IntentClassifier
	systemPrompt string
	now          func() time.Time
	logger       *slog.Logger
}

// ChatOption configures a ChatService.
type ChatOption func(*ChatService)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) ChatOption {
	return func(s *ChatService) {
		if prompt != "" {
			s.systemPrompt = prompt
		}
	}
}

// WithClassifier replaces the default intent classifier.
func WithClassifier(c *IntentClassifier) ChatOption {
	return func(s *ChatService) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithChatClock overrides the message timestamp source.
func WithChatClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithChatLogger sets the service's logger.
func WithChatLogger(logger *slog.Logger) ChatOption {
	return func(s *ChatService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewChatService creates a ChatService. client is used for text and vision
// completions, generator for image requests.
func NewChatService(client *Client, generator *Generator, opts ...ChatOption) *ChatService {
	s := &ChatService{
		client:       client,
		generator:    generator,
		classifier:   defaultClassifier,
		systemPrompt: DefaultSystemPrompt,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessMessage answers one chat message.
//
// Messages with attached images are always interpreted by a vision
// completion. Text that reads as an image request is sent to the generator;
// if generation fails for any reason the same text is answered by a text
// completion instead, and the failure is only logged. Generation is attempted
// once, without retries. Everything else gets a
// text completion.
func (s *ChatService) ProcessMessage(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if req.Text.IsUndefined() && len(req.Images) == 0 {
		return nil, inputError("text", ErrMissingInput)
	}
	text := req.Text.String()

	user := Message{
		Role:      RoleUser,
		Content:   text,
		Images:    req.Images,
		Timestamp: s.now(),
	}

	if len(req.Images) > 0 {
		reply, err := s.complete(ctx, req.History, s.visionMessage(text, req.Images))
		if err != nil {
			return nil, err
		}
		return s.result(user, Message{Role: RoleAssistant, Content: reply}), nil
	}

	if s.classifier.IsImageRequest(text) {
		outcome := s.generator.TryGenerate(WithoutRetry(ctx), GenerateParams{Prompt: text, N: 1})
		if outcome.Succeeded() && len(outcome.Result.Records) > 0 {
			record := outcome.Result.Records[0]
			return s.result(user, Message{Role: RoleAssistant, Image: &record}), nil
		}

		attrs := []any{"prompt_length", len(text)}
		if outcome.Err != nil {
			attrs = append(attrs, "error", outcome.Err.Error())
		}
		s.logger.Warn("image generation failed, answering with text", attrs...)
	}

	reply, err := s.complete(ctx, req.History, TextMessage(RoleUser, text))
	if err != nil {
		return nil, err
	}
	return s.result(user, Message{Role: RoleAssistant, Content: reply}), nil
}

// visionMessage builds one text block followed by one block per image.
func (s *ChatService) visionMessage(text string, images []ImageRef) ChatMessage {
	blocks := make([]ContentBlock, 0, len(images)+1)
	blocks = append(blocks, TextBlock(text))
	for _, img := range images {
		blocks = append(blocks, ImageBlock(img))
	}
	return MultimodalMessage(RoleUser, blocks...)
}

func (s *ChatService) complete(ctx context.Context, history []Message, current ChatMessage) (string, error) {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, TextMessage(RoleSystem, s.systemPrompt))
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, current)

	resp, err := s.client.CompleteChat(ctx, &CompletionRequest{Messages: messages})
	if err != nil {
		return "", asProviderError(OpChatCompletion, s.client.ProviderName(), err)
	}

	content := resp.Content
	if content == "" {
		content = resp.Refusal
	}
	if content == "" {
		return "", &ProviderError{Op: OpChatCompletion, Provider: s.client.ProviderName(), Err: ErrEmptyCompletion}
	}
	return content, nil
}

// historyMessages converts caller-held history into completion messages.
// System messages and empty turns are dropped.
func historyMessages(history []Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			if len(m.Images) > 0 {
				blocks := []ContentBlock{TextBlock(m.Content)}
				for _, img := range m.Images {
					blocks = append(blocks, ImageBlock(img))
				}
				out = append(out, MultimodalMessage(RoleUser, blocks...))
				continue
			}
			if m.Content != "" {
				out = append(out, TextMessage(RoleUser, m.Content))
			}
		case RoleAssistant:
			switch {
			case m.Content != "":
				out = append(out, TextMessage(RoleAssistant, m.Content))
			case m.Image != nil:
				out = append(out, TextMessage(RoleAssistant, imagePlaceholder))
			}
		}
	}
	return out
}

func (s *ChatService) result(user, assistant Message) *ChatResult {
	assistant.Timestamp = s.now()
	return &ChatResult{UserMessage: user, AssistantMessage: assistant}
}
