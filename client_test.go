package imagechat

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mhpenta/imagechat/ratelimiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_MergesConfiguredModel(t *testing.T) {
	mock := &MockProvider{}
	client := newTestClient(mock)

	_, err := client.CompleteChat(context.Background(), &CompletionRequest{
		Model:    "caller-model",
		Messages: []ChatMessage{TextMessage(RoleUser, "hi")},
	})
	require.NoError(t, err)

	_, err = client.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "a cat", N: 1})
	require.NoError(t, err)

	_, err = client.EditImages(context.Background(), &ImageEditRequest{
		Prompt: "make it blue",
		Images: []ImageRef{{EncodedData: "aW1n"}},
		N:      1,
	})
	require.NoError(t, err)

	require.Len(t, mock.CompletionCalls, 1)
	assert.Equal(t, "chat-model", mock.CompletionCalls[0].Model)
	require.Len(t, mock.GenerateCalls, 1)
	assert.Equal(t, "image-model", mock.GenerateCalls[0].Model)
	require.Len(t, mock.EditCalls, 1)
	assert.Equal(t, "image-model", mock.EditCalls[0].Model)
}

func TestClient_DoesNotMutateCallerRequest(t *testing.T) {
	client := newTestClient(&MockProvider{})
	req := &ImageGenerateRequest{Model: "mine", Prompt: "a cat", N: 1}

	_, err := client.GenerateImages(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "mine", req.Model)
}

func TestClient_WithChatModel(t *testing.T) {
	mock := &MockProvider{}
	client := newTestClient(mock)
	cheap := client.WithChatModel("cheap-model")

	_, err := cheap.CompleteChat(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{TextMessage(RoleUser, "hi")},
	})
	require.NoError(t, err)

	require.Len(t, mock.CompletionCalls, 1)
	assert.Equal(t, "cheap-model", mock.CompletionCalls[0].Model)
	assert.Equal(t, "chat-model", client.Models().Chat)
	assert.Same(t, client, client.WithChatModel(""))
}

func TestClient_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*Client) error
		wantOp Op
	}{
		{
			name: "completion with nil content",
			call: func(c *Client) error {
				_, err := c.CompleteChat(context.Background(), &CompletionRequest{
					Messages: []ChatMessage{{Role: RoleUser}},
				})
				return err
			},
			wantOp: OpChatCompletion,
		},
		{
			name: "completion with unknown role",
			call: func(c *Client) error {
				_, err := c.CompleteChat(context.Background(), &CompletionRequest{
					Messages: []ChatMessage{TextMessage("tool", "x")},
				})
				return err
			},
			wantOp: OpChatCompletion,
		},
		{
			name: "generate with size outside enumeration",
			call: func(c *Client) error {
				_, err := c.GenerateImages(context.Background(), &ImageGenerateRequest{
					Prompt: "a cat", N: 1, Size: "640x480",
				})
				return err
			},
			wantOp: OpImageGeneration,
		},
		{
			name: "generate with n out of range",
			call: func(c *Client) error {
				_, err := c.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "a cat", N: 11})
				return err
			},
			wantOp: OpImageGeneration,
		},
		{
			name: "edit without images",
			call: func(c *Client) error {
				_, err := c.EditImages(context.Background(), &ImageEditRequest{Prompt: "x", N: 1})
				return err
			},
			wantOp: OpImageEdit,
		},
		{
			name: "edit with generate-only size",
			call: func(c *Client) error {
				_, err := c.EditImages(context.Background(), &ImageEditRequest{
					Prompt: "x", N: 1, Size: Size1792x1024,
					Images: []ImageRef{{EncodedData: "aW1n"}},
				})
				return err
			},
			wantOp: OpImageEdit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockProvider{}
			err := tt.call(newTestClient(mock))

			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantOp, vErr.Op)

			c, g, e := mock.calls()
			assert.Zero(t, c+g+e, "provider must not be called")
		})
	}
}

func TestClient_WrapsProviderFailures(t *testing.T) {
	cause := errors.New("bad request")
	mock := &MockProvider{
		GenerateImagesFunc: func(context.Context, *ImageGenerateRequest) (*ImageResponse, error) {
			return nil, cause
		},
	}
	client := newTestClient(mock)

	_, err := client.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "a cat", N: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	op, ok := ProviderOp(err)
	require.True(t, ok)
	assert.Equal(t, OpImageGeneration, op)

	// Non-retryable errors are attempted once.
	assert.Len(t, mock.GenerateCalls, 1)
}

func TestClient_RetriesTransientErrors(t *testing.T) {
	attempts := 0
	mock := &MockProvider{
		CompleteChatFunc: func(context.Context, *CompletionRequest) (*CompletionResponse, error) {
			attempts++
			if attempts < 3 {
				return nil, &TransientError{StatusCode: 503, Err: errors.New("unavailable")}
			}
			return &CompletionResponse{Content: "finally"}, nil
		},
	}
	client := newTestClient(mock)

	resp, err := client.CompleteChat(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{TextMessage(RoleUser, "hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Content)
	assert.Equal(t, 3, attempts)
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &MockProvider{
		GenerateImagesFunc: func(context.Context, *ImageGenerateRequest) (*ImageResponse, error) {
			return nil, &RateLimitError{LimitType: "requests", Model: "image-model"}
		},
	}
	client := newTestClient(mock)

	_, err := client.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "a cat", N: 1})
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err))
	assert.True(t, IsProviderError(err))
	assert.Len(t, mock.GenerateCalls, 3)
}

func TestClient_RateLimit(t *testing.T) {
	mock := &MockProvider{}
	client := newTestClient(mock, WithRateLimits(100, 10))

	// "test prompt" is ~3 tokens, plus the 100 token buffer exceeds 100.
	_, err := client.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "test prompt", N: 1})
	require.Error(t, err)
	assert.True(t, IsRateLimitError(err), "expected RateLimitError, got %T: %v", err, err)
	assert.Empty(t, mock.GenerateCalls)

	// Swap in a larger limiter.
	WithRateLimiter(OpImageGeneration, ratelimiter.New(200, 10))(client)

	result, err := client.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "test prompt", N: 1})
	require.NoError(t, err)
	assert.Len(t, result.Images, 1)
}

func TestClient_WaitOnRateLimitRejectsOversizedRequests(t *testing.T) {
	mock := &MockProvider{}
	client := newTestClient(mock, WithRateLimits(100, 10), WithWaitOnRateLimit(0))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	_, err := client.GenerateImages(ctx, &ImageGenerateRequest{Prompt: "test prompt", N: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ratelimiter.ErrExceedsCapacity)
	assert.False(t, IsRateLimitError(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Empty(t, mock.GenerateCalls)
}

func TestClient_NilResponseIsEmptyResult(t *testing.T) {
	mock := &MockProvider{
		CompleteChatFunc: func(context.Context, *CompletionRequest) (*CompletionResponse, error) {
			return nil, nil
		},
		GenerateImagesFunc: func(context.Context, *ImageGenerateRequest) (*ImageResponse, error) {
			return nil, nil
		},
		EditImagesFunc: func(context.Context, *ImageEditRequest) (*ImageResponse, error) {
			return nil, nil
		},
	}
	client := newTestClient(mock)
	ctx := context.Background()

	_, err := client.CompleteChat(ctx, &CompletionRequest{
		Messages: []ChatMessage{TextMessage(RoleUser, "hi")},
	})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
	op, _ := ProviderOp(err)
	assert.Equal(t, OpChatCompletion, op)

	_, err = client.GenerateImages(ctx, &ImageGenerateRequest{Prompt: "a cat", N: 1})
	assert.ErrorIs(t, err, ErrEmptyImageResult)

	_, err = client.EditImages(ctx, &ImageEditRequest{
		Prompt: "make it blue",
		Images: []ImageRef{{EncodedData: "aGk="}},
		N:      1,
	})
	assert.ErrorIs(t, err, ErrEmptyImageResult)

	completions, generates, edits := mock.calls()
	assert.Equal(t, 1, completions, "empty results are not retried")
	assert.Equal(t, 1, generates)
	assert.Equal(t, 1, edits)
}

func TestClient_ModelInfoLimitsOnlyTheirCapabilities(t *testing.T) {
	mock := &MockProvider{}
	client := newTestClient(mock, WithModelInfo(ModelInfo{
		Name:       "image-model",
		Kind:       ModelKindImage,
		RateLimits: RateLimits{TokensPerMinute: 50},
	}))

	_, err := client.GenerateImages(context.Background(), &ImageGenerateRequest{Prompt: "a cat", N: 1})
	assert.True(t, IsRateLimitError(err))

	_, err = client.CompleteChat(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{TextMessage(RoleUser, "hi")},
	})
	assert.NoError(t, err)
}

func TestClient_LogsRedactedPayload(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := newTestClient(&MockProvider{}, WithLogger(logger))

	_, err := client.CompleteChat(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{TextMessage(RoleUser, "hi")},
		Metadata: map[string]string{"api_key": "sk-very-secret-value"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "provider request")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "sk-very-secret-value")
	assert.True(t, strings.Contains(out, "provider call completed"))
}
