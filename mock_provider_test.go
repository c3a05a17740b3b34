package imagechat

import (
	"context"
	"encoding/base64"
	"sync"
	"time"
)

// MockProvider is a mock implementation of Provider. Calls are recorded so
// tests can assert what reached the network boundary.
type MockProvider struct {
	CompleteChatFunc   func(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
	GenerateImagesFunc func(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error)
	EditImagesFunc     func(ctx context.Context, req *ImageEditRequest) (*ImageResponse, error)
	CloseFunc          func() error

	mu              sync.Mutex
	CompletionCalls []*CompletionRequest
	GenerateCalls   []*ImageGenerateRequest
	EditCalls       []*ImageEditRequest
}

func (m *MockProvider) CompleteChat(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	m.CompletionCalls = append(m.CompletionCalls, req)
	m.mu.Unlock()
	if m.CompleteChatFunc != nil {
		return m.CompleteChatFunc(ctx, req)
	}
	return &CompletionResponse{Content: "ok", FinishReason: "stop"}, nil
}

func (m *MockProvider) GenerateImages(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, req)
	m.mu.Unlock()
	if m.GenerateImagesFunc != nil {
		return m.GenerateImagesFunc(ctx, req)
	}
	return fakeImages(req.N), nil
}

func (m *MockProvider) EditImages(ctx context.Context, req *ImageEditRequest) (*ImageResponse, error) {
	m.mu.Lock()
	m.EditCalls = append(m.EditCalls, req)
	m.mu.Unlock()
	if m.EditImagesFunc != nil {
		return m.EditImagesFunc(ctx, req)
	}
	return fakeImages(req.N), nil
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockProvider) calls() (completions, generates, edits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CompletionCalls), len(m.GenerateCalls), len(m.EditCalls)
}

// fakeImages returns n distinct base64 payloads.
func fakeImages(n int) *ImageResponse {
	if n <= 0 {
		n = 1
	}
	resp := &ImageResponse{Created: 1700000000}
	for i := range n {
		resp.Images = append(resp.Images, ProviderImage{
			B64JSON: base64.StdEncoding.EncodeToString([]byte{'i', 'm', 'g', byte('0' + i)}),
		})
	}
	return resp
}

// testModels are merged into every request by test clients.
var testModels = Models{Chat: "chat-model", Image: "image-model"}

// newTestClient returns a Client with no retry backoff delay.
func newTestClient(p Provider, opts ...ClientOption) *Client {
	base := []ClientOption{WithRetryPolicy(RetryPolicy{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})}
	return NewClient(p, testModels, append(base, opts...)...)
}
