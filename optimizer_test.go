package imagechat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionReturning(content string) *MockProvider {
	return &MockProvider{
		CompleteChatFunc: func(context.Context, *CompletionRequest) (*CompletionResponse, error) {
			return &CompletionResponse{Content: content}, nil
		},
	}
}

func TestOptimizer_Analyze(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ParameterSet
	}{
		{
			name:    "valid suggestion",
			content: `{"size":"1792x1024","quality":"high","background":"auto"}`,
			want:    ParameterSet{Size: Size1792x1024, Quality: QualityHigh, Background: BackgroundAuto},
		},
		{
			name:    "values are normalized",
			content: `{"size":" 1024X1792 ","quality":"LOW","background":"Transparent"}`,
			want:    ParameterSet{Size: Size1024x1792, Quality: QualityLow, Background: BackgroundTransparent},
		},
		{
			name:    "code fenced answer",
			content: "```json\n{\"size\":\"1024x1792\",\"quality\":\"medium\",\"background\":\"auto\"}\n```",
			want:    ParameterSet{Size: Size1024x1792, Quality: QualityMedium, Background: BackgroundAuto},
		},
		{
			name:    "repairable json",
			content: `{size: '1792x1024', quality: 'high', background: 'transparent',}`,
			want:    ParameterSet{Size: Size1792x1024, Quality: QualityHigh, Background: BackgroundTransparent},
		},
		{
			name:    "invalid fields fall back individually",
			content: `{"size":"640x480","quality":"high","background":42}`,
			want:    ParameterSet{Size: Size1024x1024, Quality: QualityHigh, Background: BackgroundAuto},
		},
		{
			name:    "missing fields use defaults",
			content: `{"quality":"low"}`,
			want:    ParameterSet{Size: Size1024x1024, Quality: QualityLow, Background: BackgroundAuto},
		},
		{
			name:    "non-object answer",
			content: `["1792x1024"]`,
			want:    DefaultParameters(),
		},
		{
			name:    "empty answer",
			content: "",
			want:    DefaultParameters(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := NewOptimizer(newTestClient(completionReturning(tt.content)))
			got := opt.Analyze(context.Background(), "a wide mountain panorama")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptimizer_RequestShape(t *testing.T) {
	mock := completionReturning(`{"size":"1024x1024","quality":"auto","background":"auto"}`)
	opt := NewOptimizer(newTestClient(mock))

	opt.Analyze(context.Background(), "a logo for a bakery")

	require.Len(t, mock.CompletionCalls, 1)
	req := mock.CompletionCalls[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, RoleSystem, req.Messages[0].Role)
	assert.Contains(t, *req.Messages[0].Content, `"1792x1024"`)
	assert.Equal(t, RoleUser, req.Messages[1].Role)
	assert.Equal(t, "a logo for a bakery", *req.Messages[1].Content)

	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, "image_parameters", req.ResponseFormat.Name)
}

func TestOptimizer_EditSizes(t *testing.T) {
	mock := completionReturning(`{"size":"1536x1024","quality":"high","background":"auto"}`)
	opt := NewOptimizer(newTestClient(mock))

	got := opt.AnalyzeFor(context.Background(), "widen this", DefaultEnumerations().EditSizes)
	assert.Equal(t, Size1536x1024, got.Size)

	// The same answer is not a valid generate size.
	got = opt.Analyze(context.Background(), "widen this")
	assert.Equal(t, Size1024x1024, got.Size)
}

func TestOptimizer_DegradesToDefaults(t *testing.T) {
	defaults := ParameterSet{Size: Size1024x1792, Quality: QualityMedium, Background: BackgroundAuto}

	tests := []struct {
		name string
		mock *MockProvider
	}{
		{
			name: "provider error",
			mock: &MockProvider{
				CompleteChatFunc: func(context.Context, *CompletionRequest) (*CompletionResponse, error) {
					return nil, errors.New("boom")
				},
			},
		},
		{
			name: "refusal",
			mock: &MockProvider{
				CompleteChatFunc: func(context.Context, *CompletionRequest) (*CompletionResponse, error) {
					return &CompletionResponse{Refusal: "no"}, nil
				},
			},
		},
		{
			name: "nil response",
			mock: &MockProvider{
				CompleteChatFunc: func(context.Context, *CompletionRequest) (*CompletionResponse, error) {
					return nil, nil
				},
			},
		},
		{
			name: "garbage",
			mock: completionReturning("I think a square image would be nice."),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := NewOptimizer(newTestClient(tt.mock), WithOptimizerDefaults(defaults))
			assert.Equal(t, defaults, opt.Analyze(context.Background(), "a portrait"))
		})
	}
}

func TestOptimizer_EmptyPromptSkipsProvider(t *testing.T) {
	mock := &MockProvider{}
	opt := NewOptimizer(newTestClient(mock))

	assert.Equal(t, DefaultParameters(), opt.Analyze(context.Background(), "   "))
	assert.Empty(t, mock.CompletionCalls)
}
