package gemini

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/mhpenta/imagechat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		size imagechat.Size
		want string
	}{
		{imagechat.Size1024x1024, "1:1"},
		{imagechat.Size1792x1024, "16:9"},
		{imagechat.Size1024x1792, "9:16"},
		{imagechat.Size1536x1024, "3:2"},
		{imagechat.Size1024x1536, "2:3"},
		{imagechat.SizeAuto, ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, AspectRatio(tt.size))
		})
	}
}

func TestBuildImageConfig(t *testing.T) {
	p := &Provider{}

	cfg := p.buildImageConfig(APIModelNanoBanana2, imagechat.Size1792x1024, imagechat.QualityHigh)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, cfg.ResponseModalities)
	assert.Equal(t, "16:9", cfg.ImageConfig.AspectRatio)
	assert.Equal(t, "2K", cfg.ImageConfig.ImageSize)

	cfg = p.buildImageConfig(APIModelNanoBanana1, imagechat.Size1024x1024, imagechat.QualityHigh)
	assert.Empty(t, cfg.ImageConfig.ImageSize)
}

func TestConvertMessages(t *testing.T) {
	img := imagechat.ImageRef{EncodedData: base64.StdEncoding.EncodeToString([]byte("png"))}
	msgs := []imagechat.ChatMessage{
		imagechat.TextMessage(imagechat.RoleSystem, "be brief"),
		imagechat.TextMessage(imagechat.RoleUser, "hi"),
		imagechat.TextMessage(imagechat.RoleAssistant, "hello"),
		imagechat.MultimodalMessage(imagechat.RoleUser,
			imagechat.TextBlock("what is this?"),
			imagechat.ImageBlock(img)),
	}

	system, contents, err := convertMessages(msgs)
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "user", contents[2].Role)

	parts := contents[2].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "what is this?", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, []byte("png"), parts[1].InlineData.Data)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
}

func TestConvertMessages_InvalidImage(t *testing.T) {
	_, _, err := convertMessages([]imagechat.ChatMessage{
		imagechat.MultimodalMessage(imagechat.RoleUser,
			imagechat.ImageBlock(imagechat.ImageRef{EncodedData: "not base64!"})),
	})
	assert.Error(t, err)
}

func TestParseImages(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking about cats", Thought: true},
				{Text: "A tabby cat."},
				{InlineData: &genai.Blob{Data: []byte("img-1"), MIMEType: "image/png"}},
				{InlineData: &genai.Blob{Data: []byte("img-2"), MIMEType: "image/png"}},
			}},
		}},
	}

	images := parseImages(result)
	require.Len(t, images, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img-1")), images[0].B64JSON)
	assert.Equal(t, "A tabby cat.", images[0].RevisedPrompt)
	assert.Equal(t, "A tabby cat.", images[1].RevisedPrompt)

	assert.Empty(t, parseImages(nil))
	assert.Empty(t, parseImages(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "no image"}}}}},
	}))
}

func TestConvertUsage(t *testing.T) {
	assert.Nil(t, convertUsage(nil))
	u := convertUsage(&genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     3,
		CandidatesTokenCount: 4,
		TotalTokenCount:      7,
	})
	assert.Equal(t, &imagechat.Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}, u)
}

func TestMapError(t *testing.T) {
	var rle *imagechat.RateLimitError
	require.ErrorAs(t, mapError(genai.APIError{Code: 429}, APIModelNanoBanana2), &rle)
	assert.Equal(t, APIModelNanoBanana2, rle.Model)

	exhausted := fmt.Errorf("wrapped: %w", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"})
	require.ErrorAs(t, mapError(exhausted, "m"), &rle)

	var te *imagechat.TransientError
	require.ErrorAs(t, mapError(genai.APIError{Code: 503}, "m"), &te)
	assert.Equal(t, 503, te.StatusCode)

	bad := genai.APIError{Code: 400, Message: "bad prompt"}
	got := mapError(bad, "m")
	assert.False(t, errors.As(got, &rle))
	assert.False(t, errors.As(got, &te))

	assert.NoError(t, mapError(nil, "m"))
}

func TestLookupModel(t *testing.T) {
	info, ok := LookupModel(APIModelFlash)
	require.True(t, ok)
	assert.Equal(t, imagechat.ModelKindChat, info.Kind)

	_, ok = LookupModel("unknown")
	assert.False(t, ok)
}
