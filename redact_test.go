package imagechat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactPayload(t *testing.T) {
	payload := map[string]any{
		"model":      "gpt-image-1",
		"max_tokens": 100,
		"api_key":    "sk-secret",
		"headers": map[string]any{
			"Authorization": "Bearer sk-secret",
			"X-Api-Key":     "sk-secret",
		},
		"access_token": "tok",
		"items":        []any{map[string]any{"password": "hunter2", "name": "ok"}},
	}

	out, ok := RedactPayload(payload).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "gpt-image-1", out["model"])
	assert.EqualValues(t, 100, out["max_tokens"])
	assert.Equal(t, redacted, out["api_key"])
	assert.Equal(t, redacted, out["access_token"])

	headers := out["headers"].(map[string]any)
	assert.Equal(t, redacted, headers["Authorization"])
	assert.Equal(t, redacted, headers["X-Api-Key"])

	item := out["items"].([]any)[0].(map[string]any)
	assert.Equal(t, redacted, item["password"])
	assert.Equal(t, "ok", item["name"])

	// The original is untouched.
	assert.Equal(t, "sk-secret", payload["api_key"])
}

func TestRedactPayload_AbbreviatesLongStrings(t *testing.T) {
	long := strings.Repeat("A", 10000)
	out := RedactPayload(&ImageEditRequest{
		Prompt: "x",
		Images: []ImageRef{{EncodedData: long}},
	}).(map[string]any)

	images := out["images"].([]any)
	data := images[0].(map[string]any)["encoded_data"].(string)
	assert.Less(t, len(data), 100)
	assert.Contains(t, data, "10000 bytes")
}

func TestRedactPayload_Unloggable(t *testing.T) {
	out := RedactPayload(make(chan int))
	assert.Equal(t, "<unloggable chan int>", out)
}

func TestRedactString(t *testing.T) {
	assert.Equal(t, redacted, RedactString("short"))
	assert.Equal(t, redacted+"...wxyz", RedactString("sk-abcdefghijklmnopqrstuvwxyz"))
}
