package commands

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhpenta/imagechat"
	"github.com/mhpenta/imagechat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		jsonOut = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestClassifyCommand(t *testing.T) {
	out := runRoot(t, "classify", "draw", "a", "cat")
	assert.True(t, strings.HasPrefix(out, "image "), out)

	out = runRoot(t, "classify", "what is the capital of France?")
	assert.True(t, strings.HasPrefix(out, "text "), out)
}

func TestClassifyCommandJSON(t *testing.T) {
	out := runRoot(t, "--json", "classify", "draw a cat")
	assert.Contains(t, out, `"verdict": "image"`)
	assert.Contains(t, out, `"text": "draw a cat"`)
}

func TestSaveRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	data := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	path, err := saveRecord(dir, imagechat.GenerationRecord{
		ID:          "1700000000000-abc",
		EncodedData: base64.StdEncoding.EncodeToString(data),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1700000000000-abc.png"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	path, err = saveRecord(dir, imagechat.GenerationRecord{ID: "x", URL: "https://example.com/x.png"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x.png", path)
}

func TestLoadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"role": "user", "content": "hi", "timestamp": "2025-01-01T00:00:00Z"},
		{"role": "assistant", "content": "hello", "timestamp": "2025-01-01T00:00:01Z"}
	]`), 0o600))

	history, err := loadHistory(path)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, imagechat.RoleAssistant, history[1].Role)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = loadHistory(path)
	assert.Error(t, err)
}

func TestConfigAttrsMasksAPIKey(t *testing.T) {
	attrs := configAttrs(config.Config{Provider: config.ProviderOpenAI, APIKey: "sk-live-0123456789abcd"})

	var apiKey any
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "api_key" {
			apiKey = attrs[i+1]
		}
	}
	assert.Equal(t, "[REDACTED]...abcd", apiKey)
	assert.NotContains(t, fmt.Sprint(attrs...), "sk-live")
}
