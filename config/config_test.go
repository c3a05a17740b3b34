package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mhpenta/imagechat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("IMAGECHAT_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("IMAGECHAT_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, imagechat.DefaultParameters(), cfg.Parameters())
	assert.Equal(t, imagechat.DefaultRetryPolicy(), cfg.RetryPolicy())
	assert.Equal(t, imagechat.DefaultEnumerations(), cfg.Allowed())
	assert.Equal(t, imagechat.DefaultSystemPrompt, cfg.SystemPrompt)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagechat.yaml")
	content := `
provider: gemini
api_key: from-file
chat_model: file-chat
image_model: file-image
max_retries: 4
initial_backoff: 250ms
request_timeout: 30s
defaults:
  size: 1792x1024
  quality: high
enumerations:
  qualities: [low, High]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(FileEnv, path)
	t.Setenv("IMAGECHAT_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("IMAGECHAT_API_KEY", "")
	t.Setenv("IMAGECHAT_CHAT_MODEL", "env-chat")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "env-chat", cfg.ChatModel)
	assert.Equal(t, "file-image", cfg.ImageModel)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, imagechat.Size1792x1024, cfg.Parameters().Size)
	assert.Equal(t, []imagechat.Quality{imagechat.QualityLow, imagechat.QualityHigh}, cfg.Allowed().Qualities)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("IMAGECHAT_PROVIDER", "")
	t.Setenv("IMAGECHAT_MAX_RETRIES", "abc")
	t.Setenv("IMAGECHAT_REQUEST_TIMEOUT", "30")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `IMAGECHAT_MAX_RETRIES: invalid integer "abc"`)
	assert.Contains(t, err.Error(), `IMAGECHAT_REQUEST_TIMEOUT: invalid duration "30"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "acme" },
			wantErr: "unknown provider",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.RequestTimeout = 0 },
			wantErr: "request_timeout",
		},
		{
			name:    "default size outside enumeration",
			mutate:  func(c *Config) { c.Defaults.Size = "1536x1024" },
			wantErr: "default size",
		},
		{
			name: "default quality removed from enumeration",
			mutate: func(c *Config) {
				c.Defaults.Quality = "auto"
				c.Enumerations.Qualities = []string{"low", "high"}
			},
			wantErr: "default quality",
		},
		{
			name:    "default background outside enumeration",
			mutate:  func(c *Config) { c.Defaults.Background = "opaque" },
			wantErr: "default background",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
