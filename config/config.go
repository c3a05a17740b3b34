// Package config loads imagechat settings from an optional YAML file and the
// environment. Environment variables win over the file; a .env file in the
// working directory is loaded first if present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mhpenta/imagechat"
	"gopkg.in/yaml.v3"
)

// Provider kinds.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// FileEnv names the variable holding the optional YAML config path.
const FileEnv = "IMAGECHAT_CONFIG"

type Config struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`

	ChatModel      string `yaml:"chat_model"`
	ImageModel     string `yaml:"image_model"`
	OptimizerModel string `yaml:"optimizer_model"`

	SystemPrompt string `yaml:"system_prompt"`

	Defaults     Defaults     `yaml:"defaults"`
	Enumerations Enumerations `yaml:"enumerations"`

	MaxRetries        int           `yaml:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff"`
	TokensPerMinute   int           `yaml:"tokens_per_minute"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	RateLimitMaxWait  time.Duration `yaml:"rate_limit_max_wait"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`

	LogLevel string `yaml:"log_level"`
}

// Defaults are the parameters used when neither the caller nor the
// optimizer supplies one.
type Defaults struct {
	Size       string `yaml:"size"`
	Quality    string `yaml:"quality"`
	Background string `yaml:"background"`
}

// Enumerations override the allowed parameter values.
type Enumerations struct {
	GenerateSizes []string `yaml:"generate_sizes"`
	EditSizes     []string `yaml:"edit_sizes"`
	Qualities     []string `yaml:"qualities"`
	Backgrounds   []string `yaml:"backgrounds"`
}

// Load reads .env, then the YAML file named by IMAGECHAT_CONFIG, then the
// environment, and validates the result.
func Load() (Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv(FileEnv)); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	retry := imagechat.DefaultRetryPolicy()
	params := imagechat.DefaultParameters()
	return Config{
		Provider:       ProviderOpenAI,
		SystemPrompt:   imagechat.DefaultSystemPrompt,
		MaxRetries:     retry.MaxRetries,
		InitialBackoff: retry.InitialBackoff,
		MaxBackoff:     retry.MaxBackoff,
		RequestTimeout: 180 * time.Second,
		LogLevel:       "info",
		Defaults: Defaults{
			Size:       string(params.Size),
			Quality:    string(params.Quality),
			Background: string(params.Background),
		},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides c from the environment. Malformed numbers and
// durations are reported together rather than ignored.
func (c *Config) applyEnv() error {
	var errs []error
	c.Provider = strings.ToLower(getEnv("IMAGECHAT_PROVIDER", c.Provider))
	c.BaseURL = getEnv("IMAGECHAT_BASE_URL", c.BaseURL)
	c.ChatModel = getEnv("IMAGECHAT_CHAT_MODEL", c.ChatModel)
	c.ImageModel = getEnv("IMAGECHAT_IMAGE_MODEL", c.ImageModel)
	c.OptimizerModel = getEnv("IMAGECHAT_OPTIMIZER_MODEL", c.OptimizerModel)
	c.SystemPrompt = getEnv("IMAGECHAT_SYSTEM_PROMPT", c.SystemPrompt)

	c.Defaults.Size = getEnv("IMAGECHAT_DEFAULT_SIZE", c.Defaults.Size)
	c.Defaults.Quality = getEnv("IMAGECHAT_DEFAULT_QUALITY", c.Defaults.Quality)
	c.Defaults.Background = getEnv("IMAGECHAT_DEFAULT_BACKGROUND", c.Defaults.Background)

	c.MaxRetries = getEnvInt("IMAGECHAT_MAX_RETRIES", c.MaxRetries, &errs)
	c.InitialBackoff = getEnvDuration("IMAGECHAT_INITIAL_BACKOFF", c.InitialBackoff, &errs)
	c.MaxBackoff = getEnvDuration("IMAGECHAT_MAX_BACKOFF", c.MaxBackoff, &errs)
	c.TokensPerMinute = getEnvInt("IMAGECHAT_TOKENS_PER_MINUTE", c.TokensPerMinute, &errs)
	c.RequestsPerMinute = getEnvInt("IMAGECHAT_REQUESTS_PER_MINUTE", c.RequestsPerMinute, &errs)
	c.RateLimitMaxWait = getEnvDuration("IMAGECHAT_RATE_LIMIT_MAX_WAIT", c.RateLimitMaxWait, &errs)
	c.RequestTimeout = getEnvDuration("IMAGECHAT_REQUEST_TIMEOUT", c.RequestTimeout, &errs)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))

	switch c.Provider {
	case ProviderGemini:
		c.APIKey = getEnv("GEMINI_API_KEY", c.APIKey)
	default:
		c.APIKey = getEnv("OPENAI_API_KEY", c.APIKey)
	}
	c.APIKey = getEnv("IMAGECHAT_API_KEY", c.APIKey)

	return errors.Join(errs...)
}

// Validate checks the provider kind, the numeric settings and that each
// default is a member of its enumeration.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	if c.TokensPerMinute < 0 || c.RequestsPerMinute < 0 {
		return errors.New("rate limits must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}

	enums := c.Allowed()
	params := c.Parameters()
	if params.Size != "" && !enums.ValidGenerateSize(params.Size) {
		return fmt.Errorf("default size %q is not an allowed generate size", params.Size)
	}
	if params.Quality != "" && !enums.ValidQuality(params.Quality) {
		return fmt.Errorf("default quality %q is not an allowed quality", params.Quality)
	}
	if params.Background != "" && !enums.ValidBackground(params.Background) {
		return fmt.Errorf("default background %q is not an allowed background", params.Background)
	}
	return nil
}

// Parameters returns the configured defaults.
func (c Config) Parameters() imagechat.ParameterSet {
	return imagechat.ParameterSet{
		Size:       imagechat.Size(c.Defaults.Size),
		Quality:    imagechat.Quality(c.Defaults.Quality),
		Background: imagechat.Background(c.Defaults.Background),
	}
}

// Allowed returns the configured allow-lists, with
// imagechat.DefaultEnumerations filling any list left empty.
func (c Config) Allowed() imagechat.Enumerations {
	enums := imagechat.DefaultEnumerations()
	if len(c.Enumerations.GenerateSizes) > 0 {
		enums.GenerateSizes = convert[imagechat.Size](c.Enumerations.GenerateSizes)
	}
	if len(c.Enumerations.EditSizes) > 0 {
		enums.EditSizes = convert[imagechat.Size](c.Enumerations.EditSizes)
	}
	if len(c.Enumerations.Qualities) > 0 {
		enums.Qualities = convert[imagechat.Quality](c.Enumerations.Qualities)
	}
	if len(c.Enumerations.Backgrounds) > 0 {
		enums.Backgrounds = convert[imagechat.Background](c.Enumerations.Backgrounds)
	}
	return enums
}

// RetryPolicy returns the configured retry policy.
func (c Config) RetryPolicy() imagechat.RetryPolicy {
	return imagechat.RetryPolicy{
		MaxRetries:     c.MaxRetries,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
	}
}

func convert[T ~string](in []string) []T {
	out := make([]T, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, T(strings.ToLower(s)))
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, value))
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, value))
		return fallback
	}
	return parsed
}
