package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mhpenta/imagechat"
	"github.com/mhpenta/imagechat/config"
	"github.com/mhpenta/imagechat/provider/gemini"
	"github.com/mhpenta/imagechat/provider/openai"
)

// app holds the wired services for one command invocation.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	client    *imagechat.Client
	optimizer *imagechat.Optimizer
	generator *imagechat.Generator
	chat      *imagechat.ChatService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Debug("config loaded", configAttrs(cfg)...)

	var (
		provider  imagechat.Provider
		models    imagechat.Models
		optimizer string
		lookup    func(string) (imagechat.ModelInfo, bool)
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		p, err := gemini.New(ctx, gemini.Config{APIKey: cfg.APIKey})
		if err != nil {
			return nil, err
		}
		provider, models, optimizer, lookup = p, gemini.DefaultModels(), gemini.APIModelFlash, gemini.LookupModel
	default:
		p := openai.New(openai.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Logger: logger})
		provider, models, optimizer, lookup = p, openai.DefaultModels(), openai.ModelGPT4oMini, openai.LookupModel
	}

	if cfg.ChatModel != "" {
		models.Chat = cfg.ChatModel
	}
	if cfg.ImageModel != "" {
		models.Image = cfg.ImageModel
	}
	if cfg.OptimizerModel != "" {
		optimizer = cfg.OptimizerModel
	}

	opts := []imagechat.ClientOption{
		imagechat.WithLogger(logger),
		imagechat.WithEnumerations(cfg.Allowed()),
		imagechat.WithRetryPolicy(cfg.RetryPolicy()),
	}
	if cfg.TokensPerMinute > 0 || cfg.RequestsPerMinute > 0 {
		opts = append(opts, imagechat.WithRateLimits(cfg.TokensPerMinute, cfg.RequestsPerMinute))
	} else {
		var infos []imagechat.ModelInfo
		for _, name := range []string{models.Chat, models.Image} {
			if info, ok := lookup(name); ok {
				infos = append(infos, info)
			}
		}
		opts = append(opts, imagechat.WithModelInfo(infos...))
	}
	if cfg.RateLimitMaxWait > 0 {
		opts = append(opts, imagechat.WithWaitOnRateLimit(cfg.RateLimitMaxWait))
	}

	client := imagechat.NewClient(provider, models, opts...)
	defaults := cfg.Parameters()

	opt := imagechat.NewOptimizer(client.WithChatModel(optimizer),
		imagechat.WithOptimizerDefaults(defaults),
		imagechat.WithOptimizerLogger(logger),
	)
	gen := imagechat.NewGenerator(client,
		imagechat.WithAnalyzer(opt),
		imagechat.WithDefaults(defaults),
		imagechat.WithGeneratorLogger(logger),
	)
	chat := imagechat.NewChatService(client, gen,
		imagechat.WithSystemPrompt(cfg.SystemPrompt),
		imagechat.WithChatLogger(logger),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		optimizer: opt,
		generator: gen,
		chat:      chat,
	}, nil
}

// withTimeout bounds a command by the configured request timeout.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.RequestTimeout)
}

func (a *app) Close() error {
	return a.client.Close()
}

// configAttrs describes cfg for the debug log. The API key is masked.
func configAttrs(cfg config.Config) []any {
	return []any{
		"provider", cfg.Provider,
		"api_key", imagechat.RedactString(cfg.APIKey),
		"base_url", cfg.BaseURL,
		"chat_model", cfg.ChatModel,
		"image_model", cfg.ImageModel,
		"max_retries", cfg.MaxRetries,
		"request_timeout", cfg.RequestTimeout,
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
