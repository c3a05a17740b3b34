package imagechat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParameterAnalyzer proposes generation parameters for a prompt.
type ParameterAnalyzer interface {
	// Analyze never fails; any problem degrades to defaults.
	Analyze(ctx context.Context, prompt string) ParameterSet

	// AnalyzeFor is Analyze with the size validated against sizes instead of
	// the generate enumeration.
	AnalyzeFor(ctx context.Context, prompt string, sizes []Size) ParameterSet
}

// Optimizer asks a completion model for generation parameters suited to a
// prompt and sanitizes the answer against the configured enumerations.
type Optimizer struct {
	client   *Client
	enums    Enumerations
	defaults ParameterSet
	logger   *slog.Logger
}

var _ ParameterAnalyzer = (*Optimizer)(nil)

// OptimizerOption configures an Optimizer.
type OptimizerOption func(*Optimizer)

// WithOptimizerDefaults sets the values substituted for absent or invalid fields.
func WithOptimizerDefaults(defaults ParameterSet) OptimizerOption {
	return func(o *Optimizer) {
		o.defaults = defaults
	}
}

// WithOptimizerLogger sets the optimizer's logger.
func WithOptimizerLogger(logger *slog.Logger) OptimizerOption {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOptimizer creates an Optimizer that issues its completions through client.
// Use client.WithChatModel to run it on a different model than chat.
func NewOptimizer(client *Client, opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{
		client:   client,
		enums:    client.Enumerations(),
		defaults: DefaultParameters(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

const optimizerSystemPrompt = `You choose image generation parameters.
Read the user's image prompt and answer with a JSON object containing exactly these fields:
- "size": one of %s. Use a portrait size for tall subjects (people, buildings, phone wallpapers), a landscape size for wide scenes (landscapes, panoramas, banners), otherwise square.
- "quality": one of %s. Use "high" for detailed, photorealistic or text-heavy images, "low" for quick sketches or icons, otherwise "medium" or "auto".
- "background": one of %s. Use "transparent" only for logos, icons, stickers or cut-out subjects, otherwise "auto".
Answer with the JSON object only.`

// Analyze proposes parameters for prompt.
func (o *Optimizer) Analyze(ctx context.Context, prompt string) ParameterSet {
	return o.AnalyzeFor(ctx, prompt, o.enums.GenerateSizes)
}

// AnalyzeFor proposes parameters for prompt, validating the size against sizes.
func (o *Optimizer) AnalyzeFor(ctx context.Context, prompt string, sizes []Size) ParameterSet {
	if len(sizes) == 0 {
		sizes = o.enums.GenerateSizes
	}
	defaults := o.defaultsFor(sizes)

	if strings.TrimSpace(prompt) == "" {
		return defaults
	}

	temperature := 0.0
	req := &CompletionRequest{
		Messages: []ChatMessage{
			TextMessage(RoleSystem, fmt.Sprintf(optimizerSystemPrompt,
				quoteList(sizes), quoteList(o.enums.Qualities), quoteList(o.enums.Backgrounds))),
			TextMessage(RoleUser, prompt),
		},
		Temperature:    &temperature,
		MaxTokens:      100,
		ResponseFormat: o.responseFormat(sizes),
	}

	resp, err := o.client.CompleteChat(ctx, req)
	if err != nil {
		o.logger.Warn("parameter optimization failed, using defaults", "error", err.Error())
		return defaults
	}
	if resp.Refusal != "" {
		o.logger.Warn("parameter optimization refused, using defaults", "refusal", resp.Refusal)
		return defaults
	}

	suggestion, err := parseSuggestion(resp.Content)
	if err != nil {
		o.logger.Warn("unparseable parameter suggestion, using defaults",
			"error", err.Error(),
			"content_length", len(resp.Content),
		)
		return defaults
	}

	params := sanitizeSuggestion(suggestion, sizes, o.enums, defaults)
	o.logger.Debug("parameters optimized",
		"size", string(params.Size),
		"quality", string(params.Quality),
		"background", string(params.Background),
	)
	return params
}

func (o *Optimizer) defaultsFor(sizes []Size) ParameterSet {
	return fitDefaults(o.defaults, sizes, o.enums)
}

func (o *Optimizer) responseFormat(sizes []Size) *ResponseFormat {
	return &ResponseFormat{
		Name: "image_parameters",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"size":       map[string]any{"type": "string", "enum": toAnySlice(sizes)},
				"quality":    map[string]any{"type": "string", "enum": toAnySlice(o.enums.Qualities)},
				"background": map[string]any{"type": "string", "enum": toAnySlice(o.enums.Backgrounds)},
			},
			"required":             []any{"size", "quality", "background"},
			"additionalProperties": false,
		},
	}
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// parseSuggestion decodes a model answer into a field map, tolerating code
// fences and malformed JSON.
func parseSuggestion(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)
	if m := codeFence.FindStringSubmatch(content); m != nil {
		content = m[1]
	}
	if content == "" {
		return nil, fmt.Errorf("empty suggestion")
	}

	var out map[string]any
	err := json.Unmarshal([]byte(content), &out)
	if err == nil {
		if out == nil {
			return nil, fmt.Errorf("suggestion is not an object")
		}
		return out, nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return nil, err
	}

	fixed, rerr := jsonrepair.JSONRepair(content)
	if rerr != nil {
		return nil, fmt.Errorf("repair suggestion: %w", rerr)
	}
	if err := json.Unmarshal([]byte(fixed), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("suggestion is not an object")
	}
	return out, nil
}

// sanitizeSuggestion keeps each field only if it is a string in its
// allow-list and substitutes the default otherwise.
func sanitizeSuggestion(fields map[string]any, sizes []Size, enums Enumerations, defaults ParameterSet) ParameterSet {
	params := defaults
	if s, ok := stringField(fields, "size"); ok && slices.Contains(sizes, Size(s)) {
		params.Size = Size(s)
	}
	if s, ok := stringField(fields, "quality"); ok && enums.ValidQuality(Quality(s)) {
		params.Quality = Quality(s)
	}
	if s, ok := stringField(fields, "background"); ok && enums.ValidBackground(Background(s)) {
		params.Background = Background(s)
	}
	return params
}

func stringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return normalizeToken(s), true
}

func quoteList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + string(v) + `"`
	}
	return strings.Join(quoted, ", ")
}

func toAnySlice[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
