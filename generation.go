package imagechat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// GenerateParams are the caller's inputs to Generator.Generate. Empty
// parameter fields are filled by the optimizer or the defaults.
type GenerateParams struct {
	Prompt     string
	N          int
	Size       Size
	Quality    Quality
	Background Background

	// SkipOptimization disables the optimizer call for this request.
	SkipOptimization bool
}

// EditParams are the caller's inputs to Generator.Edit. A single Image is
// normalized into Images (placed first); at least one image is required.
type EditParams struct {
	Prompt  string
	Image   *ImageRef
	Images  []ImageRef
	Mask    *ImageRef
	N       int
	Size    Size
	Quality Quality

	SkipOptimization bool
}

// Generator merges parameters, invokes the provider through a Client and
// normalizes the result into GenerationRecords.
type Generator struct {
	client   *Client
	analyzer ParameterAnalyzer
	enums    Enumerations
	defaults ParameterSet
	now      func() time.Time
	ids      IDSource
	logger   *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithAnalyzer sets the parameter optimizer. Without one, unset fields take
// the defaults directly.
func WithAnalyzer(a ParameterAnalyzer) GeneratorOption {
	return func(g *Generator) {
		g.analyzer = a
	}
}

// WithDefaults sets the fallback parameter values.
func WithDefaults(defaults ParameterSet) GeneratorOption {
	return func(g *Generator) {
		g.defaults = defaults
	}
}

// WithGeneratorClock overrides the timestamp source for records.
func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDSource overrides record ID generation.
func WithIDSource(ids IDSource) GeneratorOption {
	return func(g *Generator) {
		if ids != nil {
			g.ids = ids
		}
	}
}

// WithGeneratorLogger sets the generator's logger.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a Generator on top of client.
func NewGenerator(client *Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:   client,
		enums:    client.Enumerations(),
		defaults: DefaultParameters(),
		now:      time.Now,
		ids:      NewRecordID,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate creates images from a prompt.
func (g *Generator) Generate(ctx context.Context, params GenerateParams) (*GenerationResult, error) {
	return g.TryGenerate(ctx, params).Unwrap()
}

// Edit edits one or more images.
func (g *Generator) Edit(ctx context.Context, params EditParams) (*GenerationResult, error) {
	return g.TryEdit(ctx, params).Unwrap()
}

// TryGenerate is Generate returning an Outcome, for callers that branch on
// success instead of handling an error.
func (g *Generator) TryGenerate(ctx context.Context, params GenerateParams) Outcome {
	if strings.TrimSpace(params.Prompt) == "" {
		return failed(inputError("prompt", ErrEmptyPrompt))
	}
	n, err := normalizeCount(params.N)
	if err != nil {
		return failed(err)
	}
	explicit := ParameterSet{Size: params.Size, Quality: params.Quality, Background: params.Background}
	if err := g.validateExplicit(explicit, g.enums.GenerateSizes, true); err != nil {
		return failed(err)
	}

	var suggestion *ParameterSet
	if !params.SkipOptimization && g.analyzer != nil && needsOptimization(explicit, true) {
		suggestion = g.filterSuggestion(g.analyzer.AnalyzeFor(ctx, params.Prompt, g.enums.GenerateSizes), g.enums.GenerateSizes)
	}
	merged := mergeParameters(explicit, suggestion, g.defaultsFor(g.enums.GenerateSizes), true)

	resp, err := g.client.GenerateImages(ctx, &ImageGenerateRequest{
		Prompt:     params.Prompt,
		N:          n,
		Size:       merged.Size,
		Quality:    merged.Quality,
		Background: merged.Background,
	})
	if err != nil {
		return failed(asProviderError(OpImageGeneration, g.client.ProviderName(), err))
	}
	return g.normalize(OpImageGeneration, resp, merged)
}

// TryEdit is Edit returning an Outcome.
func (g *Generator) TryEdit(ctx context.Context, params EditParams) Outcome {
	if strings.TrimSpace(params.Prompt) == "" {
		return failed(inputError("prompt", ErrEmptyPrompt))
	}
	images := normalizeEditImages(params.Image, params.Images)
	if len(images) == 0 {
		return failed(inputError("image", ErrNoImages))
	}
	n, err := normalizeCount(params.N)
	if err != nil {
		return failed(err)
	}
	explicit := ParameterSet{Size: params.Size, Quality: params.Quality}
	if err := g.validateExplicit(explicit, g.enums.EditSizes, false); err != nil {
		return failed(err)
	}

	var suggestion *ParameterSet
	if !params.SkipOptimization && g.analyzer != nil && needsOptimization(explicit, false) {
		suggestion = g.filterSuggestion(g.analyzer.AnalyzeFor(ctx, params.Prompt, g.enums.EditSizes), g.enums.EditSizes)
	}
	merged := mergeParameters(explicit, suggestion, g.defaultsFor(g.enums.EditSizes), false)

	resp, err := g.client.EditImages(ctx, &ImageEditRequest{
		Prompt:  params.Prompt,
		Images:  images,
		Mask:    params.Mask,
		N:       n,
		Size:    merged.Size,
		Quality: merged.Quality,
	})
	if err != nil {
		return failed(asProviderError(OpImageEdit, g.client.ProviderName(), err))
	}
	return g.normalize(OpImageEdit, resp, merged)
}

func (g *Generator) normalize(op Op, resp *ImageResponse, params ParameterSet) Outcome {
	if resp == nil || len(resp.Images) == 0 {
		return failed(&ProviderError{Op: op, Provider: g.client.ProviderName(), Err: ErrEmptyImageResult})
	}
	records := newRecords(resp.Images, g.now(), g.ids)
	g.logger.Debug("images normalized",
		"op", string(op),
		"records", len(records),
	)
	return succeeded(&GenerationResult{
		Records:    records,
		Parameters: params,
		Usage:      resp.Usage,
	})
}

// validateExplicit rejects caller-supplied values outside their enumeration
// so they never reach the provider.
func (g *Generator) validateExplicit(p ParameterSet, sizes []Size, withBackground bool) error {
	if p.Size != "" && !slices.Contains(sizes, p.Size) {
		return inputError("size", fmt.Errorf("%w: size %q", ErrInvalidParameter, p.Size))
	}
	if p.Quality != "" && !g.enums.ValidQuality(p.Quality) {
		return inputError("quality", fmt.Errorf("%w: quality %q", ErrInvalidParameter, p.Quality))
	}
	if withBackground && p.Background != "" && !g.enums.ValidBackground(p.Background) {
		return inputError("background", fmt.Errorf("%w: background %q", ErrInvalidParameter, p.Background))
	}
	return nil
}

func (g *Generator) defaultsFor(sizes []Size) ParameterSet {
	return fitDefaults(g.defaults, sizes, g.enums)
}

// filterSuggestion drops suggested values outside the allow-lists, in case a
// custom analyzer does not sanitize its output.
func (g *Generator) filterSuggestion(s ParameterSet, sizes []Size) *ParameterSet {
	if !slices.Contains(sizes, s.Size) {
		s.Size = ""
	}
	if !g.enums.ValidQuality(s.Quality) {
		s.Quality = ""
	}
	if !g.enums.ValidBackground(s.Background) {
		s.Background = ""
	}
	return &s
}

// needsOptimization reports whether any relevant field is unset.
func needsOptimization(explicit ParameterSet, withBackground bool) bool {
	return explicit.Size == "" || explicit.Quality == "" || (withBackground && explicit.Background == "")
}

// mergeParameters applies explicit > suggestion > default per field. A nil
// suggestion means the optimizer did not run.
func mergeParameters(explicit ParameterSet, suggestion *ParameterSet, defaults ParameterSet, withBackground bool) ParameterSet {
	var s ParameterSet
	if suggestion != nil {
		s = *suggestion
	}
	merged := ParameterSet{
		Size:    firstNonEmpty(explicit.Size, s.Size, defaults.Size),
		Quality: firstNonEmpty(explicit.Quality, s.Quality, defaults.Quality),
	}
	if withBackground {
		merged.Background = firstNonEmpty(explicit.Background, s.Background, defaults.Background)
	}
	return merged
}

func firstNonEmpty[T ~string](values ...T) T {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	var zero T
	return zero
}

// normalizeEditImages turns the single-image and list forms into one list.
func normalizeEditImages(single *ImageRef, many []ImageRef) []ImageRef {
	images := make([]ImageRef, 0, len(many)+1)
	if single != nil {
		images = append(images, *single)
	}
	return append(images, many...)
}

func normalizeCount(n int) (int, error) {
	if n == 0 {
		return 1, nil
	}
	if n < 1 || n > MaxImagesPerRequest {
		return 0, inputError("n", fmt.Errorf("%w: %d (allowed 1-%d)", ErrInvalidCount, n, MaxImagesPerRequest))
	}
	return n, nil
}
