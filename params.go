package imagechat

import (
	"slices"
	"strings"
)

// Size is the output resolution of a generated or edited image.
type Size string

const (
	Size1024x1024 Size = "1024x1024"
	Size1024x1792 Size = "1024x1792"
	Size1792x1024 Size = "1792x1024"
	Size1536x1024 Size = "1536x1024"
	Size1024x1536 Size = "1024x1536"
	SizeAuto      Size = "auto"
)

// Quality is the rendering quality requested from the provider.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityAuto   Quality = "auto"
)

// Background controls transparency of generated images.
type Background string

const (
	BackgroundAuto        Background = "auto"
	BackgroundTransparent Background = "transparent"
)

// ParameterSet holds the three tunable generation parameters.
// An empty field means "unset".
type ParameterSet struct {
	Size       Size       `json:"size,omitempty" yaml:"size,omitempty"`
	Quality    Quality    `json:"quality,omitempty" yaml:"quality,omitempty"`
	Background Background `json:"background,omitempty" yaml:"background,omitempty"`
}

// Enumerations are the closed allow-lists a ParameterSet is validated against.
// Generate and edit sizes are kept separate because providers accept different
// resolutions for the two operations.
type Enumerations struct {
	GenerateSizes []Size       `json:"generate_sizes" yaml:"generate_sizes"`
	EditSizes     []Size       `json:"edit_sizes" yaml:"edit_sizes"`
	Qualities     []Quality    `json:"qualities" yaml:"qualities"`
	Backgrounds   []Background `json:"backgrounds" yaml:"backgrounds"`
}

// DefaultEnumerations returns the allow-lists used when nothing is configured.
func DefaultEnumerations() Enumerations {
	return Enumerations{
		GenerateSizes: []Size{Size1024x1024, Size1024x1792, Size1792x1024},
		EditSizes:     []Size{Size1024x1024, Size1536x1024, Size1024x1536, SizeAuto},
		Qualities:     []Quality{QualityLow, QualityMedium, QualityHigh, QualityAuto},
		Backgrounds:   []Background{BackgroundAuto, BackgroundTransparent},
	}
}

// DefaultParameters returns the fallback values used for any field that is
// neither set by the caller nor proposed by the optimizer.
func DefaultParameters() ParameterSet {
	return ParameterSet{
		Size:       Size1024x1024,
		Quality:    QualityAuto,
		Background: BackgroundAuto,
	}
}

// ValidGenerateSize reports whether s is an allowed generation size.
func (e Enumerations) ValidGenerateSize(s Size) bool {
	return slices.Contains(e.GenerateSizes, s)
}

// ValidEditSize reports whether s is an allowed edit size.
func (e Enumerations) ValidEditSize(s Size) bool {
	return slices.Contains(e.EditSizes, s)
}

// ValidQuality reports whether q is an allowed quality.
func (e Enumerations) ValidQuality(q Quality) bool {
	return slices.Contains(e.Qualities, q)
}

// ValidBackground reports whether b is an allowed background.
func (e Enumerations) ValidBackground(b Background) bool {
	return slices.Contains(e.Backgrounds, b)
}

// withFallbacks fills empty lists from the defaults so a partially configured
// Enumerations never rejects everything.
func (e Enumerations) withFallbacks() Enumerations {
	d := DefaultEnumerations()
	if len(e.GenerateSizes) == 0 {
		e.GenerateSizes = d.GenerateSizes
	}
	if len(e.EditSizes) == 0 {
		e.EditSizes = d.EditSizes
	}
	if len(e.Qualities) == 0 {
		e.Qualities = d.Qualities
	}
	if len(e.Backgrounds) == 0 {
		e.Backgrounds = d.Backgrounds
	}
	return e
}

// fitDefaults replaces any default that is not itself allowed with the first
// allowed value, so defaults can never push an invalid value to a provider.
func fitDefaults(d ParameterSet, sizes []Size, e Enumerations) ParameterSet {
	if !slices.Contains(sizes, d.Size) && len(sizes) > 0 {
		d.Size = sizes[0]
	}
	if !e.ValidQuality(d.Quality) && len(e.Qualities) > 0 {
		d.Quality = e.Qualities[0]
	}
	if !e.ValidBackground(d.Background) && len(e.Backgrounds) > 0 {
		d.Background = e.Backgrounds[0]
	}
	return d
}

// normalizeToken lower-cases and trims a value proposed by a model.
func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s Size) String() string       { return string(s) }
func (q Quality) String() string    { return string(q) }
func (b Background) String() string { return string(b) }
