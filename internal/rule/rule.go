// Package rule defines conversion rules: the target format, square size,
// byte ceiling and quality search parameters a caller hands to the pipeline.
package rule

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidRule is wrapped by every validation failure.
var ErrInvalidRule = errors.New("invalid conversion rule")

// epsilon absorbs float error when counting quality steps.
const epsilon = 1e-9

// MaxQualityAttempts bounds the encodings a rule may ask for per image.
const MaxQualityAttempts = 100

// Rule is an immutable conversion configuration.
type Rule struct {
	Name         string   `mapstructure:"name"`
	Type         string   `mapstructure:"type"`         // target MIME type
	Width        int      `mapstructure:"width"`        // target width in px
	Height       int      `mapstructure:"height"`       // target height in px, equal to Width
	MaxBytes     int64    `mapstructure:"maxbytes"`     // byte ceiling of the encoded output
	AllowedTypes []string `mapstructure:"allowedtypes"` // accepted input MIME types
	StartQuality float64  `mapstructure:"startquality"` // first quality tried, in (0,1]
	MinQuality   float64  `mapstructure:"minquality"`   // lowest quality tried
	QualityStep  float64  `mapstructure:"qualitystep"`  // decrement per attempt
}

// DefaultAllowedTypes are the input types accepted by the storefront forms.
var DefaultAllowedTypes = []string{"image/webp", "image/jpeg", "image/png"}

// Built-in presets.
var presets = map[string]Rule{
	"variant": {
		Name:         "variant",
		Type:         "image/webp",
		Width:        600,
		Height:       600,
		MaxBytes:     100 * 1024,
		AllowedTypes: DefaultAllowedTypes,
		StartQuality: 0.92,
		MinQuality:   0.3,
		QualityStep:  0.07,
	},
	"category": {
		Name:         "category",
		Type:         "image/webp",
		Width:        300,
		Height:       300,
		MaxBytes:     20 * 1024,
		AllowedTypes: DefaultAllowedTypes,
		StartQuality: 0.92,
		MinQuality:   0.3,
		QualityStep:  0.07,
	},
	"category-large": {
		Name:         "category-large",
		Type:         "image/webp",
		Width:        300,
		Height:       300,
		MaxBytes:     100 * 1024,
		AllowedTypes: DefaultAllowedTypes,
		StartQuality: 0.92,
		MinQuality:   0.3,
		QualityStep:  0.07,
	},
}

// Get returns a built-in preset by name.
func Get(name string) (Rule, bool) {
	r, ok := presets[name]
	if ok {
		r.AllowedTypes = append([]string(nil), r.AllowedTypes...)
	}
	return r, ok
}

// Names lists the built-in presets in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the rule describes a bounded, square conversion.
func (r Rule) Validate() error {
	switch {
	case math.IsNaN(r.StartQuality) || math.IsNaN(r.MinQuality) || math.IsNaN(r.QualityStep):
		return fmt.Errorf("%w: NaN quality setting", ErrInvalidRule)
	case r.Type == "":
		return fmt.Errorf("%w: empty target type", ErrInvalidRule)
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidRule, r.Width, r.Height)
	case r.Width != r.Height:
		return fmt.Errorf("%w: target must be square, got %dx%d", ErrInvalidRule, r.Width, r.Height)
	case r.MaxBytes <= 0:
		return fmt.Errorf("%w: max bytes %d", ErrInvalidRule, r.MaxBytes)
	case r.StartQuality <= 0 || r.StartQuality > 1:
		return fmt.Errorf("%w: start quality %.2f outside (0,1]", ErrInvalidRule, r.StartQuality)
	case r.MinQuality <= 0 || r.MinQuality > r.StartQuality:
		return fmt.Errorf("%w: min quality %.2f outside (0,%.2f]", ErrInvalidRule, r.MinQuality, r.StartQuality)
	case r.QualityStep <= 0:
		return fmt.Errorf("%w: quality step %.2f", ErrInvalidRule, r.QualityStep)
	case r.steps() >= MaxQualityAttempts:
		return fmt.Errorf("%w: quality step %g allows more than %d attempts", ErrInvalidRule, r.QualityStep, MaxQualityAttempts)
	case len(r.AllowedTypes) == 0:
		return fmt.Errorf("%w: no allowed input types", ErrInvalidRule)
	}
	return nil
}

// Allows reports whether an input MIME type is accepted.
func (r Rule) Allows(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, t := range r.AllowedTypes {
		if strings.EqualFold(t, mimeType) {
			return true
		}
	}
	return false
}

// Qualities returns the strictly decreasing sequence of qualities the search
// tries: StartQuality - i*QualityStep for every i where the value is still
// at least MinQuality. It never holds more than MaxQualityAttempts values.
func (r Rule) Qualities() []float64 {
	n := 1
	if span := r.steps(); span > 0 {
		n = int(math.Floor(math.Min(span, MaxQualityAttempts)+epsilon)) + 1
	}
	if n > MaxQualityAttempts {
		n = MaxQualityAttempts
	}
	qs := make([]float64, n)
	for i := range qs {
		q := r.StartQuality - float64(i)*r.QualityStep
		qs[i] = math.Round(q*1e6) / 1e6
	}
	return qs
}

// MaxAttempts is the upper bound on encodings for one image.
func (r Rule) MaxAttempts() int {
	n := 1
	if span := r.steps(); span > 0 {
		n = int(math.Ceil(math.Min(span, MaxQualityAttempts)-epsilon)) + 1
	}
	if n > MaxQualityAttempts {
		n = MaxQualityAttempts
	}
	return n
}

// steps is the number of quality decrements between start and min.
func (r Rule) steps() float64 {
	return (r.StartQuality - r.MinQuality) / r.QualityStep
}

// KB formats the byte ceiling in kilobytes for user-facing messages.
func (r Rule) KB() int64 {
	return r.MaxBytes / 1024
}
