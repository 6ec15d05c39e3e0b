// Package budget encodes an image at stepped-down qualities until the output
// fits under a byte ceiling.
package budget

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/shopimg-cli/internal/encoder"
	"github.com/AnyUserName/shopimg-cli/internal/rule"
)

// CompressionLimitError means even the lowest allowed quality was too large.
type CompressionLimitError struct {
	MaxBytes     int64
	SmallestSize int64   // size of the last (lowest quality) attempt
	Quality      float64 // lowest quality tried
}

func (e *CompressionLimitError) Error() string {
	return fmt.Sprintf("could not compress under %d KB (smallest attempt %d bytes at quality %.2f)",
		e.MaxBytes/1024, e.SmallestSize, e.Quality)
}

// EncodeError means the encoder produced no usable output.
type EncodeError struct {
	Format  string
	Quality float64
	Err     error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s at quality %.2f: %v", e.Format, e.Quality, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

var errEmptyOutput = errors.New("encoder returned no data")

// Result is the first encoding that satisfied the ceiling.
type Result struct {
	Data     []byte
	Quality  float64
	Attempts int
	// Tried lists every quality attempted, in order.
	Tried []float64
}

// Search encodes img with enc at each of r.Qualities() in turn and returns
// the first result of at most r.MaxBytes bytes.
func Search(enc encoder.Encoder, img image.Image, r rule.Rule) (*Result, error) {
	return search(enc, img, r, zerolog.Nop())
}

func search(enc encoder.Encoder, img image.Image, r rule.Rule, log zerolog.Logger) (*Result, error) {
	qualities := r.Qualities()
	tried := make([]float64, 0, len(qualities))
	var lastSize int64

	for _, q := range qualities {
		tried = append(tried, q)
		data, err := enc.Encode(img, toPercent(q))
		if err == nil && len(data) == 0 {
			err = errEmptyOutput
		}
		if err != nil {
			return nil, &EncodeError{Format: enc.Format(), Quality: q, Err: err}
		}

		lastSize = int64(len(data))
		log.Debug().
			Str("format", enc.Format()).
			Float64("quality", q).
			Int64("bytes", lastSize).
			Int64("max_bytes", r.MaxBytes).
			Msg("quality attempt")

		if lastSize <= r.MaxBytes {
			return &Result{Data: data, Quality: q, Attempts: len(tried), Tried: tried}, nil
		}
	}

	return nil, &CompressionLimitError{
		MaxBytes:     r.MaxBytes,
		SmallestSize: lastSize,
		Quality:      tried[len(tried)-1],
	}
}

// toPercent maps a (0,1] quality to the encoders' 1-100 scale.
func toPercent(q float64) int {
	p := int(math.Round(q * 100))
	if p < 1 {
		return 1
	}
	if p > 100 {
		return 100
	}
	return p
}

// Encoder runs budget searches against encoders looked up by target type.
type Encoder struct {
	registry *encoder.Registry
	log      zerolog.Logger
}

// New creates an Encoder over the given registry.
func New(registry *encoder.Registry, log zerolog.Logger) *Encoder {
	return &Encoder{registry: registry, log: log}
}

// Encode runs the search using the encoder registered for r.Type.
func (e *Encoder) Encode(img image.Image, r rule.Rule) (*Result, error) {
	enc := e.registry.ForType(r.Type)
	if enc == nil {
		return nil, &EncodeError{
			Format:  r.Type,
			Quality: r.StartQuality,
			Err:     fmt.Errorf("no encoder available for %s (%s)", r.Type, e.registry),
		}
	}
	return search(enc, img, r, e.log)
}
