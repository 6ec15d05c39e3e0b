package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/AnyUserName/shopimg-cli/internal/budget"
	"github.com/AnyUserName/shopimg-cli/internal/cropper"
	"github.com/AnyUserName/shopimg-cli/internal/encoder"
	"github.com/AnyUserName/shopimg-cli/internal/loader"
	"github.com/AnyUserName/shopimg-cli/internal/media"
	"github.com/AnyUserName/shopimg-cli/internal/rule"
)

// Converter runs one file through decode, square crop and budget encode.
type Converter struct {
	budget *budget.Encoder
	log    zerolog.Logger
}

// NewConverter creates a converter over the encoders in registry.
func NewConverter(registry *encoder.Registry, log zerolog.Logger) *Converter {
	return &Converter{
		budget: budget.New(registry, log),
		log:    log,
	}
}

// Convert normalizes f under r. The decoded bitmap and canvas live only for
// the duration of the call.
func (c *Converter) Convert(f *media.LocalFile, r rule.Rule) (*media.NormalizedImage, error) {
	img, err := loader.Load(f)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	canvas, region := cropper.Square(img, r.Width, r.Height)
	c.log.Debug().
		Str("file", f.Name).
		Int("src_w", bounds.Dx()).
		Int("src_h", bounds.Dy()).
		Int("offset_x", region.OffsetX).
		Int("offset_y", region.OffsetY).
		Int("side", region.Side).
		Msg("square crop")

	res, err := c.budget.Encode(canvas, r)
	if err != nil {
		return nil, err
	}

	return &media.NormalizedImage{
		Name:     media.RenameFor(f.Name, r.Type),
		Type:     r.Type,
		Width:    r.Width,
		Height:   r.Height,
		Data:     res.Data,
		Quality:  res.Quality,
		Attempts: res.Attempts,
	}, nil
}
