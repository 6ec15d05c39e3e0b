package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the short format name (e.g. "jpeg", "webp", "avif", "png").
	Format() string

	// MIMEType returns the media type of the encoded output.
	MIMEType() string

	// Encode converts the image to bytes at the given quality (1-100).
	// Lossless encoders ignore quality.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// clampQuality maps out-of-range qualities to the default.
func clampQuality(q int) int {
	if q <= 0 || q > 100 {
		return 82
	}
	return q
}
