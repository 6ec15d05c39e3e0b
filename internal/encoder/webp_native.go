//go:build libwebp

package encoder

import (
	"bytes"
	"fmt"
	"image"

	webpenc "github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// NativeWebPEncoder encodes WebP in-process through libwebp.
// Build with -tags libwebp and libwebp-dev installed.
type NativeWebPEncoder struct{}

func (e *NativeWebPEncoder) Format() string    { return "webp" }
func (e *NativeWebPEncoder) MIMEType() string  { return "image/webp" }
func (e *NativeWebPEncoder) Extension() string { return "webp" }
func (e *NativeWebPEncoder) Available() bool   { return true }

func (e *NativeWebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	opts, err := webpenc.NewLossyEncoderOptions(webpenc.PresetPhoto, float32(clampQuality(quality)))
	if err != nil {
		return nil, fmt.Errorf("webp options: %w", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nativeWebP() Encoder { return &NativeWebPEncoder{} }
