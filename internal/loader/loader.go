// Package loader decodes local image files into pixel-addressable bitmaps.
package loader

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/shopimg-cli/internal/media"
)

// DecodeError means the bytes of a file could not be read as an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not read %q as an image: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var errEmptyImage = errors.New("image has no pixels")

// Load decodes f and returns the bitmap with EXIF orientation applied.
// The reader opened for decoding is closed on every path.
func Load(f *media.LocalFile) (image.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &DecodeError{Name: f.Name, Err: err}
	}
	defer rc.Close()

	img, err := imaging.Decode(rc, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Name: f.Name, Err: err}
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Name: f.Name, Err: errEmptyImage}
	}
	return img, nil
}
