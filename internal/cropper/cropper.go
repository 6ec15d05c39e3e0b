// Package cropper turns images of any aspect ratio into fixed-size squares.
package cropper

import (
	"image"

	"github.com/disintegration/imaging"
)

// Region is the square area of the source that survives the crop.
type Region struct {
	OffsetX int
	OffsetY int
	Side    int
}

// Rect returns the region as a rectangle relative to origin.
func (r Region) Rect(origin image.Point) image.Rectangle {
	topLeft := origin.Add(image.Pt(r.OffsetX, r.OffsetY))
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(r.Side, r.Side))}
}

// CenterRegion computes the centered square crop of a width x height image.
func CenterRegion(width, height int) Region {
	side := width
	if height < side {
		side = height
	}
	return Region{
		OffsetX: (width - side) / 2,
		OffsetY: (height - side) / 2,
		Side:    side,
	}
}

// Square center-crops img and scales the crop to fill a width x height
// canvas. The result always has bounds [0,0,width,height].
func Square(img image.Image, width, height int) (*image.NRGBA, Region) {
	b := img.Bounds()
	region := CenterRegion(b.Dx(), b.Dy())

	cropped := imaging.Crop(img, region.Rect(b.Min))
	if cropped.Bounds().Dx() == width && cropped.Bounds().Dy() == height {
		return cropped, region
	}
	return imaging.Resize(cropped, width, height, imaging.Lanczos), region
}
