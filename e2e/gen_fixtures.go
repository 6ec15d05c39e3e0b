//go:build ignore

// gen_fixtures creates sample inputs for a manual shopimg smoke run.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

const productYAML = `name: Linen shirt
fields:
  price: "49.90"
  description: Sample product generated by gen_fixtures
colors:
  - name: Sand
    code: "#d8c8a8"
    images:
      - photos/banner.jpg
      - photos/portrait.png
  - name: Night
    code: "#1d2433"
    images:
      - photos/square.png
      - https://cdn.example.com/night-back.webp
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	photos := filepath.Join(dir, "photos")
	if err := os.MkdirAll(photos, 0o755); err != nil {
		fail(err)
	}

	// Wide banner (JPEG, 2000x1000): crop region starts at x=500.
	writeJPEG(filepath.Join(photos, "banner.jpg"), gradient(2000, 1000))
	// Portrait (PNG, 800x1200).
	writePNG(filepath.Join(photos, "portrait.png"), stripes(800, 1200))
	// Already square, smaller than the target; gets upscaled.
	writePNG(filepath.Join(photos, "square.png"), gradient(400, 400))
	// Not an allowed input type; a batch containing it is rejected.
	writeGIF(filepath.Join(dir, "rejected.gif"), gradient(64, 64))

	if err := os.WriteFile(filepath.Join(dir, "product.yaml"), []byte(productYAML), 0o644); err != nil {
		fail(err)
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 4 images and product.yaml in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func stripes(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 240, G: 230, B: 210, A: 255}
			if (y/40)%2 == 0 {
				c = color.NRGBA{R: 30, G: 60, B: uint8(x * 255 / w), A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writeJPEG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 92}); err != nil {
		fail(err)
	}
}

func writePNG(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		fail(err)
	}
}

func writeGIF(path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		fail(err)
	}
	defer f.Close()
	if err := gif.Encode(f, img, nil); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "[gen_fixtures]", err)
	os.Exit(1)
}
