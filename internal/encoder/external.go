package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// toolProbe looks a binary up in PATH once.
type toolProbe struct {
	once sync.Once
	path string
}

func (p *toolProbe) lookup(name string) string {
	p.once.Do(func() {
		if path, err := exec.LookPath(name); err == nil {
			p.path = path
		}
	})
	return p.path
}

// runTool writes img as a temporary PNG, runs the tool with args built from
// the source and destination paths, and returns the destination bytes.
// Both temp files are removed on every path.
func runTool(tool, ext string, img image.Image, args func(src, dst string) []string) ([]byte, error) {
	id := tempCounter.Add(1)
	src, err := os.CreateTemp("", fmt.Sprintf("shopimg_src_%d_*.png", id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	srcPath := src.Name()
	defer os.Remove(srcPath)

	dst, err := os.CreateTemp("", fmt.Sprintf("shopimg_dst_%d_*.%s", id, ext))
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("create temp: %w", err)
	}
	dstPath := dst.Name()
	dst.Close()
	defer os.Remove(dstPath)

	if err := png.Encode(src, img); err != nil {
		src.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := src.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	cmd := exec.Command(tool, args(srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", tool, err, string(out))
	}
	return os.ReadFile(dstPath)
}

// CWebPEncoder encodes images to WebP by shelling out to cwebp.
// This approach avoids CGO while still producing optimized WebP.
// Install: brew install webp / apt install webp
type CWebPEncoder struct {
	probe toolProbe
}

func (e *CWebPEncoder) Format() string    { return "webp" }
func (e *CWebPEncoder) MIMEType() string  { return "image/webp" }
func (e *CWebPEncoder) Extension() string { return "webp" }
func (e *CWebPEncoder) Available() bool   { return e.probe.lookup("cwebp") != "" }

func (e *CWebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	path := e.probe.lookup("cwebp")
	if path == "" {
		return nil, fmt.Errorf("cwebp not found in PATH; install with: brew install webp")
	}
	q := clampQuality(quality)
	return runTool(path, "webp", img, func(src, dst string) []string {
		return []string{
			"-q", fmt.Sprintf("%d", q),
			"-m", "6", // compression method (0=fast, 6=best)
			"-quiet",
			src,
			"-o", dst,
		}
	})
}

// AVIFEncoder encodes images to AVIF by shelling out to avifenc.
// Install: brew install libavif / apt install libavif-bin
type AVIFEncoder struct {
	probe toolProbe
}

func (e *AVIFEncoder) Format() string    { return "avif" }
func (e *AVIFEncoder) MIMEType() string  { return "image/avif" }
func (e *AVIFEncoder) Extension() string { return "avif" }
func (e *AVIFEncoder) Available() bool   { return e.probe.lookup("avifenc") != "" }

func (e *AVIFEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	path := e.probe.lookup("avifenc")
	if path == "" {
		return nil, fmt.Errorf("avifenc not found in PATH; install with: brew install libavif")
	}

	// avifenc quantizers run the other way: 0 is lossless, 63 is worst.
	avifQ := 63 - (clampQuality(quality) * 63 / 100)
	return runTool(path, "avif", img, func(src, dst string) []string {
		return []string{
			"--min", fmt.Sprintf("%d", avifQ),
			"--max", fmt.Sprintf("%d", avifQ),
			"--speed", "6",
			src,
			dst,
		}
	})
}
