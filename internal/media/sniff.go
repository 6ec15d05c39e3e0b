package media

import (
	"bytes"
	"errors"
	"io"
)

// ErrUnknownType is returned when content matches no known image signature.
var ErrUnknownType = errors.New("unknown media type")

// Sniffed is the outcome of content detection.
type Sniffed struct {
	Format string
	MIME   string
}

// Detect reads up to 512 bytes from r and identifies the image type from
// magic bytes. The head that was read is returned so callers can replay it.
func Detect(r io.Reader) (Sniffed, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Sniffed{}, nil, err
	}
	head = head[:n]

	res, err := DetectHead(head)
	return res, head, err
}

// DetectHead identifies an image type from its leading bytes.
func DetectHead(head []byte) (Sniffed, error) {
	switch {
	case len(head) == 0:
		return Sniffed{}, ErrUnknownType
	case isJPEG(head):
		return Sniffed{Format: "jpeg", MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Sniffed{Format: "png", MIME: "image/png"}, nil
	case isGIF(head):
		return Sniffed{Format: "gif", MIME: "image/gif"}, nil
	case isWEBP(head):
		return Sniffed{Format: "webp", MIME: "image/webp"}, nil
	case isAVIF(head):
		return Sniffed{Format: "avif", MIME: "image/avif"}, nil
	case isBMP(head):
		return Sniffed{Format: "bmp", MIME: "image/bmp"}, nil
	case isTIFF(head):
		return Sniffed{Format: "tiff", MIME: "image/tiff"}, nil
	}
	return Sniffed{}, ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff
}

func isPNG(head []byte) bool {
	magic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return bytes.HasPrefix(head, magic)
}

func isGIF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("GIF87a")) || bytes.HasPrefix(head, []byte("GIF89a"))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

func isAVIF(head []byte) bool {
	if len(head) < 12 {
		return false
	}
	return string(head[4:8]) == "ftyp" && bytes.Contains(head[8:], []byte("avif"))
}

func isBMP(head []byte) bool {
	return bytes.HasPrefix(head, []byte("BM"))
}

func isTIFF(head []byte) bool {
	return bytes.HasPrefix(head, []byte("II*\x00")) || bytes.HasPrefix(head, []byte("MM\x00*"))
}
