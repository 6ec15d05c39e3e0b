package media

import (
	"path/filepath"
	"strings"
)

// NormalizedImage is the output of the pipeline: a square image encoded to
// the rule's target type and within its byte ceiling.
type NormalizedImage struct {
	Name   string
	Type   string
	Width  int
	Height int
	Data   []byte

	// Quality is the encoder quality in (0,1] that produced Data.
	Quality float64
	// Attempts is how many encodings the quality search needed.
	Attempts int
}

// Size returns the encoded byte size.
func (n *NormalizedImage) Size() int64 {
	return int64(len(n.Data))
}

// Extension returns the file extension for a MIME type, without the dot.
func Extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/svg+xml":
		return "svg"
	}
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		return sub
	}
	return "bin"
}

// RenameFor replaces the extension of name with the one for mimeType.
func RenameFor(name, mimeType string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	return base + "." + Extension(mimeType)
}
