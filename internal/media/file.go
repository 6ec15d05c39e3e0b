package media

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalFile is a user-selected file that has not been normalized yet.
type LocalFile struct {
	// Name is the base file name as picked by the user.
	Name string
	// Size is the byte size of the file.
	Size int64
	// Type is the MIME type of the file (e.g. "image/jpeg").
	Type string
	// LastModified is the modification time in milliseconds since the epoch.
	LastModified int64

	open func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the file contents. The caller must close it.
func (f *LocalFile) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("local file %q has no content", f.Name)
	}
	return f.open()
}

// NewLocalFile builds a LocalFile over an arbitrary opener.
func NewLocalFile(name, mimeType string, size, lastModified int64, open func() (io.ReadCloser, error)) *LocalFile {
	return &LocalFile{
		Name:         name,
		Size:         size,
		Type:         mimeType,
		LastModified: lastModified,
		open:         open,
	}
}

// FromPath builds a LocalFile from a file on disk. The MIME type is sniffed
// from the first bytes of content and falls back to the extension.
func FromPath(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	res, _, sniffErr := Detect(f)
	f.Close()

	mimeType := res.MIME
	if sniffErr != nil {
		mimeType = TypeByExtension(path)
	}

	return &LocalFile{
		Name:         filepath.Base(path),
		Size:         info.Size(),
		Type:         mimeType,
		LastModified: info.ModTime().UnixMilli(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromBytes builds a LocalFile around in-memory content.
func FromBytes(name, mimeType string, modTime time.Time, data []byte) *LocalFile {
	return &LocalFile{
		Name:         name,
		Size:         int64(len(data)),
		Type:         mimeType,
		LastModified: modTime.UnixMilli(),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// TypeByExtension maps a file name to its MIME type without parameters.
func TypeByExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	}
	t := mime.TypeByExtension(ext)
	if idx := strings.Index(t, ";"); idx >= 0 {
		t = t[:idx]
	}
	return strings.TrimSpace(t)
}
