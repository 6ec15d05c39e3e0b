package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		mime string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0}, "image/png"},
		{"gif", []byte("GIF89a...."), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"avif", []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00"), "image/avif"},
		{"tiff", []byte("II*\x00\x08\x00"), "image/tiff"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := DetectHead(tc.head)
			require.NoError(t, err)
			assert.Equal(t, tc.mime, res.MIME)
		})
	}

	_, err := DetectHead([]byte("hello world"))
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = DetectHead(nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestFromPath_SniffsContent(t *testing.T) {
	dir := t.TempDir()
	// PNG content behind a misleading extension.
	path := filepath.Join(dir, "photo.jpg")
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	f, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "photo.jpg", f.Name)
	assert.Equal(t, "image/png", f.Type)
	assert.Equal(t, int64(buf.Len()), f.Size)

	rc, err := f.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), data)
}

func TestFromPath_UnknownContentFallsBackToExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.webp")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	f, err := FromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", f.Type)
}

func TestFromBytes(t *testing.T) {
	mod := time.UnixMilli(1700000000123)
	f := FromBytes("a.png", "image/png", mod, []byte{1, 2, 3})
	assert.Equal(t, int64(3), f.Size)
	assert.Equal(t, int64(1700000000123), f.LastModified)

	var zero LocalFile
	_, err := zero.Open()
	assert.Error(t, err)
}

func TestItemAccessors(t *testing.T) {
	remote := Item{ID: "u", Src: RemoteURL("https://cdn.example/a.webp")}
	u, ok := remote.Remote()
	assert.True(t, ok)
	assert.Equal(t, RemoteURL("https://cdn.example/a.webp"), u)
	_, ok = remote.Image()
	assert.False(t, ok)

	local := Item{ID: "f", Src: &NormalizedImage{Name: "a.webp"}}
	img, ok := local.Image()
	assert.True(t, ok)
	assert.Equal(t, "a.webp", img.Name)
}

func TestRenameFor(t *testing.T) {
	assert.Equal(t, "shirt.webp", RenameFor("shirt.JPG", "image/webp"))
	assert.Equal(t, "image.jpg", RenameFor(".hidden", "image/jpeg"))
	assert.Equal(t, "png", Extension("image/png"))
}
