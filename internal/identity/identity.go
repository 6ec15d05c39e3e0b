// Package identity derives stable ids for image list entries so that remove
// and reorder can address items independent of their position.
package identity

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/AnyUserName/shopimg-cli/internal/hasher"
	"github.com/AnyUserName/shopimg-cli/internal/media"
)

const (
	urlPrefix  = "url_"
	filePrefix = "file_"
)

// InvalidInputError is returned for inputs that cannot be identified.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason == "" {
		return "unrecognized image input"
	}
	return "unrecognized image input: " + e.Reason
}

// Identifier assigns ids. The zero value uses file metadata
// (name, size, modification time) for local files.
type Identifier struct {
	// ContentDigest switches local-file ids to name plus an xxHash64 of the
	// file bytes, so different files with equal metadata get different ids.
	ContentDigest bool
}

// Identify uses the default metadata-based Identifier.
func Identify(in media.RawInput) (media.Item, error) {
	return Identifier{}.Identify(in)
}

// Identify returns the item for in. src is in itself, except for local files
// whose src the caller replaces once the file is normalized.
func (id Identifier) Identify(in media.RawInput) (media.Item, error) {
	switch v := in.(type) {
	case media.RemoteURL:
		return media.Item{ID: URLID(string(v)), Src: v}, nil
	case *media.LocalFile:
		if v == nil {
			return media.Item{}, &InvalidInputError{Reason: "nil file"}
		}
		fid, err := id.fileID(v)
		if err != nil {
			return media.Item{}, err
		}
		return media.Item{ID: fid}, nil
	case media.NormalizedRecord:
		return media.Item{ID: v.ID, Src: v.Src}, nil
	case media.Invalid:
		return media.Item{}, &InvalidInputError{Reason: v.Reason}
	case nil:
		return media.Item{}, &InvalidInputError{Reason: "nil input"}
	default:
		return media.Item{}, &InvalidInputError{Reason: fmt.Sprintf("unsupported input %T", in)}
	}
}

func (id Identifier) fileID(f *media.LocalFile) (string, error) {
	if !id.ContentDigest {
		return FileID(f), nil
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", f.Name, err)
	}
	defer rc.Close()
	sum, err := hasher.ContentHashReader(rc, 16)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", f.Name, err)
	}
	return filePrefix + f.Name + "_" + sum, nil
}

// FileID is the metadata identity of a local file.
func FileID(f *media.LocalFile) string {
	return filePrefix + f.Name + "_" + strconv.FormatInt(f.Size, 10) + "_" + strconv.FormatInt(f.LastModified, 10)
}

// URLID is the reversible identity of a remote URL.
func URLID(u string) string {
	return urlPrefix + base64.StdEncoding.EncodeToString([]byte(u))
}

// DecodeURLID recovers the URL from an id built by URLID.
func DecodeURLID(id string) (string, bool) {
	enc, ok := strings.CutPrefix(id, urlPrefix)
	if !ok {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Disambiguate makes ids unique in place. The first occurrence of an id is
// kept; later ones get "_<position>" appended, with a further counter if the
// suffixed id is itself taken.
func Disambiguate(items []media.Item) []media.Item {
	original := make(map[string]struct{}, len(items))
	for _, it := range items {
		original[it.ID] = struct{}{}
	}
	taken := make(map[string]bool, len(items))
	for i := range items {
		id := items[i].ID
		if !taken[id] {
			taken[id] = true
			continue
		}
		candidate := id + "_" + strconv.Itoa(i)
		for n := 1; taken[candidate] || isOriginal(original, candidate); n++ {
			candidate = id + "_" + strconv.Itoa(i) + "_" + strconv.Itoa(n)
		}
		items[i].ID = candidate
		taken[candidate] = true
	}
	return items
}

func isOriginal(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
