// Package upload partitions image lists into new binary uploads and retained
// remote URLs, and serializes the result as a multipart form.
package upload

import (
	"encoding/json"
	"fmt"

	"github.com/AnyUserName/shopimg-cli/internal/media"
)

// Field names understood by the catalog backend.
const (
	FieldColors         = "colors"
	FieldImages         = "images"
	FieldExistingImages = "existingImages"
	variantFieldPrefix  = "color_images_"
)

// VariantField returns the multipart field for new images of variant index.
func VariantField(index int) string {
	return fmt.Sprintf("%s%d", variantFieldPrefix, index)
}

// Variant is the submit-time view of one variant.
type Variant struct {
	Name  string
	Code  string
	Extra map[string]any
	Items []media.Item
}

// Part is one binary file of the multipart body.
type Part struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// split separates items into new binaries and retained URLs, keeping order.
func split(items []media.Item) ([]*media.NormalizedImage, []string, error) {
	var images []*media.NormalizedImage
	urls := []string{}
	for _, it := range items {
		switch src := it.Src.(type) {
		case *media.NormalizedImage:
			if src == nil {
				return nil, nil, fmt.Errorf("item %s has no image data", it.ID)
			}
			images = append(images, src)
		case media.RemoteURL:
			urls = append(urls, string(src))
		default:
			return nil, nil, fmt.Errorf("item %s has unsupported source %T", it.ID, it.Src)
		}
	}
	return images, urls, nil
}

// AssembleVariants builds the payload for variant mode: new images go under
// color_images_<index>, and a "colors" JSON array carries each variant's
// metadata with the URLs it keeps.
func AssembleVariants(variants []Variant) (*Payload, error) {
	p := NewPayload()
	colors := make([]map[string]any, 0, len(variants))

	for idx, v := range variants {
		images, urls, err := split(v.Items)
		if err != nil {
			return nil, fmt.Errorf("variant %d (%s): %w", idx, v.Name, err)
		}
		for _, img := range images {
			p.AddFile(Part{
				Field:       VariantField(idx),
				FileName:    img.Name,
				ContentType: img.Type,
				Data:        img.Data,
			})
		}

		entry := make(map[string]any, len(v.Extra)+3)
		for k, val := range v.Extra {
			entry[k] = val
		}
		entry["name"] = v.Name
		entry["code"] = v.Code
		entry["images"] = urls
		colors = append(colors, entry)
	}

	if err := p.SetJSON(FieldColors, colors); err != nil {
		return nil, err
	}
	return p, nil
}

// AssembleSingle builds the payload for single-image mode: a flat "images"
// field for new binaries and "existingImages" for retained URLs.
func AssembleSingle(items []media.Item) (*Payload, error) {
	images, urls, err := split(items)
	if err != nil {
		return nil, err
	}
	p := NewPayload()
	for _, img := range images {
		p.AddFile(Part{
			Field:       FieldImages,
			FileName:    img.Name,
			ContentType: img.Type,
			Data:        img.Data,
		})
	}
	if err := p.SetJSON(FieldExistingImages, urls); err != nil {
		return nil, err
	}
	return p, nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
