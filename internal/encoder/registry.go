package encoder

import (
	"fmt"
	"strings"
)

// Registry holds all available encoders, keyed by output MIME type.
type Registry struct {
	encoders map[string]Encoder
}

// typeOrder is the listing priority for Types and String.
var typeOrder = []string{"image/avif", "image/webp", "image/jpeg", "image/png"}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
	}

	all := []Encoder{
		&AVIFEncoder{},
		&CWebPEncoder{},
		&JPEGEncoder{},
		&PNGEncoder{},
	}
	// In-process libwebp wins over the cwebp shell-out when compiled in.
	if native := nativeWebP(); native != nil {
		all = append([]Encoder{native}, all...)
	}

	for _, enc := range all {
		if _, taken := r.encoders[enc.MIMEType()]; taken {
			continue
		}
		if enc.Available() {
			r.encoders[enc.MIMEType()] = enc
		}
	}

	return r
}

// Register adds or replaces the encoder for its MIME type.
func (r *Registry) Register(enc Encoder) {
	r.encoders[strings.ToLower(enc.MIMEType())] = enc
}

// ForType returns an encoder for the given MIME type, or nil if unavailable.
func (r *Registry) ForType(mimeType string) Encoder {
	return r.encoders[strings.ToLower(mimeType)]
}

// Types returns all available MIME types in priority order.
func (r *Registry) Types() []string {
	var result []string
	for _, t := range typeOrder {
		if _, ok := r.encoders[t]; ok {
			result = append(result, t)
		}
	}
	for t := range r.encoders {
		if !contains(typeOrder, t) {
			result = append(result, t)
		}
	}
	return result
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	types := r.Types()
	if len(types) == 0 {
		return "no encoders available"
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, r.encoders[t].Format())
	}
	return fmt.Sprintf("encoders: %s", strings.Join(names, ", "))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
