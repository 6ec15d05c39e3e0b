package variantlist

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AnyUserName/shopimg-cli/internal/upload"
)

// ErrNotReady is returned by Snapshot while any variant is converting.
var ErrNotReady = errors.New("images are still being processed")

// Variant is one color/variant of a product form with its image list.
type Variant struct {
	Name  string
	Code  string
	Extra map[string]any
	List  *List
}

// Set holds the variants of one product form, in display order.
type Set struct {
	mu       sync.Mutex
	variants []*Variant
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{}
}

// AddVariant appends a variant and returns its index.
func (s *Set) AddVariant(v *Variant) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = append(s.variants, v)
	return len(s.variants) - 1
}

// RemoveVariant deletes the variant at index i, discarding its list.
func (s *Set) RemoveVariant(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.variants) {
		return fmt.Errorf("variant index %d out of range", i)
	}
	s.variants = append(s.variants[:i:i], s.variants[i+1:]...)
	return nil
}

// Variant returns the variant at index i.
func (s *Set) Variant(i int) (*Variant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.variants) {
		return nil, false
	}
	return s.variants[i], true
}

// Len returns the number of variants.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.variants)
}

// Ready reports whether every variant list is idle.
func (s *Set) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variants {
		if v.List != nil && !v.List.Ready() {
			return false
		}
	}
	return true
}

// Snapshot captures the variants for upload assembly.
func (s *Set) Snapshot() ([]upload.Variant, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]upload.Variant, 0, len(s.variants))
	for _, v := range s.variants {
		uv := upload.Variant{Name: v.Name, Code: v.Code, Extra: v.Extra}
		if v.List != nil {
			uv.Items = v.List.Items()
		}
		out = append(out, uv)
	}
	return out, nil
}
