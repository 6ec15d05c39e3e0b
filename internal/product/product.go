// Package product reads the YAML description of a product or category form
// and turns it into an upload payload.
package product

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/shopimg-cli/internal/media"
	"github.com/AnyUserName/shopimg-cli/internal/rule"
	"github.com/AnyUserName/shopimg-cli/internal/upload"
	"github.com/AnyUserName/shopimg-cli/internal/variantlist"
)

// Kinds of form a file can describe.
const (
	KindProduct  = "product"
	KindCategory = "category"
)

// Color is one variant of a product with its images.
type Color struct {
	Name   string         `yaml:"name"`
	Code   string         `yaml:"code"`
	Extra  map[string]any `yaml:"extra,omitempty"`
	Images []string       `yaml:"images"`
}

// Product is a product or category form.
//
// Images entries are either http(s) URLs already hosted by the backend or
// paths to local files, relative to the YAML file.
type Product struct {
	Kind   string            `yaml:"kind"`
	Name   string            `yaml:"name"`
	Rule   string            `yaml:"rule"`
	Fields map[string]string `yaml:"fields,omitempty"`
	Images []string          `yaml:"images,omitempty"`
	Colors []Color           `yaml:"colors,omitempty"`

	baseDir string
}

// Load parses a product file.
func Load(path string) (*Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.baseDir = filepath.Dir(path)
	return p, nil
}

// Parse decodes and checks a product description.
func Parse(data []byte) (*Product, error) {
	var p Product
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse product: %w", err)
	}
	if p.Kind == "" {
		p.Kind = KindProduct
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Product) check() error {
	switch {
	case p.Kind != KindProduct && p.Kind != KindCategory:
		return fmt.Errorf("unknown kind %q", p.Kind)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("name is required")
	case len(p.Colors) > 0 && len(p.Images) > 0:
		return fmt.Errorf("use either images or colors, not both")
	case p.Kind == KindCategory && len(p.Colors) > 0:
		return fmt.Errorf("categories have no colors")
	}
	for i, c := range p.Colors {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("color %d: name is required", i)
		}
	}
	return nil
}

// RuleName returns the configured rule, or the default for the kind.
func (p *Product) RuleName() string {
	if p.Rule != "" {
		return p.Rule
	}
	if p.Kind == KindCategory {
		return "category"
	}
	return "variant"
}

// Variants reports whether the form carries per-color image lists.
func (p *Product) Variants() bool {
	return len(p.Colors) > 0
}

// Classify turns one images entry into a raw input.
func Classify(s, baseDir string) media.RawInput {
	s = strings.TrimSpace(s)
	if s == "" {
		return media.Invalid{Reason: "empty image entry"}
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return media.RemoteURL(s)
	}
	path := s
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	f, err := media.FromPath(path)
	if err != nil {
		return media.Invalid{Reason: err.Error()}
	}
	return f
}

func (p *Product) inputs(entries []string) []media.RawInput {
	in := make([]media.RawInput, len(entries))
	for i, s := range entries {
		in[i] = Classify(s, p.baseDir)
	}
	return in
}

// Assemble normalizes every local image under r and builds the upload
// payload. Any failing image aborts the whole form.
func (p *Product) Assemble(r rule.Rule, conv variantlist.Converter, opts ...variantlist.Option) (*upload.Payload, error) {
	var (
		payload *upload.Payload
		err     error
	)
	if p.Variants() {
		payload, err = p.assembleVariants(r, conv, opts)
	} else {
		payload, err = p.assembleSingle(r, conv, opts)
	}
	if err != nil {
		return nil, err
	}

	payload.SetField("name", p.Name)
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "name" {
			continue
		}
		payload.SetField(k, p.Fields[k])
	}
	return payload, nil
}

func (p *Product) assembleVariants(r rule.Rule, conv variantlist.Converter, opts []variantlist.Option) (*upload.Payload, error) {
	set := variantlist.NewSet()
	for _, c := range p.Colors {
		list := variantlist.New(r, conv, opts...)
		if err := list.Add(p.inputs(c.Images)); err != nil {
			return nil, fmt.Errorf("color %s: %w", c.Name, err)
		}
		set.AddVariant(&variantlist.Variant{
			Name:  c.Name,
			Code:  c.Code,
			Extra: c.Extra,
			List:  list,
		})
	}
	variants, err := set.Snapshot()
	if err != nil {
		return nil, err
	}
	return upload.AssembleVariants(variants)
}

func (p *Product) assembleSingle(r rule.Rule, conv variantlist.Converter, opts []variantlist.Option) (*upload.Payload, error) {
	list := variantlist.New(r, conv, opts...)
	if err := list.Add(p.inputs(p.Images)); err != nil {
		return nil, err
	}
	return upload.AssembleSingle(list.Items())
}
