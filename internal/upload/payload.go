package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// Payload is an assembled multipart form, kept in memory until written.
type Payload struct {
	fields    map[string]string
	jsonNames []string
	jsonVals  map[string]string
	files     []Part
}

// NewPayload returns an empty payload.
func NewPayload() *Payload {
	return &Payload{
		fields:   make(map[string]string),
		jsonVals: make(map[string]string),
	}
}

// SetField sets a plain form field.
func (p *Payload) SetField(name, value string) {
	p.fields[name] = value
}

// SetJSON sets a field whose value is the JSON encoding of v.
func (p *Payload) SetJSON(name string, v any) error {
	s, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if _, ok := p.jsonVals[name]; !ok {
		p.jsonNames = append(p.jsonNames, name)
	}
	p.jsonVals[name] = s
	return nil
}

// AddFile appends a binary part.
func (p *Payload) AddFile(part Part) {
	p.files = append(p.files, part)
}

// Field returns a plain or JSON field value.
func (p *Payload) Field(name string) (string, bool) {
	if v, ok := p.fields[name]; ok {
		return v, true
	}
	v, ok := p.jsonVals[name]
	return v, ok
}

// Files returns the binary parts in order.
func (p *Payload) Files() []Part {
	return append([]Part(nil), p.files...)
}

// FileBytes sums the sizes of all binary parts.
func (p *Payload) FileBytes() int64 {
	var n int64
	for _, f := range p.files {
		n += int64(len(f.Data))
	}
	return n
}

// Encode writes the multipart body to w and returns its content type.
// Order is stable: plain fields sorted by name, JSON fields in insertion
// order, then files in order.
func (p *Payload) Encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)

	names := make([]string, 0, len(p.fields))
	for k := range p.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := mw.WriteField(k, p.fields[k]); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, k := range p.jsonNames {
		if err := mw.WriteField(k, p.jsonVals[k]); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range p.files {
		part, err := mw.CreatePart(fileHeader(f))
		if err != nil {
			return "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return "", fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

// Body encodes the payload into a buffer.
func (p *Payload) Body() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	ct, err := p.Encode(&buf)
	if err != nil {
		return nil, "", err
	}
	return &buf, ct, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// fileHeader is multipart.CreateFormFile with the part's real content type.
func fileHeader(f Part) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.FileName)))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}
