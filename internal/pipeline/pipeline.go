// Package pipeline wires the loader, cropper and budget encoder into a
// converter, and runs whole normalize jobs for the CLI.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/shopimg-cli/internal/encoder"
	"github.com/AnyUserName/shopimg-cli/internal/hasher"
	"github.com/AnyUserName/shopimg-cli/internal/identity"
	"github.com/AnyUserName/shopimg-cli/internal/manifest"
	"github.com/AnyUserName/shopimg-cli/internal/media"
	"github.com/AnyUserName/shopimg-cli/internal/rule"
	"github.com/AnyUserName/shopimg-cli/internal/variantlist"
)

// Config holds all parameters for a normalize run.
type Config struct {
	Inputs     []string // files, directories or http(s) URLs to retain
	OutputDir  string
	Rule       rule.Rule
	Identifier identity.Identifier
	Log        zerolog.Logger
}

// Pipeline orchestrates a normalize run.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
	conv     *Converter
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	registry := encoder.NewRegistry()
	return &Pipeline{
		cfg:      cfg,
		registry: registry,
		conv:     NewConverter(registry, cfg.Log),
	}
}

// Converter exposes the pipeline's converter for building image lists.
func (p *Pipeline) Converter() *Converter {
	return p.conv
}

// Run normalizes every input as one batch, writes the outputs and returns
// the report. Inputs that are http(s) URLs are kept as retained entries.
// A single bad input fails the whole run and writes nothing.
func (p *Pipeline) Run() (*manifest.Report, error) {
	log := p.cfg.Log
	r := p.cfg.Rule
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if p.registry.ForType(r.Type) == nil {
		return nil, fmt.Errorf("no encoder for %s (%s)", r.Type, p.registry)
	}
	log.Debug().Str("registry", p.registry.String()).Msg("encoders probed")

	inputs, sources, err := p.collect()
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no images found in %s", strings.Join(p.cfg.Inputs, ", "))
	}
	log.Info().Int("inputs", len(inputs)).Str("rule", r.Name).Msg("normalizing")

	list := variantlist.New(r, p.conv,
		variantlist.WithLogger(log),
		variantlist.WithIdentifier(p.cfg.Identifier),
	)
	if err := list.Add(inputs); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	report := manifest.New(r.Name, manifest.Target{
		Type:     r.Type,
		Width:    r.Width,
		Height:   r.Height,
		MaxBytes: r.MaxBytes,
	})

	// The list started empty, so item i came from inputs[i].
	used := make(map[string]bool)
	for i, it := range list.Items() {
		if u, ok := it.Remote(); ok {
			report.Items = append(report.Items, manifest.Entry{ID: it.ID, Remote: string(u)})
			log.Info().Str("id", it.ID).Str("url", string(u)).Msg("retained")
			continue
		}
		img, ok := it.Image()
		if !ok {
			continue
		}
		out, err := p.write(img, i, used)
		if err != nil {
			return nil, err
		}
		src := sources[i]
		report.Items = append(report.Items, manifest.Entry{
			ID: it.ID,
			Original: &manifest.OriginalInfo{
				Name:         src.Name,
				Type:         src.Type,
				Size:         src.Size,
				LastModified: src.LastModified,
			},
			Output: out,
		})
		log.Info().
			Str("id", it.ID).
			Str("path", out.Path).
			Int64("bytes", out.Size).
			Float64("quality", out.Quality).
			Msg("written")
	}

	report.ComputeStats()
	return report, nil
}

// collect turns the configured inputs into raw inputs in argument order.
// sources[i] is the local file behind inputs[i], or nil for a URL.
func (p *Pipeline) collect() ([]media.RawInput, []*media.LocalFile, error) {
	var (
		inputs  []media.RawInput
		sources []*media.LocalFile
	)
	for _, in := range p.cfg.Inputs {
		if isURL(in) {
			inputs = append(inputs, media.RemoteURL(in))
			sources = append(sources, nil)
			continue
		}
		files, err := ScanInputs([]string{in})
		if err != nil {
			return nil, nil, fmt.Errorf("scan: %w", err)
		}
		for _, f := range files {
			inputs = append(inputs, f)
			sources = append(sources, f)
		}
	}
	return inputs, sources, nil
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// write stores img under a content-addressed name, <base>.<hash8>.<ext>.
// When that name is already taken in this run, the list position is added:
// <base>-<pos>.<hash8>.<ext>.
func (p *Pipeline) write(img *media.NormalizedImage, pos int, used map[string]bool) (*manifest.Output, error) {
	contentHash := hasher.ContentHash(img.Data, 16)
	base := strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
	ext := media.Extension(img.Type)

	fileName := fmt.Sprintf("%s.%s.%s", base, contentHash[:8], ext)
	for n := 0; used[fileName]; n++ {
		suffix := strconv.Itoa(pos)
		if n > 0 {
			suffix += "_" + strconv.Itoa(n)
		}
		fileName = fmt.Sprintf("%s-%s.%s.%s", base, suffix, contentHash[:8], ext)
	}
	used[fileName] = true

	if err := os.WriteFile(filepath.Join(p.cfg.OutputDir, fileName), img.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", fileName, err)
	}
	return &manifest.Output{
		Type:     img.Type,
		Width:    img.Width,
		Height:   img.Height,
		Size:     img.Size(),
		Hash:     contentHash,
		Path:     fileName,
		Quality:  img.Quality,
		Attempts: img.Attempts,
	}, nil
}
