package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/shopimg-cli/internal/identity"
	"github.com/AnyUserName/shopimg-cli/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report_path_or_dir>",
	Short: "Validate a normalization report and check referenced files exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := reportPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errs := validateReport(m, filepath.Join(filepath.Dir(path), m.BasePath))

	if len(errs) == 0 {
		fmt.Fprintln(out, "  ✓ Report is valid")
		fmt.Fprintf(out, "  ✓ %d items, %d normalized, all files present\n", m.Stats.TotalItems, m.Stats.Normalized)
		return nil
	}

	fmt.Fprintf(out, "  ✗ Report has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(out, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateReport(m *manifest.Report, baseDir string) []string {
	var errs []string

	if m.Version != manifest.SupportedReportVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", m.Version))
	}

	t := m.Target
	if t.Width <= 0 || t.Width != t.Height {
		errs = append(errs, fmt.Sprintf("target %dx%d is not a positive square", t.Width, t.Height))
	}
	if t.MaxBytes <= 0 {
		errs = append(errs, fmt.Sprintf("target max_bytes %d must be positive", t.MaxBytes))
	}

	seenIDs := map[string]bool{}
	seenPaths := map[string]bool{}
	for i, e := range m.Items {
		if e.ID == "" {
			errs = append(errs, fmt.Sprintf("item[%d]: missing id", i))
		} else if seenIDs[e.ID] {
			errs = append(errs, fmt.Sprintf("item[%d]: duplicate id %q", i, e.ID))
		}
		seenIDs[e.ID] = true

		if e.Remote != "" {
			if u, ok := identity.DecodeURLID(e.ID); ok && u != e.Remote {
				errs = append(errs, fmt.Sprintf("item %q: id does not match url %q", e.ID, e.Remote))
			}
			continue
		}

		v := e.Output
		if v == nil {
			errs = append(errs, fmt.Sprintf("item %q: no output and no remote url", e.ID))
			continue
		}
		if v.Type != t.Type {
			errs = append(errs, fmt.Sprintf("item %q: type %s, target %s", e.ID, v.Type, t.Type))
		}
		if v.Width != t.Width || v.Height != t.Height {
			errs = append(errs, fmt.Sprintf("item %q: dimensions %dx%d, target %dx%d",
				e.ID, v.Width, v.Height, t.Width, t.Height))
		}
		if t.MaxBytes > 0 && v.Size > t.MaxBytes {
			errs = append(errs, fmt.Sprintf("item %q: %d bytes over budget %d", e.ID, v.Size, t.MaxBytes))
		}
		if v.Quality <= 0 || v.Quality > 1 {
			errs = append(errs, fmt.Sprintf("item %q: quality %.2f outside (0,1]", e.ID, v.Quality))
		}
		if v.Hash == "" {
			errs = append(errs, fmt.Sprintf("item %q: missing hash", e.ID))
		}
		if v.Path == "" {
			errs = append(errs, fmt.Sprintf("item %q: missing path", e.ID))
			continue
		}

		if seenPaths[v.Path] {
			errs = append(errs, fmt.Sprintf("item %q: duplicate path %q", e.ID, v.Path))
		}
		seenPaths[v.Path] = true

		info, err := os.Stat(filepath.Join(baseDir, v.Path))
		if err != nil {
			errs = append(errs, fmt.Sprintf("item %q: file not found: %s", e.ID, v.Path))
		} else if info.Size() != v.Size {
			errs = append(errs, fmt.Sprintf("item %q: size mismatch: report=%d, disk=%d",
				e.ID, v.Size, info.Size()))
		}
	}

	// Verify stats consistency.
	want := *m
	want.ComputeStats()
	if m.Stats.TotalItems != want.Stats.TotalItems {
		errs = append(errs, fmt.Sprintf("stats.total_items mismatch: %d != %d", m.Stats.TotalItems, want.Stats.TotalItems))
	}
	if m.Stats.Normalized != want.Stats.Normalized {
		errs = append(errs, fmt.Sprintf("stats.normalized mismatch: %d != %d", m.Stats.Normalized, want.Stats.Normalized))
	}
	if m.Stats.TotalOutputBytes != want.Stats.TotalOutputBytes {
		errs = append(errs, fmt.Sprintf("stats.total_output_bytes mismatch: %d != %d",
			m.Stats.TotalOutputBytes, want.Stats.TotalOutputBytes))
	}

	return errs
}
