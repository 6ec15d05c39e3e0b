package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/shopimg-cli/internal/manifest"
	"github.com/AnyUserName/shopimg-cli/internal/pipeline"
)

var (
	normalizeOutDir string
	normalizeRule   string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file_dir_or_url>...",
	Short: "Crop, resize and compress images under a conversion rule",
	Long: `Normalizes every input as one batch: each image is center-cropped to a
square, resized to the rule's target and encoded at the highest quality
that fits the rule's byte budget.

http(s) URLs are kept as retained entries of the report. If any input is
rejected, nothing is written.

Output filenames are content-addressed: <name>.<hash8>.<ext>, with the list
position added when two items would share a name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeOutDir, "out", "o", "./shopimg_out", "output directory")
	normalizeCmd.Flags().StringVarP(&normalizeRule, "rule", "r", "variant", "conversion rule")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	start := time.Now()

	absOutput, err := filepath.Abs(normalizeOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	r, err := appCfg.Rule(normalizeRule)
	if err != nil {
		return err
	}

	logger.Debug().
		Strs("inputs", args).
		Str("output", absOutput).
		Str("rule", r.Name).
		Int("side", r.Width).
		Int64("max_bytes", r.MaxBytes).
		Msg("normalize")

	p := pipeline.New(pipeline.Config{
		Inputs:     args,
		OutputDir:  absOutput,
		Rule:       r,
		Identifier: identifier(),
		Log:        logger,
	})

	report, err := p.Run()
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	if err := manifest.WriteJSON(report, filepath.Join(absOutput, manifest.FileName)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	printNormalizeReport(cmd.OutOrStdout(), report, time.Since(start))
	return nil
}

func printNormalizeReport(w io.Writer, m *manifest.Report, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║            shopimg normalize complete            ║")
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	stats := m.Stats
	ratio := float64(0)
	if stats.TotalInputBytes > 0 {
		ratio = float64(stats.TotalOutputBytes) / float64(stats.TotalInputBytes) * 100
	}

	fmt.Fprintf(w, "  Rule:        %s (%dx%d %s, ≤ %s)\n",
		m.Rule, m.Target.Width, m.Target.Height, m.Target.Type, formatBytes(m.Target.MaxBytes))
	fmt.Fprintf(w, "  Images:      %d\n", stats.Normalized)
	fmt.Fprintf(w, "  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Fprintf(w, "  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Fprintf(w, "  Ratio:       %.1f%% of original\n", ratio)
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(w)

	// Top 10 heaviest outputs.
	outputs := make([]manifest.Entry, 0, len(m.Items))
	for _, e := range m.Items {
		if e.Output != nil {
			outputs = append(outputs, e)
		}
	}
	if len(outputs) > 0 {
		sort.SliceStable(outputs, func(i, j int) bool {
			return outputs[i].Output.Size > outputs[j].Output.Size
		})
		n := len(outputs)
		if n > 10 {
			n = 10
		}
		fmt.Fprintf(w, "  Top %d heaviest (original → normalized, quality):\n", n)
		for _, e := range outputs[:n] {
			var in int64
			name := e.ID
			if e.Original != nil {
				in = e.Original.Size
				name = e.Original.Name
			}
			fmt.Fprintf(w, "    %-40s %8s → %8s  q=%.2f (%d tries)\n",
				truncKey(name, 40),
				formatBytes(in),
				formatBytes(e.Output.Size),
				e.Output.Quality,
				e.Output.Attempts,
			)
		}
		fmt.Fprintln(w)
	}

	data, _ := json.Marshal(m)
	fmt.Fprintf(w, "  Report:      %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Fprintln(w)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}

// reportPath accepts a report file or the directory holding one.
func reportPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return filepath.Join(path, manifest.FileName), nil
	}
	return path, nil
}
