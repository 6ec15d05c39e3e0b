package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/shopimg-cli/internal/manifest"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_report>",
	Short: "Display statistics for a normalized image directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	path, err := reportPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}

	printStats(cmd.OutOrStdout(), m)
	return nil
}

func printStats(w io.Writer, m *manifest.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Report version:   %d\n", m.Version)
	fmt.Fprintf(w, "  Generated:        %s\n", m.GeneratedAt)
	fmt.Fprintf(w, "  Rule:             %s\n", m.Rule)
	fmt.Fprintf(w, "  Target:           %dx%d %s, budget %s\n",
		m.Target.Width, m.Target.Height, m.Target.Type, formatBytes(m.Target.MaxBytes))
	fmt.Fprintln(w)

	s := m.Stats
	fmt.Fprintf(w, "  Total items:      %d\n", s.TotalItems)
	fmt.Fprintf(w, "  Normalized:       %d\n", s.Normalized)
	if s.Retained > 0 {
		fmt.Fprintf(w, "  Retained URLs:    %d\n", s.Retained)
	}
	fmt.Fprintf(w, "  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Fprintf(w, "  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalInputBytes > 0 {
		ratio := float64(s.TotalOutputBytes) / float64(s.TotalInputBytes) * 100
		fmt.Fprintf(w, "  Compression:      %.1f%% of original\n", ratio)
	}
	fmt.Fprintln(w)

	// Quality breakdown.
	qualities := map[string]int{}
	attempts := 0
	var budgetUse []float64
	for _, e := range m.Items {
		if e.Output == nil {
			continue
		}
		qualities[fmt.Sprintf("%.2f", e.Output.Quality)]++
		attempts += e.Output.Attempts
		if m.Target.MaxBytes > 0 {
			budgetUse = append(budgetUse, float64(e.Output.Size)/float64(m.Target.MaxBytes)*100)
		}
	}
	var keys []string
	for q := range qualities {
		keys = append(keys, q)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	fmt.Fprintln(w, "  Quality breakdown:")
	for _, q := range keys {
		fmt.Fprintf(w, "    q=%s  %4d images\n", q, qualities[q])
	}
	if s.Normalized > 0 {
		fmt.Fprintf(w, "  Encodings tried:  %d (%.1f per image)\n", attempts, float64(attempts)/float64(s.Normalized))
	}
	if len(budgetUse) > 0 {
		sort.Float64s(budgetUse)
		fmt.Fprintf(w, "  Budget use:       min %.0f%%  max %.0f%%\n", budgetUse[0], budgetUse[len(budgetUse)-1])
	}

	// Warnings.
	var warnings []string
	for _, e := range m.Items {
		if e.Output == nil && e.Remote == "" {
			warnings = append(warnings, fmt.Sprintf("item %q has no output", e.ID))
		}
		if e.Output != nil && e.Output.Attempts > 1 && e.Output.Size > m.Target.MaxBytes*9/10 {
			warnings = append(warnings, fmt.Sprintf("item %q is within 10%% of the budget", e.ID))
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Warnings (%d):\n", len(warnings))
		for _, msg := range warnings {
			fmt.Fprintf(w, "    ⚠ %s\n", msg)
		}
	}
	fmt.Fprintln(w)
}
