package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/shopimg-cli/internal/catalogapi"
	"github.com/AnyUserName/shopimg-cli/internal/encoder"
	"github.com/AnyUserName/shopimg-cli/internal/pipeline"
	"github.com/AnyUserName/shopimg-cli/internal/product"
	"github.com/AnyUserName/shopimg-cli/internal/upload"
	"github.com/AnyUserName/shopimg-cli/internal/variantlist"
)

var (
	submitDryRun bool
	submitUpdate string
	submitRule   string
)

var submitCmd = &cobra.Command{
	Use:   "submit <product.yaml>",
	Short: "Normalize a product's images and send the form to the catalog API",
	Long: `Reads a product or category description, normalizes every local image
under its rule, keeps already hosted URLs, and posts the multipart form.

With --update the existing product or category is replaced instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "assemble the form but do not send it")
	submitCmd.Flags().StringVar(&submitUpdate, "update", "", "id of the product or category to update")
	submitCmd.Flags().StringVarP(&submitRule, "rule", "r", "", "conversion rule (default: from file or kind)")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	p, err := product.Load(args[0])
	if err != nil {
		return err
	}

	ruleName := p.RuleName()
	if submitRule != "" {
		ruleName = submitRule
	}
	r, err := appCfg.Rule(ruleName)
	if err != nil {
		return err
	}

	registry := encoder.NewRegistry()
	if registry.ForType(r.Type) == nil {
		return fmt.Errorf("no encoder for %s (%s)", r.Type, registry)
	}

	logger.Info().Str("kind", p.Kind).Str("name", p.Name).Str("rule", r.Name).Msg("assembling form")
	payload, err := p.Assemble(r, pipeline.NewConverter(registry, logger),
		variantlist.WithLogger(logger),
		variantlist.WithIdentifier(identifier()),
	)
	if err != nil {
		return fmt.Errorf("assemble %s: %w", p.Name, err)
	}

	out := cmd.OutOrStdout()
	printPayload(out, payload)
	if submitDryRun {
		fmt.Fprintln(out, "  (dry run, nothing sent)")
		return nil
	}

	client, err := catalogapi.New(catalogapi.Options{
		BaseURL: appCfg.API.BaseURL,
		Token:   appCfg.API.Token,
		Timeout: appCfg.API.Timeout,
		Log:     logger,
	})
	if err != nil {
		return err
	}

	resp, err := send(cmd.Context(), client, p.Kind, submitUpdate, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  ✓ %s %q saved (status %d", p.Kind, p.Name, resp.StatusCode)
	if resp.ID != "" {
		fmt.Fprintf(out, ", id %s", resp.ID)
	}
	fmt.Fprintln(out, ")")
	return nil
}

func send(ctx context.Context, c *catalogapi.Client, kind, id string, p *upload.Payload) (*catalogapi.Response, error) {
	switch {
	case kind == product.KindCategory && id != "":
		return c.UpdateCategory(ctx, id, p)
	case kind == product.KindCategory:
		return c.CreateCategory(ctx, p)
	case id != "":
		return c.UpdateProduct(ctx, id, p)
	default:
		return c.CreateProduct(ctx, p)
	}
}

func printPayload(w io.Writer, p *upload.Payload) {
	fmt.Fprintln(w)
	files := p.Files()
	byField := map[string]int{}
	for _, f := range files {
		byField[f.Field]++
	}
	fields := make([]string, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Fprintf(w, "  Files:       %d (%s)\n", len(files), formatBytes(p.FileBytes()))
	for _, f := range fields {
		fmt.Fprintf(w, "    %-20s %d\n", f, byField[f])
	}
	for _, name := range []string{upload.FieldColors, upload.FieldExistingImages} {
		if v, ok := p.Field(name); ok {
			fmt.Fprintf(w, "  %-12s %s\n", name+":", v)
		}
	}
	fmt.Fprintln(w)
}
