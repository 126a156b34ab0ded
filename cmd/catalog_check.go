package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/match"
)

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the catalog and report what quoting will see",
	Long:  "Loads the catalog from the configured source and prints item, family, tax and currency counts, plus families that look size-agnostic but are not allowlisted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("quote"); err != nil {
			return err
		}

		data, err := catalog.Load(ctx, cfg.Catalog)
		if err != nil {
			return eris.Wrap(err, "catalog check")
		}

		formatCatalogReport(cmd.OutOrStdout(), data)
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogCheckCmd)
}

// formatCatalogReport writes a summary of data to out.
func formatCatalogReport(out io.Writer, data *catalog.Data) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ITEMS\t%d\n", data.Catalog.Len())
	_, _ = fmt.Fprintf(w, "SIZED ITEMS\t%d\n", len(data.Catalog.Sized()))
	_, _ = fmt.Fprintf(w, "FAMILIES\t%d\n", len(data.Catalog.Families()))
	_, _ = fmt.Fprintf(w, "TAX CODES\t%d\n", data.Taxes.Len())
	_, _ = fmt.Fprintf(w, "CURRENCIES\t%s\n", orNone(data.Rates.Currencies()))
	_ = w.Flush()

	if unlisted := match.UnlistedTriggerFamilies(data.Catalog); len(unlisted) > 0 {
		_, _ = fmt.Fprintln(out, "\nWARNING: families match a size-agnostic trigger but are not allowlisted:")
		for _, f := range unlisted {
			_, _ = fmt.Fprintf(out, "  - %s\n", f)
		}
	}
}

func orNone(ss []string) string {
	if len(ss) == 0 {
		return "none"
	}
	return strings.Join(ss, ", ")
}
