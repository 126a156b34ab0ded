package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/config"
)

var (
	catalogImportItems string
	catalogImportTaxes string
)

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load catalog and tax files into the database",
	Long:  "Replaces the catalog_items and tax_rates tables with the contents of the items and taxes files (.csv or .xlsx).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}

		items := catalogImportItems
		if items == "" {
			items = cfg.Catalog.ItemsPath
		}
		taxes := catalogImportTaxes
		if taxes == "" {
			taxes = cfg.Catalog.TaxesPath
		}

		return importCatalog(cmd.Context(), cfg.Catalog, items, taxes)
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&catalogImportItems, "items", "", "price master file (default catalog.items_path)")
	catalogImportCmd.Flags().StringVar(&catalogImportTaxes, "taxes", "", "tax table file (default catalog.taxes_path)")
	catalogCmd.AddCommand(catalogImportCmd)
}

// importCatalog validates both files before touching the database, then
// replaces the stored items and taxes.
func importCatalog(ctx context.Context, c config.CatalogConfig, itemsPath, taxesPath string) error {
	items, err := catalog.LoadItemsFile(itemsPath)
	if err != nil {
		return err
	}
	if _, err := catalog.New(items); err != nil {
		return err
	}
	taxes, err := catalog.LoadTaxesFile(taxesPath)
	if err != nil {
		return err
	}

	s, err := catalog.OpenStore(ctx, c)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if err := s.Migrate(ctx); err != nil {
		return eris.Wrap(err, "catalog import")
	}
	nItems, err := s.ImportItems(ctx, items)
	if err != nil {
		return eris.Wrap(err, "catalog import")
	}
	nTaxes, err := s.ImportTaxes(ctx, taxes)
	if err != nil {
		return eris.Wrap(err, "catalog import")
	}

	zap.L().Info("import complete",
		zap.String("source", c.Source),
		zap.Int64("items", nItems),
		zap.Int64("tax_codes", nTaxes),
	)
	return nil
}
