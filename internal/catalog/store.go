package catalog

import (
	"context"
	"errors"
	"io/fs"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/model"
)

// Store persists the price master and tax table. Imports replace the
// existing contents.
type Store interface {
	Migrate(ctx context.Context) error
	ImportItems(ctx context.Context, items []model.CatalogItem) (int64, error)
	ImportTaxes(ctx context.Context, rates []model.TaxRate) (int64, error)
	Items(ctx context.Context) ([]model.CatalogItem, error)
	Taxes(ctx context.Context) ([]model.TaxRate, error)
	Close() error
}

// OpenStore opens the database named by cfg.Source ("postgres" or "sqlite").
func OpenStore(ctx context.Context, cfg config.CatalogConfig) (Store, error) {
	switch cfg.Source {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("catalog: source %q has no store", cfg.Source)
	}
}

// Data is everything the quote pipeline reads.
type Data struct {
	Catalog *Catalog
	Taxes   *TaxTable
	Rates   *RateTable
}

// Load builds the catalog and tax table from files or a store, per
// cfg.Source, and the rate table from cfg.RatesPath. A missing rates file
// yields an empty rate table.
func Load(ctx context.Context, cfg config.CatalogConfig) (*Data, error) {
	var (
		items []model.CatalogItem
		taxes []model.TaxRate
		err   error
	)

	if cfg.Source == "file" {
		if items, err = LoadItemsFile(cfg.ItemsPath); err != nil {
			return nil, err
		}
		if taxes, err = LoadTaxesFile(cfg.TaxesPath); err != nil {
			return nil, err
		}
	} else {
		s, err := OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close() //nolint:errcheck
		if items, err = s.Items(ctx); err != nil {
			return nil, err
		}
		if taxes, err = s.Taxes(ctx); err != nil {
			return nil, err
		}
	}

	cat, err := New(items)
	if err != nil {
		return nil, err
	}

	rates, err := loadRates(cfg.RatesPath)
	if err != nil {
		return nil, err
	}

	zap.L().Info("catalog: loaded",
		zap.String("source", cfg.Source),
		zap.Int("items", cat.Len()),
		zap.Int("tax_codes", len(taxes)),
		zap.Strings("currencies", rates.Currencies()),
	)
	return &Data{Catalog: cat, Taxes: NewTaxTable(taxes), Rates: rates}, nil
}

func loadRates(path string) (*RateTable, error) {
	if path == "" {
		return NewRateTable(nil)
	}
	rates, err := LoadRatesFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("catalog: rates file not found, currency conversion disabled", zap.String("path", path))
		return NewRateTable(nil)
	}
	return rates, err
}
