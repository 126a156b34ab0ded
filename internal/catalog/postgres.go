package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/model"
)

// Pool is the part of pgxpool.Pool the store needs.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a small connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS catalog_items (
	position       INTEGER NOT NULL,
	sku_code       TEXT PRIMARY KEY,
	product_family TEXT NOT NULL,
	description    TEXT NOT NULL,
	hsn_code       TEXT NOT NULL,
	uom            TEXT NOT NULL,
	coil_length_m  DOUBLE PRECISION,
	material       TEXT NOT NULL DEFAULT '',
	gauge          TEXT,
	size_od_mm     DOUBLE PRECISION,
	aux_size       TEXT,
	colour         TEXT,
	moq            INTEGER,
	lead_time_days INTEGER,
	rate_inr       DOUBLE PRECISION,
	rate_alt_inr   DOUBLE PRECISION,
	alt_material   TEXT
);

CREATE TABLE IF NOT EXISTS tax_rates (
	hsn_code TEXT PRIMARY KEY,
	gst_pct  DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_items_family ON catalog_items(product_family);
CREATE INDEX IF NOT EXISTS idx_catalog_items_size ON catalog_items(size_od_mm);
`

// Migrate creates the catalog tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// ImportItems replaces the price master using COPY.
func (s *PostgresStore) ImportItems(ctx context.Context, items []model.CatalogItem) (int64, error) {
	rows := make([][]any, len(items))
	for i, item := range items {
		rows[i] = append([]any{i}, itemValues(item)...)
	}
	return s.replace(ctx, "catalog_items", append([]string{"position"}, ItemColumns...), rows)
}

// ImportTaxes replaces the tax table using COPY.
func (s *PostgresStore) ImportTaxes(ctx context.Context, rates []model.TaxRate) (int64, error) {
	rows := make([][]any, len(rates))
	for i, r := range rates {
		rows[i] = []any{r.Code, r.Pct}
	}
	return s.replace(ctx, "tax_rates", []string{"hsn_code", "gst_pct"}, rows)
}

func (s *PostgresStore) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: begin import %s", table)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear %s", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: COPY INTO %s", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: commit import %s", table)
	}
	return n, nil
}

// Items returns the price master in import order.
func (s *PostgresStore) Items(ctx context.Context) ([]model.CatalogItem, error) {
	rows, err := s.pool.Query(ctx, `SELECT sku_code, product_family, description, hsn_code, uom,
		coil_length_m, material, gauge, size_od_mm, aux_size, colour, moq, lead_time_days,
		rate_inr, rate_alt_inr, alt_material
		FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query items")
	}
	defer rows.Close()

	var items []model.CatalogItem
	for rows.Next() {
		var item model.CatalogItem
		var uom, material string
		var gauge, auxSize, colour, altMaterial *string
		if err := rows.Scan(
			&item.SKU, &item.Family, &item.Description, &item.TaxCode, &uom,
			&item.CoilLengthM, &material, &gauge, &item.SizeMM, &auxSize, &colour,
			&item.MOQ, &item.LeadTimeDays, &item.BaseRate, &item.AltRate, &altMaterial,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan item")
		}
		item.UOM = model.UnitOfMeasure(uom)
		item.Material = model.Material(material)
		item.Gauge = deref(gauge)
		item.AuxSize = deref(auxSize)
		item.Colour = deref(colour)
		item.AltMaterial = model.Material(deref(altMaterial))
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: iterate items")
}

// Taxes returns the tax table.
func (s *PostgresStore) Taxes(ctx context.Context) ([]model.TaxRate, error) {
	rows, err := s.pool.Query(ctx, `SELECT hsn_code, gst_pct FROM tax_rates ORDER BY hsn_code`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query taxes")
	}
	defer rows.Close()

	var rates []model.TaxRate
	for rows.Next() {
		var r model.TaxRate
		if err := rows.Scan(&r.Code, &r.Pct); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tax rate")
		}
		rates = append(rates, r)
	}
	return rates, eris.Wrap(rows.Err(), "postgres: iterate taxes")
}

// itemValues returns the ItemColumns values of item; blank optional strings
// become NULL.
func itemValues(item model.CatalogItem) []any {
	return []any{
		item.SKU, item.Family, item.Description, item.TaxCode, string(item.UOM),
		item.CoilLengthM, string(item.Material), nullString(item.Gauge), item.SizeMM,
		nullString(item.AuxSize), nullString(item.Colour), item.MOQ, item.LeadTimeDays,
		item.BaseRate, item.AltRate, nullString(string(item.AltMaterial)),
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
