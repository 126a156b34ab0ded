package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/quote-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS catalog_items (
	position       INTEGER NOT NULL,
	sku_code       TEXT PRIMARY KEY,
	product_family TEXT NOT NULL,
	description    TEXT NOT NULL,
	hsn_code       TEXT NOT NULL,
	uom            TEXT NOT NULL,
	coil_length_m  REAL,
	material       TEXT NOT NULL DEFAULT '',
	gauge          TEXT,
	size_od_mm     REAL,
	aux_size       TEXT,
	colour         TEXT,
	moq            INTEGER,
	lead_time_days INTEGER,
	rate_inr       REAL,
	rate_alt_inr   REAL,
	alt_material   TEXT
);

CREATE TABLE IF NOT EXISTS tax_rates (
	hsn_code TEXT PRIMARY KEY,
	gst_pct  REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_items_family ON catalog_items(product_family);
`

// Migrate creates the catalog tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ImportItems replaces the price master.
func (s *SQLiteStore) ImportItems(ctx context.Context, items []model.CatalogItem) (int64, error) {
	columns := append([]string{"position"}, ItemColumns...)
	rows := make([][]any, len(items))
	for i, item := range items {
		rows[i] = append([]any{i}, itemValues(item)...)
	}
	return s.replace(ctx, "catalog_items", columns, rows)
}

// ImportTaxes replaces the tax table.
func (s *SQLiteStore) ImportTaxes(ctx context.Context, rates []model.TaxRate) (int64, error) {
	rows := make([][]any, len(rates))
	for i, r := range rates {
		rows[i] = []any{r.Code, r.Pct}
	}
	return s.replace(ctx, "tax_rates", []string{"hsn_code", "gst_pct"}, rows)
}

func (s *SQLiteStore) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: begin import %s", table)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear %s", table)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" ("+strings.Join(columns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", table)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s row %d", table, i+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: commit import %s", table)
	}
	return int64(len(rows)), nil
}

// Items returns the price master in import order.
func (s *SQLiteStore) Items(ctx context.Context) ([]model.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sku_code, product_family, description, hsn_code, uom,
		coil_length_m, material, gauge, size_od_mm, aux_size, colour, moq, lead_time_days,
		rate_inr, rate_alt_inr, alt_material
		FROM catalog_items ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query items")
	}
	defer rows.Close()

	var items []model.CatalogItem
	for rows.Next() {
		var item model.CatalogItem
		var uom, material string
		var gauge, auxSize, colour, altMaterial sql.NullString
		var coil, size, rate, altRate sql.NullFloat64
		var moq, lead sql.NullInt64
		if err := rows.Scan(
			&item.SKU, &item.Family, &item.Description, &item.TaxCode, &uom,
			&coil, &material, &gauge, &size, &auxSize, &colour,
			&moq, &lead, &rate, &altRate, &altMaterial,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan item")
		}
		item.UOM = model.UnitOfMeasure(uom)
		item.Material = model.Material(material)
		item.AltMaterial = model.Material(altMaterial.String)
		item.Gauge = gauge.String
		item.AuxSize = auxSize.String
		item.Colour = colour.String
		item.CoilLengthM = nullFloat(coil)
		item.SizeMM = nullFloat(size)
		item.BaseRate = nullFloat(rate)
		item.AltRate = nullFloat(altRate)
		item.MOQ = nullInt(moq)
		item.LeadTimeDays = nullInt(lead)
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: iterate items")
}

// Taxes returns the tax table.
func (s *SQLiteStore) Taxes(ctx context.Context) ([]model.TaxRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hsn_code, gst_pct FROM tax_rates ORDER BY hsn_code`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query taxes")
	}
	defer rows.Close()

	var rates []model.TaxRate
	for rows.Next() {
		var r model.TaxRate
		if err := rows.Scan(&r.Code, &r.Pct); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tax rate")
		}
		rates = append(rates, r)
	}
	return rates, eris.Wrap(rows.Err(), "sqlite: iterate taxes")
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
