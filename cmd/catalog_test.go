//go:build !integration

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quote-engine/internal/catalog"
)

func TestImportCatalog_SQLite(t *testing.T) {
	c := testConfig(t)
	c.Catalog.Source = "sqlite"
	c.Catalog.DatabaseURL = filepath.Join(t.TempDir(), "catalog.db")

	require.NoError(t, importCatalog(context.Background(), c.Catalog, c.Catalog.ItemsPath, c.Catalog.TaxesPath))

	data, err := catalog.Load(context.Background(), c.Catalog)
	require.NoError(t, err)
	assert.Equal(t, 4, data.Catalog.Len())
	rate, ok := data.Taxes.Rate("7326")
	require.True(t, ok)
	assert.Equal(t, 12.0, rate)

	// A second import replaces rather than appends.
	require.NoError(t, importCatalog(context.Background(), c.Catalog, c.Catalog.ItemsPath, c.Catalog.TaxesPath))
	data, err = catalog.Load(context.Background(), c.Catalog)
	require.NoError(t, err)
	assert.Equal(t, 4, data.Catalog.Len())
}

func TestImportCatalog_BadItemsFile(t *testing.T) {
	c := testConfig(t)
	c.Catalog.Source = "sqlite"
	c.Catalog.DatabaseURL = filepath.Join(t.TempDir(), "catalog.db")
	bad := writeTemp(t, "items.csv", "sku_code,description\nX,Y\n")

	err := importCatalog(context.Background(), c.Catalog, bad, c.Catalog.TaxesPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.NoFileExists(t, c.Catalog.DatabaseURL)
}

func TestImportCatalog_DuplicateSKU(t *testing.T) {
	c := testConfig(t)
	c.Catalog.Source = "sqlite"
	c.Catalog.DatabaseURL = filepath.Join(t.TempDir(), "catalog.db")
	dup := writeTemp(t, "items.csv", testItemsCSV+"SC25,Saddle Clamp,GI Saddle Clamp 25mm,7326,PC,,GI,,25,,,,,4,,\n")

	err := importCatalog(context.Background(), c.Catalog, dup, c.Catalog.TaxesPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate sku")
}

func TestCatalogImportCmd_RequiresDatabaseSource(t *testing.T) {
	cfg = testConfig(t)

	err := catalogImportCmd.RunE(catalogImportCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.source must be postgres or sqlite for import")
}

func TestFormatCatalogReport(t *testing.T) {
	data, err := catalog.Load(context.Background(), testConfig(t).Catalog)
	require.NoError(t, err)

	var buf bytes.Buffer
	formatCatalogReport(&buf, data)

	out := buf.String()
	assert.Contains(t, out, "ITEMS")
	assert.Contains(t, out, "TAX CODES")
	assert.Contains(t, out, "USD")
	assert.NotContains(t, out, "WARNING")
}

func TestFormatCatalogReport_UnlistedFamily(t *testing.T) {
	c := testConfig(t)
	c.Catalog.ItemsPath = writeTemp(t, "items.csv", testItemsCSV+"PB1,Pull Box,Pull Box Small,7326,PC,,GI,,,,,,,40,,\n")
	data, err := catalog.Load(context.Background(), c.Catalog)
	require.NoError(t, err)

	var buf bytes.Buffer
	formatCatalogReport(&buf, data)
	assert.Contains(t, buf.String(), "WARNING")
	assert.Contains(t, buf.String(), "- Pull Box")
}

func TestCatalogCheckCmd(t *testing.T) {
	cfg = testConfig(t)
	var buf bytes.Buffer
	catalogCheckCmd.SetOut(&buf)
	catalogCheckCmd.SetContext(context.Background())
	defer func() {
		catalogCheckCmd.SetOut(nil)
		catalogCheckCmd.SetContext(context.TODO())
	}()

	require.NoError(t, catalogCheckCmd.RunE(catalogCheckCmd, nil))
	assert.Contains(t, buf.String(), "ITEMS")
}
