package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/quote-engine/internal/model"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st, dbPath
}

func TestSQLite_ItemsRoundTrip(t *testing.T) {
	st, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	items := sampleItems()
	items[2].AltMaterial = model.MaterialFRPP
	items[2].AltRate = model.Float(38)
	items[1].MOQ = intPtr(50)
	items[1].Gauge = "16 SWG"

	n, err := st.ImportItems(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := st.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestSQLite_ImportReplaces(t *testing.T) {
	st, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ImportItems(ctx, sampleItems())
	require.NoError(t, err)
	_, err = st.ImportItems(ctx, sampleItems()[:1])
	require.NoError(t, err)

	got, err := st.Items(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "PFC20L", got[0].SKU)
}

func TestSQLite_DuplicateSKURollsBack(t *testing.T) {
	st, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.ImportItems(ctx, sampleItems())
	require.NoError(t, err)

	dup := append(sampleItems(), sampleItems()[0])
	_, err = st.ImportItems(ctx, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert catalog_items row 4")

	got, err := st.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLite_Taxes(t *testing.T) {
	st, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.ImportTaxes(ctx, []model.TaxRate{{Code: "7326", Pct: 12}, {Code: "3917", Pct: 18}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rates, err := st.Taxes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.TaxRate{{Code: "3917", Pct: 18}, {Code: "7326", Pct: 12}}, rates)
}

func TestSQLite_EmptyTables(t *testing.T) {
	st, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	items, err := st.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	rates, err := st.Taxes(ctx)
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func intPtr(v int) *int { return &v }
