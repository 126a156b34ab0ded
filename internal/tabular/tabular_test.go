package tabular

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	input := "\ufeffSKU , Description,Qty\n\nA1, Pipe 20mm ,3\n,,\nB2,\"Box, GI\",5,extra\n"
	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU", "Description", "Qty"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"A1", "Pipe 20mm", "3"}, table.Rows[0])
	assert.Equal(t, "Box, GI", table.Rows[1][1])
	assert.Len(t, table.Rows[1], 4)
}

func TestReadCSV_Empty(t *testing.T) {
	t.Parallel()

	table, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, table.Header)
	assert.Empty(t, table.Rows)
}

func TestTableIndex(t *testing.T) {
	t.Parallel()

	table := Table{Header: []string{"Item", "QUANTITY", "unit"}}
	assert.Equal(t, 0, table.Index("desc", "description", "item"))
	assert.Equal(t, 1, table.Index("qty", "quantity"))
	assert.Equal(t, 2, table.Index("uom", "unit"))
	assert.Equal(t, -1, table.Index("price"))
}

func TestCell(t *testing.T) {
	t.Parallel()

	row := []string{"a", "b"}
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 2))
	assert.Equal(t, "", Cell(row, -1))
}

func TestReadFile_XLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, r := range [][]string{{"sku_code", "description"}, {"GFB3", "GI Fan Box 3in"}} {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sku_code", "description"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "GFB3", table.Rows[0][0])
}

func TestReadFile_CSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "taxes.csv")
	require.NoError(t, os.WriteFile(path, []byte("hsn_code,gst_pct\n3917,18\n"), 0o644))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"3917", "18"}}, table.Rows)
}

func TestReadFile_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := ReadFile("catalog.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestReadXLSX_SheetNotFound(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := xlsx.NewFile()
	_, err := f.AddSheet("Only")
	require.NoError(t, err)
	require.NoError(t, f.Save(path))

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}
