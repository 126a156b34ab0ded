// Package tabular reads header-led CSV and XLSX sheets into memory.
package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is a header row plus data rows. Cells are whitespace-trimmed.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the column index of the first header matching any alias
// (case-insensitive), or -1.
func (t Table) Index(aliases ...string) int {
	for _, alias := range aliases {
		for i, h := range t.Header {
			if strings.EqualFold(h, alias) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[idx], or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// XLSXOptions selects the sheet to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadFile reads a .csv or .xlsx file based on its extension.
func ReadFile(path string) (Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return Table{}, eris.Wrapf(err, "tabular: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	default:
		return Table{}, eris.Errorf("tabular: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV reads a CSV document whose first non-empty row is the header.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, eris.Wrap(err, "tabular: read csv row")
		}
		rows = append(rows, record)
	}
	return build(rows), nil
}

// ReadXLSX reads one sheet of an XLSX workbook whose first row is the header.
func ReadXLSX(path string, opts XLSXOptions) (Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return Table{}, eris.Wrap(err, "tabular: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return Table{}, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return build(rows), nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("tabular: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("tabular: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func build(raw [][]string) Table {
	var t Table
	for _, record := range raw {
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if blank(record) {
			continue
		}
		if t.Header == nil {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
			t.Header = record
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t
}

func blank(record []string) bool {
	for _, c := range record {
		if c != "" {
			return false
		}
	}
	return true
}
