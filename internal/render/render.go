// Package render writes a priced quote as CSV, XLSX or PDF.
package render

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/quote-engine/internal/model"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat resolves a format name (any case). An empty name is JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", eris.Errorf("render: unknown format %q", s)
	}
}

// ContentType is the HTTP media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Write renders q to w in format f.
func Write(w io.Writer, f Format, q model.Quote) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(q), "render: encode json")
	case FormatCSV:
		return WriteCSV(w, q)
	case FormatXLSX:
		return WriteXLSX(w, q)
	case FormatPDF:
		return WritePDF(w, q)
	default:
		return eris.Errorf("render: unknown format %q", f)
	}
}

// Columns are the line table headers shared by CSV and XLSX output.
var Columns = []string{"Line No", "SKU", "Description", "Qty", "UOM", "Unit Price", "Amount", "Status", "Reason"}

const missing = "N/A"

var printer = message.NewPrinter(language.English)

// money formats v with thousands separators and two decimals.
func money(v float64) string {
	return printer.Sprintf("%.2f", v)
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

func qtyString(q *float64) string {
	if q == nil {
		return missing
	}
	return strconv.FormatFloat(*q, 'f', -1, 64)
}

func uomString(u *model.UnitOfMeasure) string {
	if u == nil {
		return missing
	}
	return string(*u)
}

func priceString(p *float64) string {
	if p == nil {
		return missing
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

// description prefers the catalog text and falls back to the RFQ text.
func description(l model.QuoteLine) string {
	if l.Description != "" {
		return l.Description
	}
	return l.InputText
}
