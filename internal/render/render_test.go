package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/quote-engine/internal/model"
)

func sampleQuote() model.Quote {
	return model.Quote{
		ID:       "Q-TXT-AB12",
		Revision: 1,
		BuyerID:  "BUYER-001",
		Currency: "INR",
		Lines: []model.QuoteLine{
			{
				LineNo:      1,
				InputText:   "gi saddle clamp 16 swg 25mm 10 nos",
				Resolved:    true,
				SKU:         "SC25",
				Description: "GI Saddle Clamp 25mm",
				Quantity:    model.Float(10),
				UOM:         model.Unit(model.UnitPiece),
				UnitPrice:   model.Float(4),
				Amount:      model.Float(40),
				TaxPct:      12,
				Explain:     model.Explainability{Status: model.StatusMatched, Reason: "High confidence match (score: 150.5)"},
			},
			{
				LineNo:    2,
				InputText: "20mm flex conduit 600m",
				Quantity:  model.Float(600),
				UOM:       model.Unit(model.UnitMeter),
				TaxPct:    18,
				Explain:   model.Explainability{Status: model.StatusNeedsReview, Reason: "Top score 105.5 is within 15.0 of the next best candidate (105.5)."},
			},
			{
				LineNo:    3,
				InputText: "something odd",
				Explain:   model.Explainability{Status: model.StatusNotFound, Reason: "No items matched after filtering."},
			},
		},
		HeaderDiscountPct: 5,
		Totals: model.Totals{
			Subtotal:          12000,
			HeaderDiscountPct: 5,
			DiscountAmount:    600,
			NetAfterDiscount:  11400,
			Freight:           1000,
			TaxableAmount:     11400,
			TotalTax:          2052,
			GrandTotal:        14452,
		},
		Notes: []string{"2 line(s) are not resolved and are excluded from totals."},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", FormatPDF, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleQuote()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, Columns, records[0])
	assert.Equal(t, []string{"1", "SC25", "GI Saddle Clamp 25mm", "10", "PC", "4.00", "40.00", "MATCHED", "High confidence match (score: 150.5)"}, records[1])
	assert.Equal(t, []string{"2", "N/A", "20mm flex conduit 600m", "600", "M", "N/A", "N/A", "NEEDS_REVIEW"}, records[2][:8])
	assert.Equal(t, []string{"3", "N/A", "something odd", "N/A", "N/A", "N/A", "N/A", "NOT_FOUND", "No items matched after filtering."}, records[3])
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleQuote()))

	path := filepath.Join(t.TempDir(), "quote.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	sheet := f.Sheet["Quote"]
	require.NotNil(t, sheet)
	assert.Equal(t, "Q-TXT-AB12", sheet.Rows[0].Cells[1].String())

	header := -1
	for i, row := range sheet.Rows {
		if len(row.Cells) > 0 && row.Cells[0].String() == "Line No" {
			header = i
			break
		}
	}
	require.GreaterOrEqual(t, header, 0)
	assert.Equal(t, "SC25", sheet.Rows[header+1].Cells[1].String())
	assert.Equal(t, "N/A", sheet.Rows[header+2].Cells[1].String())

	var labels []string
	for _, row := range sheet.Rows[header+1:] {
		if len(row.Cells) > 7 && row.Cells[0].String() == "" && row.Cells[6].String() != "" {
			labels = append(labels, row.Cells[6].String())
		}
	}
	assert.Equal(t, []string{"Subtotal", "Discount (5%)", "Freight", "Total Tax (GST)", "Grand Total"}, labels)

	notes := f.Sheet["Notes"]
	require.NotNil(t, notes)
	assert.Equal(t, "2 line(s) are not resolved and are excluded from totals.", notes.Rows[0].Cells[0].String())
}

func TestWritePDF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleQuote()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWrite_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleQuote()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "Q-TXT-AB12", got["quote_id"])
	assert.Contains(t, got, "notes_and_assumptions")
}

func TestTotalRows_NoDiscount(t *testing.T) {
	t.Parallel()

	rows := totalRows(model.Totals{Subtotal: 100, Freight: 1000, TotalTax: 18, GrandTotal: 1118})
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.label
	}
	assert.Equal(t, []string{"Subtotal", "Freight", "Total Tax (GST)", "Grand Total"}, labels)
}

func TestMoney(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8,300.00", money(8300))
	assert.Equal(t, "-600.00", money(-600))
}
