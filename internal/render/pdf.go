package render

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/model"
)

// WritePDF writes an A4 quotation: header, resolved lines, totals block and
// notes. Unresolved lines are left out of the table.
func WritePDF(w io.Writer, q model.Quote) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, "Quotation", "", 1, "C", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(40, 10, tr("Quote ID: "+q.ID))
	pdf.Ln(5)
	pdf.Cell(40, 10, tr("Buyer: "+q.BuyerID))
	pdf.Ln(5)
	pdf.Cell(40, 10, "Currency: "+q.Currency)
	pdf.Ln(10)

	widths := []float64{10, 30, 75, 15, 20, 30}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range []string{"Sr", "SKU", "Description", "Qty", "Unit Price", "Amount"} {
		pdf.CellFormat(widths[i], 10, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, l := range q.Lines {
		if !l.Resolved {
			continue
		}
		pdf.CellFormat(widths[0], 10, fmt.Sprint(l.LineNo), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 10, tr(l.SKU), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 10, tr(fit(pdf, description(l), widths[2])), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 10, qtyString(l.Quantity), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 10, moneyOrMissing(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 10, moneyOrMissing(l.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(10)
	rows := totalRows(q.Totals)
	for i, t := range rows {
		h, size := 8.0, 10.0
		if i == len(rows)-1 {
			h, size = 10, 12
		}
		pdf.SetFont("Arial", "", size)
		pdf.Cell(130, h, "")
		pdf.CellFormat(30, h, t.label, "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", size)
		pdf.CellFormat(30, h, money(t.value), "1", 1, "R", false, 0, "")
	}

	if len(q.Notes) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(190, 8, "Notes and assumptions")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 9)
		for _, n := range q.Notes {
			pdf.MultiCell(190, 5, tr("- "+n), "", "L", false)
		}
	}

	return eris.Wrap(pdf.Output(w), "render: write pdf")
}

func moneyOrMissing(v *float64) string {
	if v == nil {
		return missing
	}
	return money(*v)
}

// fit truncates s with "..." so it fits a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	const pad = 2
	if pdf.GetStringWidth(s) <= w-pad {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w-pad {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
