package render

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/quote-engine/internal/model"
)

const moneyFormat = "#,##0.00"

// WriteXLSX writes a workbook with a "Quote" sheet (all lines, then totals)
// and a "Notes" sheet.
func WriteXLSX(w io.Writer, q model.Quote) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Quote")
	if err != nil {
		return eris.Wrap(err, "render: add quote sheet")
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	addLabel(sheet, bold, "Quote ID", q.ID)
	addLabel(sheet, bold, "Buyer", q.BuyerID)
	addLabel(sheet, bold, "Currency", q.Currency)
	sheet.AddRow()

	header := sheet.AddRow()
	for _, col := range Columns {
		c := header.AddCell()
		c.SetString(col)
		c.SetStyle(bold)
	}

	for _, l := range q.Lines {
		row := sheet.AddRow()
		row.AddCell().SetInt(l.LineNo)
		row.AddCell().SetString(orMissing(l.SKU))
		row.AddCell().SetString(description(l))
		if l.Quantity != nil {
			row.AddCell().SetFloat(*l.Quantity)
		} else {
			row.AddCell().SetString(missing)
		}
		row.AddCell().SetString(uomString(l.UOM))
		addMoney(row, l.UnitPrice)
		addMoney(row, l.Amount)
		row.AddCell().SetString(string(l.Explain.Status))
		row.AddCell().SetString(l.Explain.Reason)
	}

	sheet.AddRow()
	for _, t := range totalRows(q.Totals) {
		row := sheet.AddRow()
		for range len(Columns) - 3 {
			row.AddCell()
		}
		c := row.AddCell()
		c.SetString(t.label)
		c.SetStyle(bold)
		row.AddCell().SetFloatWithFormat(t.value, moneyFormat)
	}

	notes, err := f.AddSheet("Notes")
	if err != nil {
		return eris.Wrap(err, "render: add notes sheet")
	}
	for _, n := range q.Notes {
		notes.AddRow().AddCell().SetString(n)
	}

	return eris.Wrap(f.Write(w), "render: write xlsx")
}

func addLabel(sheet *xlsx.Sheet, style *xlsx.Style, label, value string) {
	row := sheet.AddRow()
	c := row.AddCell()
	c.SetString(label)
	c.SetStyle(style)
	row.AddCell().SetString(value)
}

func addMoney(row *xlsx.Row, v *float64) {
	if v == nil {
		row.AddCell().SetString(missing)
		return
	}
	row.AddCell().SetFloatWithFormat(*v, moneyFormat)
}

type totalRow struct {
	label string
	value float64
}

// totalRows lists the totals block; the discount row appears only when a
// discount was given.
func totalRows(t model.Totals) []totalRow {
	rows := []totalRow{{"Subtotal", t.Subtotal}}
	if t.DiscountAmount > 0 {
		rows = append(rows, totalRow{fmt.Sprintf("Discount (%g%%)", t.HeaderDiscountPct), -t.DiscountAmount})
	}
	return append(rows,
		totalRow{"Freight", t.Freight},
		totalRow{"Total Tax (GST)", t.TotalTax},
		totalRow{"Grand Total", t.GrandTotal},
	)
}
