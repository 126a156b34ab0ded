package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/model"
)

// WriteCSV writes one row per quote line, resolved or not.
func WriteCSV(w io.Writer, q model.Quote) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "render: write csv header")
	}
	for _, l := range q.Lines {
		if err := cw.Write(csvRow(l)); err != nil {
			return eris.Wrap(err, "render: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "render: flush csv")
}

func csvRow(l model.QuoteLine) []string {
	return []string{
		strconv.Itoa(l.LineNo),
		orMissing(l.SKU),
		description(l),
		qtyString(l.Quantity),
		uomString(l.UOM),
		priceString(l.UnitPrice),
		priceString(l.Amount),
		string(l.Explain.Status),
		l.Explain.Reason,
	}
}
