package rfq

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/quote-engine/internal/tabular"
)

// FlattenTable turns a tabular RFQ (description, quantity and unit columns)
// into free text with one "description qty uom" line per row, so it can run
// through the same Segment/Extract path as typed RFQs.
func FlattenTable(t tabular.Table) (string, error) {
	desc := t.Index("desc", "description", "item")
	qty := t.Index("qty", "quantity")
	uom := t.Index("uom", "unit")
	if desc < 0 || qty < 0 || uom < 0 {
		return "", eris.New("rfq: table must contain description, quantity and uom columns")
	}

	lines := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		line := strings.Join(strings.Fields(strings.Join([]string{
			tabular.Cell(row, desc),
			tabular.Cell(row, qty),
			tabular.Cell(row, uom),
		}, " ")), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
