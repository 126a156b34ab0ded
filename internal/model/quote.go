package model

// MatchStatus is the outcome of matching one RFQ line to the catalog.
type MatchStatus string

const (
	StatusMatched     MatchStatus = "MATCHED"
	StatusNeedsReview MatchStatus = "NEEDS_REVIEW"
	StatusNotFound    MatchStatus = "NOT_FOUND"
	StatusApproved    MatchStatus = "APPROVED"
)

// Resolved reports whether a line with this status should be priced.
func (s MatchStatus) Resolved() bool {
	return s == StatusMatched || s == StatusApproved
}

// DefaultTaxPct applies when a line's tax code is missing from the tax table.
const DefaultTaxPct = 18.0

// ParsedLine is one item extracted from an RFQ.
type ParsedLine struct {
	RawText             string         `json:"raw_text"`
	Quantity            *float64       `json:"quantity,omitempty"`
	UOM                 *UnitOfMeasure `json:"uom,omitempty"`
	SizeMM              *float64       `json:"size_mm,omitempty"`
	MaterialKeywords    []Material     `json:"material_keywords"`
	DescriptionKeywords []string       `json:"description_keywords"`
}

// PrimaryMaterial returns the first material keyword, or "" if none.
func (p ParsedLine) PrimaryMaterial() Material {
	if len(p.MaterialKeywords) == 0 {
		return ""
	}
	return p.MaterialKeywords[0]
}

// Candidate is a ranked catalog suggestion attached to a match decision.
type Candidate struct {
	SKU         string  `json:"sku"`
	Description string  `json:"desc"`
	Score       float64 `json:"score"`
}

// Explainability records why a line was (or was not) matched.
type Explainability struct {
	InputText   string      `json:"input_text"`
	Status      MatchStatus `json:"status"`
	MatchedSKU  string      `json:"matched_sku,omitempty"`
	Score       float64     `json:"score"`
	Reason      string      `json:"reason"`
	Candidates  []Candidate `json:"candidates"`
	Assumptions []string    `json:"assumptions"`
}

// QuoteLine is one line of a quote. Amount is set only for resolved lines.
type QuoteLine struct {
	LineNo      int            `json:"line_no"`
	InputText   string         `json:"input_text"`
	Resolved    bool           `json:"resolved"`
	SKU         string         `json:"sku,omitempty"`
	Description string         `json:"description,omitempty"`
	Quantity    *float64       `json:"qty,omitempty"`
	UOM         *UnitOfMeasure `json:"uom,omitempty"`
	UnitPrice   *float64       `json:"unit_price,omitempty"`
	Amount      *float64       `json:"amount,omitempty"`
	TaxPct      float64        `json:"tax_pct"`
	TaxCode     string         `json:"hsn_code,omitempty"`
	Material    Material       `json:"material,omitempty"`
	Explain     Explainability `json:"explain"`
}

// Clone returns a deep copy so pipeline stages never share mutable state.
func (l QuoteLine) Clone() QuoteLine {
	out := l
	out.Quantity = cloneFloat(l.Quantity)
	out.UnitPrice = cloneFloat(l.UnitPrice)
	out.Amount = cloneFloat(l.Amount)
	if l.UOM != nil {
		u := *l.UOM
		out.UOM = &u
	}
	out.Explain.Candidates = cloneSlice(l.Explain.Candidates)
	out.Explain.Assumptions = cloneSlice(l.Explain.Assumptions)
	return out
}

// TaxBreakup is the tax computed for one tax code.
type TaxBreakup struct {
	TaxCode       string  `json:"hsn_code"`
	TaxableAmount float64 `json:"taxable_amount"`
	Pct           float64 `json:"gst_pct"`
	Amount        float64 `json:"gst_amount"`
}

// Totals are derived from the quote lines on every pricing run.
type Totals struct {
	Subtotal          float64      `json:"subtotal"`
	HeaderDiscountPct float64      `json:"header_discount_pct"`
	DiscountAmount    float64      `json:"discount_amount"`
	NetAfterDiscount  float64      `json:"net_after_discount"`
	Freight           float64      `json:"freight"`
	TaxableAmount     float64      `json:"taxable_amount"`
	TotalTax          float64      `json:"total_tax"`
	GrandTotal        float64      `json:"grand_total"`
	TaxBreakup        []TaxBreakup `json:"tax_breakup"`
}

// Quote is the priced result of an RFQ.
type Quote struct {
	ID                string      `json:"quote_id"`
	Revision          int         `json:"revision"`
	BuyerID           string      `json:"buyer_id,omitempty"`
	Currency          string      `json:"currency"`
	Lines             []QuoteLine `json:"lines"`
	HeaderDiscountPct float64     `json:"header_discount_pct"`
	Totals            Totals      `json:"totals"`
	Notes             []string    `json:"notes_and_assumptions"`
}

// Clone returns a deep copy of the quote.
func (q Quote) Clone() Quote {
	out := q
	out.Lines = cloneSlice(q.Lines)
	for i, l := range q.Lines {
		out.Lines[i] = l.Clone()
	}
	out.Totals.TaxBreakup = cloneSlice(q.Totals.TaxBreakup)
	out.Notes = cloneSlice(q.Notes)
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Unit returns a pointer to u.
func Unit(u UnitOfMeasure) *UnitOfMeasure { return &u }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneSlice copies s, keeping nil and empty distinct so JSON output is
// unchanged by a clone.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
