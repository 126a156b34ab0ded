package match

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/config"
	"github.com/sells-group/quote-engine/internal/model"
)

const maxCandidates = 3

// Matcher resolves parsed lines against a catalog. It holds no mutable state
// and is safe for concurrent use.
type Matcher struct {
	catalog *catalog.Catalog
	cfg     config.MatchConfig
}

// NewMatcher validates cfg and binds it to cat. Catalog families that look
// size-agnostic but are not in SizeAgnosticFamilies are logged, since lines
// naming them will never reach those items.
func NewMatcher(cat *catalog.Catalog, cfg config.MatchConfig) (*Matcher, error) {
	if cat == nil {
		return nil, eris.New("match: catalog is required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	for _, fam := range UnlistedTriggerFamilies(cat) {
		zap.L().Warn("match: family matches a size-agnostic trigger but is not allowlisted",
			zap.String("family", fam),
		)
	}
	return &Matcher{catalog: cat, cfg: cfg}, nil
}

// Catalog returns the catalog the matcher reads.
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.catalog
}

// MatchAll matches every line, numbering them from 1.
func (m *Matcher) MatchAll(lines []model.ParsedLine) []model.QuoteLine {
	out := make([]model.QuoteLine, len(lines))
	for i, line := range lines {
		out[i] = m.Match(line, i+1)
	}
	return out
}

// Match builds the quote line for one parsed line. The line is resolved only
// when the decision is MATCHED.
func (m *Matcher) Match(line model.ParsedLine, lineNo int) model.QuoteLine {
	ql := model.QuoteLine{
		LineNo:    lineNo,
		InputText: line.RawText,
		TaxPct:    model.DefaultTaxPct,
		Material:  line.PrimaryMaterial(),
	}
	if line.Quantity != nil {
		ql.Quantity = model.Float(*line.Quantity)
	}
	if line.UOM != nil {
		ql.UOM = model.Unit(*line.UOM)
	}

	ql.Explain = m.decide(line)
	if ql.Explain.Status == model.StatusMatched {
		if item, ok := m.catalog.BySKU(ql.Explain.MatchedSKU); ok {
			resolve(&ql, item)
		}
	}

	zap.L().Debug("match: line decided",
		zap.Int("line", lineNo),
		zap.String("status", string(ql.Explain.Status)),
		zap.String("sku", ql.Explain.MatchedSKU),
		zap.Float64("score", ql.Explain.Score),
	)
	return ql
}

func (m *Matcher) decide(line model.ParsedLine) model.Explainability {
	f := m.filter(line)
	if f.review != nil {
		return *f.review
	}

	ranked := rank(line, f.pool, m.cfg.TopN)
	if len(ranked) == 0 {
		return model.Explainability{
			InputText:   line.RawText,
			Status:      model.StatusNotFound,
			Reason:      "No items matched after filtering.",
			Candidates:  []model.Candidate{},
			Assumptions: []string{},
		}
	}

	best := ranked[0].score
	explain := model.Explainability{
		InputText:   line.RawText,
		Score:       best,
		Candidates:  candidates(ranked),
		Assumptions: []string{},
	}

	clearLead := len(ranked) == 1 || best-ranked[1].score >= m.cfg.AutoMatchDelta
	switch {
	case best >= m.cfg.AutoMatchScore && clearLead:
		explain.Status = model.StatusMatched
		explain.MatchedSKU = ranked[0].item.SKU
		explain.Reason = fmt.Sprintf("High confidence match (score: %.1f)", best)
	case best < m.cfg.AutoMatchScore:
		explain.Status = model.StatusNeedsReview
		explain.Reason = fmt.Sprintf("Top score %.1f is below the auto-match threshold of %.1f.", best, m.cfg.AutoMatchScore)
	default:
		explain.Status = model.StatusNeedsReview
		explain.Reason = fmt.Sprintf("Top score %.1f is within %.1f of the next best candidate (%.1f).",
			best, m.cfg.AutoMatchDelta, ranked[1].score)
	}
	return explain
}

func candidates(ranked []scored) []model.Candidate {
	n := min(len(ranked), maxCandidates)
	out := make([]model.Candidate, n)
	for i := 0; i < n; i++ {
		out[i] = model.Candidate{
			SKU:         ranked[i].item.SKU,
			Description: ranked[i].item.Description,
			Score:       math.Round(ranked[i].score*10) / 10,
		}
	}
	return out
}

// resolve copies the catalog identity onto the line. The parsed UOM wins;
// the catalog UOM fills in when the RFQ gave none.
func resolve(ql *model.QuoteLine, item *model.CatalogItem) {
	ql.Resolved = true
	ql.SKU = item.SKU
	ql.Description = item.Description
	ql.TaxCode = item.TaxCode
	if ql.UOM == nil && item.UOM != "" {
		ql.UOM = model.Unit(item.UOM)
	}
}
