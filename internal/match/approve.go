package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/model"
)

// Approve returns a copy of lines in which every unresolved line that has at
// least one candidate is resolved to its top candidate. Lines without
// candidates, or whose top candidate is no longer in the catalog, are left
// unresolved.
func (m *Matcher) Approve(lines []model.QuoteLine) []model.QuoteLine {
	out := make([]model.QuoteLine, len(lines))
	approved := 0
	for i, line := range lines {
		ql := line.Clone()
		if !ql.Resolved && len(ql.Explain.Candidates) > 0 {
			top := ql.Explain.Candidates[0]
			if item, ok := m.catalog.BySKU(top.SKU); ok {
				resolve(&ql, item)
				ql.Explain.Status = model.StatusApproved
				ql.Explain.MatchedSKU = item.SKU
				ql.Explain.Reason = fmt.Sprintf("Manually approved from top candidate (original score: %.1f)", ql.Explain.Score)
				approved++
			}
		}
		out[i] = ql
	}

	if approved > 0 {
		zap.L().Info("match: approved top candidates", zap.Int("lines", approved))
	}
	return out
}
