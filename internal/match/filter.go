package match

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/quote-engine/internal/catalog"
	"github.com/sells-group/quote-engine/internal/model"
)

// SizeAgnosticTriggers are raw-text substrings that mark a line as a product
// sold without a meaningful outer size. Such lines skip the size filter and
// may only match SizeAgnosticFamilies. Every trigger must name at least one
// of those families.
var SizeAgnosticTriggers = []string{"fan box", "junction", "gland", "tie", "clamp", "modular", "box"}

// SizeAgnosticFamilies are the catalog families a triggered line may match.
var SizeAgnosticFamilies = []string{"GI Fan Box", "Junction Box", "Modular Box", "Cable Tie", "Gland", "Saddle Clamp"}

const closestSizeSuggestions = 3

// sizeAgnostic reports whether raw text contains a family trigger.
func sizeAgnostic(raw string) bool {
	raw = strings.ToLower(raw)
	for _, t := range SizeAgnosticTriggers {
		if strings.Contains(raw, t) {
			return true
		}
	}
	return false
}

// UnlistedTriggerFamilies returns catalog families whose name contains a
// trigger word but which are missing from SizeAgnosticFamilies. Lines naming
// such a family can never match it.
func UnlistedTriggerFamilies(c *catalog.Catalog) []string {
	var out []string
	for _, fam := range c.Families() {
		if !sizeAgnostic(fam) {
			continue
		}
		listed := false
		for _, f := range SizeAgnosticFamilies {
			if strings.EqualFold(strings.TrimSpace(fam), f) {
				listed = true
				break
			}
		}
		if !listed {
			out = append(out, fam)
		}
	}
	return out
}

// filterResult is either a candidate pool or an early review decision when
// no item has the requested size.
type filterResult struct {
	pool   []*model.CatalogItem
	review *model.Explainability
}

func (m *Matcher) filter(line model.ParsedLine) filterResult {
	items := m.catalog.Items()

	if sizeAgnostic(line.RawText) {
		var pool []*model.CatalogItem
		for i := range items {
			if items[i].InFamily(SizeAgnosticFamilies) {
				pool = append(pool, &items[i])
			}
		}
		return filterResult{pool: pool}
	}

	if line.SizeMM == nil {
		pool := make([]*model.CatalogItem, len(items))
		for i := range items {
			pool[i] = &items[i]
		}
		return filterResult{pool: pool}
	}

	size := *line.SizeMM
	var pool []*model.CatalogItem
	for i := range items {
		if items[i].SizeMM != nil && math.Abs(*items[i].SizeMM-size) < m.cfg.SizeToleranceMM {
			pool = append(pool, &items[i])
		}
	}
	if len(pool) > 0 {
		return filterResult{pool: pool}
	}

	return filterResult{review: &model.Explainability{
		InputText:   line.RawText,
		Status:      model.StatusNeedsReview,
		Reason:      fmt.Sprintf("No item found with size %.1fmm. Closest available sizes are shown.", size),
		Candidates:  m.closestSizes(size),
		Assumptions: []string{},
	}}
}

// closestSizes suggests the sized items nearest to size, with score 0.
func (m *Matcher) closestSizes(size float64) []model.Candidate {
	sized := m.catalog.Sized()
	sort.SliceStable(sized, func(i, j int) bool {
		return math.Abs(*sized[i].SizeMM-size) < math.Abs(*sized[j].SizeMM-size)
	})

	out := make([]model.Candidate, 0, closestSizeSuggestions)
	for _, item := range sized {
		if len(out) == closestSizeSuggestions {
			break
		}
		out = append(out, model.Candidate{SKU: item.SKU, Description: item.Description})
	}
	return out
}
