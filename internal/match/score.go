package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/quote-engine/internal/model"
)

// Score bonuses added on top of the fuzzy similarity.
const (
	MaterialBonus = 15.0
	GaugeBonus    = 30.0
	NumberBonus   = 20.0
)

var numberToken = regexp.MustCompile(`\d+\.?\d*`)

type scored struct {
	item  *model.CatalogItem
	fuzzy float64
	score float64
}

// rank scores the pool against the line, keeps the top n fuzzy matches
// (zero scores included, so a keyword-less line still gets candidates),
// applies bonuses and re-sorts. Ties keep pool order.
func rank(line model.ParsedLine, pool []*model.CatalogItem, n int) []scored {
	query := queryText(line)

	all := make([]scored, 0, len(pool))
	for _, item := range pool {
		all = append(all, scored{item: item, fuzzy: Similarity(query, item.SearchText())})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].fuzzy > all[j].fuzzy })
	if len(all) > n {
		all = all[:n]
	}

	for i := range all {
		all[i].score = all[i].fuzzy + bonus(line, all[i].item)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })
	return all
}

// queryText joins description keywords and material keywords.
func queryText(line model.ParsedLine) string {
	parts := append([]string(nil), line.DescriptionKeywords...)
	for _, m := range line.MaterialKeywords {
		parts = append(parts, strings.ToLower(string(m)))
	}
	return strings.Join(parts, " ")
}

func bonus(line model.ParsedLine, item *model.CatalogItem) float64 {
	var b float64
	if m := line.PrimaryMaterial(); m != "" && item.HasMaterial(m) {
		b += MaterialBonus
	}
	if g := strings.TrimSpace(item.Gauge); g != "" &&
		strings.Contains(strings.ToLower(line.RawText), strings.ToLower(g)) {
		b += GaugeBonus
	}
	if numbersOverlap(line.RawText, item.Description) {
		b += NumberBonus
	}
	return b
}

func numbersOverlap(a, b string) bool {
	nums := make(map[string]bool)
	for _, n := range numberToken.FindAllString(a, -1) {
		nums[n] = true
	}
	for _, n := range numberToken.FindAllString(b, -1) {
		if nums[n] {
			return true
		}
	}
	return false
}
