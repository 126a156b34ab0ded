package rfq

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/quote-engine/internal/model"
)

const mmPerInch = 25.4

var (
	quantityPattern = regexp.MustCompile(`(?i)\b(` + numberPattern + `)\s*(` + alternation(model.UnitWords()) + `)\b`)
	sizePattern     = regexp.MustCompile(`(?i)(` + numberPattern + `)\s*(mm|inch|"|')`)
	digitsOnly      = regexp.MustCompile(`^\d+$`)

	materialPatterns = func() []*regexp.Regexp {
		words := model.MaterialWords()
		out := make([]*regexp.Regexp, len(words))
		for i, w := range words {
			out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
		return out
	}()
)

// Extract pulls quantity, unit, size, materials and description keywords out
// of one item substring. Missing fields are left unset; Extract never fails.
func Extract(item string) model.ParsedLine {
	line := model.ParsedLine{
		RawText:             item,
		MaterialKeywords:    []model.Material{},
		DescriptionKeywords: []string{},
	}
	clean := normalizeLine(item)

	rest := clean
	if m := quantityPattern.FindStringSubmatch(clean); m != nil {
		if qty, err := strconv.ParseFloat(m[1], 64); err == nil {
			if uom, ok := model.ParseUnit(m[2]); ok {
				line.Quantity = &qty
				line.UOM = &uom
				rest = strings.Replace(clean, m[0], "", 1)
			}
		}
	}

	if m := sizePattern.FindStringSubmatch(rest); m != nil {
		if size, err := strconv.ParseFloat(m[1], 64); err == nil {
			if m[2] != "mm" {
				size *= mmPerInch
			}
			line.SizeMM = &size
		}
	}

	line.MaterialKeywords = materialsIn(clean)

	desc := markerPattern.ReplaceAllString(clean, " ")
	desc = sizePattern.ReplaceAllString(desc, " ")
	for _, tok := range strings.Fields(desc) {
		if model.IsMaterialWord(tok) || digitsOnly.MatchString(tok) {
			continue
		}
		line.DescriptionKeywords = append(line.DescriptionKeywords, tok)
	}

	return line
}

// Parse segments raw RFQ text and extracts one ParsedLine per item.
func Parse(text string) []model.ParsedLine {
	items := Segment(text)
	lines := make([]model.ParsedLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, Extract(item))
	}
	return lines
}

func normalizeLine(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "-", " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// materialsIn returns canonical materials found as whole words, in table
// order, without duplicates.
func materialsIn(clean string) []model.Material {
	out := []model.Material{}
	seen := make(map[model.Material]bool)
	for i, w := range model.MaterialWords() {
		if !materialPatterns[i].MatchString(clean) {
			continue
		}
		m := model.MaterialFor(w)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
