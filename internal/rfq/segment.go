// Package rfq turns raw request-for-quotation text into structured item lines.
package rfq

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/quote-engine/internal/model"
)

// headerPatterns match greeting and header boilerplate at the start of an RFQ.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:dear\s+sir(?:s|\s*/\s*madam)?|hello|hi|greetings)(?:[\s,:/.!]+|$)`),
	regexp.MustCompile(`(?i)^(?:please|pls|plz|kindly)\s+(?:send\s+)?quote(?:\s+for)?\b[\s,:.-]*`),
	regexp.MustCompile(`(?i)^(?:request\s+for\s+quotation|quotation\s+for|quote\s+request|quote\s+for|rfq)\b[\s,:.-]*`),
}

var (
	separators  = strings.NewReplacer(";", " ", ",", " ", "\r", " ", "\n", " ", "\t", " ")
	quoteFolder = strings.NewReplacer("′′", `"`, "″", `"`, "“", `"`, "”", `"`, "′", "'", "’", "'", "‘", "'")
	andJoiner   = regexp.MustCompile(`(?i)\s+and\s+(\d)`)
	whitespace  = regexp.MustCompile(`\s+`)
)

const (
	numberPattern = `\d+(?:\.\d+)?`
)

// markerPattern matches quantity + unit, optionally followed by a material.
var markerPattern = regexp.MustCompile(`(?i)\b` + numberPattern + `\s*(?:` + alternation(model.UnitWords()) + `)\b` +
	`(?:\s*(?:` + alternation(materialWordsLongestFirst()) + `)\b)?`)

// Segment splits raw RFQ text into one substring per detected item.
// Each item runs from the end of the previous quantity marker through the end
// of its own marker, so descriptions that precede a quantity stay with it.
func Segment(text string) []string {
	clean := Clean(text)

	markers := markerPattern.FindAllStringIndex(clean, -1)
	if len(markers) == 0 {
		if len(clean) > 3 {
			return []string{clean}
		}
		return nil
	}

	var items []string
	start := 0
	for _, m := range markers {
		if item := strings.TrimSpace(clean[start:m[1]]); item != "" {
			items = append(items, item)
		}
		start = m[1]
	}
	return items
}

// Clean normalizes RFQ text for segmentation: header boilerplate is removed,
// separators become spaces and whitespace is collapsed.
func Clean(text string) string {
	s := quoteFolder.Replace(norm.NFKC.String(text))
	s = stripHeaders(s)
	s = separators.Replace(s)
	s = andJoiner.ReplaceAllString(s, " ${1}")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func stripHeaders(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := false
		for _, re := range headerPatterns {
			if loc := re.FindStringIndex(s); loc != nil && loc[1] > 0 {
				s = strings.TrimSpace(s[loc[1]:])
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

func materialWordsLongestFirst() []string {
	words := model.MaterialWords()
	out := make([]string, len(words))
	copy(out, words)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
