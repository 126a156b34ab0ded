package match

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/kljensen/snowball"
)

// indel scores edits with substitution = delete + insert, so Similarity is
// 1 - distance/(len(a)+len(b)).
var indel = levenshtein.NewParams().InsCost(1).DelCost(1).SubCost(2)

// Similarity returns a 0-100 weighted similarity between a query and a
// catalog choice string. Both sides are lower-cased and stripped of
// punctuation. Token-level comparisons use English stems, so "pipes" and
// "pipe" count as the same word.
func Similarity(query, choice string) float64 {
	a, b := normalize(query), normalize(choice)
	if a == "" || b == "" {
		return 0
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	best := ratio(a, b)
	if lenRatio < 1.5 {
		return max(best, 0.95*max(tokenSortRatio(a, b), tokenSetRatio(a, b)))
	}

	partialScale := 0.9
	if lenRatio >= 8 {
		partialScale = 0.6
	}
	best = max(best, partialScale*partialRatio(a, b))
	return max(best, 0.95*partialScale*partialTokenRatio(a, b))
}

func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func ratio(a, b string) float64 {
	return 100 * levenshtein.Similarity(a, b, indel)
}

// partialRatio is the best ratio of the shorter string against every
// equal-length window of the longer one.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return ratio(a, b)
	}

	s := string(short)
	var best float64
	for i := 0; i+len(short) <= len(long); i++ {
		if r := ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedJoin(stems(a)), sortedJoin(stems(b)))
}

func tokenSetRatio(a, b string) float64 {
	inter, onlyA, onlyB := splitTokens(stems(a), stems(b))
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	base := strings.Join(inter, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))
	return max(ratio(base, withA), ratio(base, withB), ratio(withA, withB))
}

// partialTokenRatio is 100 as soon as the two sides share a word; otherwise
// the best partial ratio of the sorted tokens or of the differing tokens.
func partialTokenRatio(a, b string) float64 {
	ta, tb := stems(a), stems(b)
	inter, onlyA, onlyB := splitTokens(ta, tb)
	if len(inter) > 0 {
		return 100
	}

	best := partialRatio(sortedJoin(ta), sortedJoin(tb))
	if len(onlyA) == len(ta) && len(onlyB) == len(tb) {
		return best
	}
	return max(best, partialRatio(strings.Join(onlyA, " "), strings.Join(onlyB, " ")))
}

// splitTokens returns the sorted distinct tokens common to both sides and
// those unique to each side.
func splitTokens(a, b []string) (inter, onlyA, onlyB []string) {
	setA, setB := toSet(a), toSet(b)
	for t := range setA {
		if setB[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range setB {
		if !setA[t] {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return inter, onlyA, onlyB
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func sortedJoin(tokens []string) string {
	out := append([]string(nil), tokens...)
	sort.Strings(out)
	return strings.Join(out, " ")
}

// stems splits s on whitespace and reduces each word to its English stem.
// Words the stemmer rejects are kept as-is.
func stems(s string) []string {
	words := strings.Fields(s)
	out := make([]string, len(words))
	for i, w := range words {
		stem, err := snowball.Stem(w, "english", true)
		if err != nil || stem == "" {
			stem = w
		}
		out[i] = stem
	}
	return out
}
