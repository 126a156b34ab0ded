package model

import (
	"sort"
	"strings"
)

// UnitOfMeasure is a canonical unit of measure.
type UnitOfMeasure string

const (
	UnitMeter UnitOfMeasure = "M"
	UnitPiece UnitOfMeasure = "PC"
	UnitCoil  UnitOfMeasure = "COIL"
	UnitPack  UnitOfMeasure = "PACK"
	UnitSet   UnitOfMeasure = "SET"
	UnitRoll  UnitOfMeasure = "ROLL"
)

// unitSynonyms maps lowercase RFQ spellings to canonical units.
var unitSynonyms = map[string]UnitOfMeasure{
	"m": UnitMeter, "mtr": UnitMeter, "mtrs": UnitMeter, "meter": UnitMeter,
	"meters": UnitMeter, "metre": UnitMeter, "metres": UnitMeter,
	"pc": UnitPiece, "pcs": UnitPiece, "piece": UnitPiece, "pieces": UnitPiece,
	"nos": UnitPiece, "no": UnitPiece,
	"coil": UnitCoil, "coils": UnitCoil,
	"pack": UnitPack, "packs": UnitPack, "packet": UnitPack, "packets": UnitPack,
	"pkt": UnitPack, "pkts": UnitPack,
	"set": UnitSet, "sets": UnitSet,
	"roll": UnitRoll, "rolls": UnitRoll,
}

// ParseUnit resolves a unit word (any case) to its canonical unit.
// Canonical codes ("PC", "COIL") are accepted as well.
func ParseUnit(word string) (UnitOfMeasure, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if u, ok := unitSynonyms[w]; ok {
		return u, true
	}
	switch u := UnitOfMeasure(strings.ToUpper(w)); u {
	case UnitMeter, UnitPiece, UnitCoil, UnitPack, UnitSet, UnitRoll:
		return u, true
	}
	return "", false
}

// UnitWords returns every unit synonym, longest first, so that regex
// alternations prefer "mtrs" over "m".
func UnitWords() []string {
	words := make([]string, 0, len(unitSynonyms))
	for w := range unitSynonyms {
		words = append(words, w)
	}
	return longestFirst(words)
}

// Material is a canonical material keyword.
type Material string

const (
	MaterialPP    Material = "PP"
	MaterialFRPP  Material = "FRPP"
	MaterialPVC   Material = "PVC"
	MaterialGI    Material = "GI"
	MaterialMS    Material = "MS"
	MaterialNylon Material = "NYLON"
)

type materialSynonym struct {
	word     string
	material Material
}

// materialTable is ordered; extraction reports materials in this order.
var materialTable = []materialSynonym{
	{"pp", MaterialPP},
	{"fr", MaterialFRPP},
	{"frpp", MaterialFRPP},
	{"fr-pp", MaterialFRPP},
	{"pvc", MaterialPVC},
	{"gi", MaterialGI},
	{"ms", MaterialMS},
	{"nylon", MaterialNylon},
}

var materialByWord = func() map[string]Material {
	m := make(map[string]Material, len(materialTable))
	for _, s := range materialTable {
		m[s.word] = s.material
	}
	return m
}()

// ParseMaterial resolves a material word (any case) to its canonical material.
func ParseMaterial(word string) (Material, bool) {
	w := strings.ToLower(strings.TrimSpace(word))
	if m, ok := materialByWord[w]; ok {
		return m, true
	}
	return "", false
}

// IsMaterialWord reports whether word is a material synonym.
func IsMaterialWord(word string) bool {
	_, ok := materialByWord[strings.ToLower(word)]
	return ok
}

// MaterialWords returns the material synonyms in table order.
func MaterialWords() []string {
	words := make([]string, len(materialTable))
	for i, s := range materialTable {
		words[i] = s.word
	}
	return words
}

// MaterialFor returns the canonical material for a synonym from MaterialWords.
func MaterialFor(word string) Material {
	return materialByWord[strings.ToLower(word)]
}

func longestFirst(words []string) []string {
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return words
}
