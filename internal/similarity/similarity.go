// Package similarity provides the named string-similarity functions the fuzzy
// strategy can be configured with. Every function is symmetric,
// case-insensitive and returns a score in [0, 1]; an empty side scores 0.
package similarity

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"
)

// Func scores the similarity of two names.
type Func func(a, b string) float64

// Algorithm names accepted by Lookup.
const (
	TokenSet     = "token_set"
	Levenshtein  = "levenshtein"
	JaroWinkler  = "jaro_winkler"
	SorensenDice = "sorensen_dice"
)

var registry = map[string]Func{
	TokenSet:     TokenSetRatio,
	Levenshtein:  LevenshteinRatio,
	JaroWinkler:  JaroWinklerSimilarity,
	SorensenDice: SorensenDiceSimilarity,
}

// Lookup returns the similarity function registered under name.
func Lookup(name string) (Func, error) {
	fn, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, eris.Errorf("similarity: unknown algorithm %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return fn, nil
}

// Names lists the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LevenshteinRatio is 1 - editDistance / max(len(a), len(b)).
func LevenshteinRatio(a, b string) float64 {
	a, b = strings.ToUpper(a), strings.ToUpper(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	d := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(d)/float64(maxLen))
}

// TokenSetRatio compares the sorted token intersection of two names against
// each side's intersection-plus-remainder and keeps the best edit ratio.
// Word order and repeated tokens do not matter, and a name whose tokens are
// all contained in the other scores 1.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(common, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := LevenshteinRatio(t1, t2)
	if t0 != "" {
		best = max(best, LevenshteinRatio(t0, t1), LevenshteinRatio(t0, t2))
	}
	return best
}

var (
	jaroWinkler  = &metrics.JaroWinkler{CaseSensitive: false}
	sorensenDice = &metrics.SorensenDice{CaseSensitive: false, NgramSize: 2}
)

// JaroWinklerSimilarity is the Jaro-Winkler similarity of the two names.
func JaroWinklerSimilarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	a, b = ordered(a, b)
	return clamp(strutil.Similarity(a, b, jaroWinkler))
}

// SorensenDiceSimilarity is the bigram Sorensen-Dice coefficient.
func SorensenDiceSimilarity(a, b string) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0
	}
	a, b = ordered(a, b)
	return clamp(strutil.Similarity(a, b, sorensenDice))
}

// ordered lowercases both names and returns them in a fixed order so metrics
// with directional matching windows stay symmetric.
func ordered(a, b string) (string, string) {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if b < a {
		return b, a
	}
	return a, b
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToUpper(s)) {
		set[tok] = true
	}
	return set
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
