// Package normalize turns free-text organization names and web domains into
// the canonical keys shared by every matching strategy.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultLegalSuffixes lists legal-entity tokens stripped during normalization.
// Tokens are compared after removing punctuation, so "L.L.C." and "Corp."
// are covered by "LLC" and "CORP".
var DefaultLegalSuffixes = []string{
	"INC", "INCORPORATED",
	"CORP", "CORPORATION",
	"CO", "COMPANY",
	"LTD", "LIMITED",
	"LLC", "LLP", "LP", "PLLC",
	"PLC",
	"GMBH", "AG", "SA", "NV", "BV", "SPA", "SRL",
	"KK", "AB", "ASA", "OYJ",
}

// Normalizer canonicalizes organization names. The zero value is not usable;
// construct one with New or Default. A Normalizer is safe for concurrent use.
type Normalizer struct {
	suffixes map[string]struct{}
}

// New creates a Normalizer that strips the given legal-suffix tokens.
func New(suffixes []string) *Normalizer {
	set := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		key := alnum(strings.ToUpper(s))
		if key != "" {
			set[key] = struct{}{}
		}
	}
	return &Normalizer{suffixes: set}
}

var defaultNormalizer = New(DefaultLegalSuffixes)

// Default returns the Normalizer built from DefaultLegalSuffixes.
func Default() *Normalizer {
	return defaultNormalizer
}

// Name normalizes with the default suffix set.
func Name(name string) string {
	return defaultNormalizer.Normalize(name)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize standardizes an organization name by:
//  1. Converting to uppercase and folding diacritics
//  2. Splitting on whitespace, hyphens and slashes ("&" becomes AND)
//  3. Removing legal suffix tokens (INC, CORP, PLC, GMBH, ...) as whole words
//  4. Stripping every remaining non-alphanumeric character
//  5. Collapsing whitespace
//
// A name made only of suffix tokens keeps them. Empty or punctuation-only
// input yields "", which no exact or contained strategy can match.
func (n *Normalizer) Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	folded, _, err := transform.String(stripMarks, strings.ToUpper(name))
	if err != nil {
		folded = strings.ToUpper(name)
	}

	tokens := splitTokens(folded)
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := n.suffixes[tok]; ok {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		kept = tokens
	}
	return strings.Join(kept, " ")
}

// IsSuffix reports whether tok is one of the normalizer's legal suffixes.
func (n *Normalizer) IsSuffix(tok string) bool {
	_, ok := n.suffixes[alnum(strings.ToUpper(tok))]
	return ok
}

// splitTokens breaks an uppercased name into alphanumeric tokens.
func splitTokens(s string) []string {
	s = strings.NewReplacer("&", " AND ", "-", " ", "/", " ", "+", " ").Replace(s)
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := alnum(f); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// alnum drops every rune that is not a letter or digit.
func alnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokens splits an already-normalized name into its tokens.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// Code canonicalizes a short identifier such as a ticker or acronym: uppercase
// letters and digits only ("brk.b" → "BRKB").
func Code(s string) string {
	return alnum(strings.ToUpper(strings.TrimSpace(s)))
}
