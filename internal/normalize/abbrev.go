package normalize

import (
	"strings"
	"unicode"
)

// abbreviations expands common registry and affiliation abbreviations to
// their long form. Keys and values are normalized tokens.
var abbreviations = map[string]string{
	"INTL":     "INTERNATIONAL",
	"INTERNAT": "INTERNATIONAL",
	"MFG":      "MANUFACTURING",
	"MFRS":     "MANUFACTURERS",
	"TECH":     "TECHNOLOGY",
	"TECHNOL":  "TECHNOLOGY",
	"TECHS":    "TECHNOLOGIES",
	"LAB":      "LABORATORY",
	"LABS":     "LABORATORIES",
	"NATL":     "NATIONAL",
	"AMER":     "AMERICAN",
	"ELEC":     "ELECTRIC",
	"ELECTR":   "ELECTRONICS",
	"CHEM":     "CHEMICAL",
	"PHARM":    "PHARMACEUTICAL",
	"PHARMS":   "PHARMACEUTICALS",
	"SYS":      "SYSTEMS",
	"SVCS":     "SERVICES",
	"SVC":      "SERVICE",
	"ASSOC":    "ASSOCIATES",
	"BROS":     "BROTHERS",
	"CTR":      "CENTER",
	"DEV":      "DEVELOPMENT",
	"ENGN":     "ENGINEERING",
	"ENG":      "ENGINEERING",
	"GRP":      "GROUP",
	"HLDGS":    "HOLDINGS",
	"HLDG":     "HOLDING",
	"IND":      "INDUSTRIES",
	"INDS":     "INDUSTRIES",
	"INSTR":    "INSTRUMENTS",
	"MGMT":     "MANAGEMENT",
	"MGT":      "MANAGEMENT",
	"COMMUN":   "COMMUNICATIONS",
	"COMM":     "COMMUNICATIONS",
	"PROD":     "PRODUCTS",
	"PRODS":    "PRODUCTS",
	"RES":      "RESEARCH",
	"SCI":      "SCIENTIFIC",
	"SEMICOND": "SEMICONDUCTOR",
	"BIOTECH":  "BIOTECHNOLOGY",
	"DIV":      "DIVISION",
	"AUTO":     "AUTOMOTIVE",
	"MOTOR":    "MOTORS",
}

// Expand replaces known abbreviations token by token in a normalized name.
func Expand(normalized string) string {
	tokens := Tokens(normalized)
	for i, tok := range tokens {
		if long, ok := abbreviations[tok]; ok {
			tokens[i] = long
		}
	}
	return strings.Join(tokens, " ")
}

// acronymSkip lists connective tokens left out of derived acronyms.
var acronymSkip = map[string]bool{
	"OF": true, "AND": true, "THE": true, "FOR": true, "DE": true, "LA": true,
}

// Acronym derives the initials of a multi-token normalized name, skipping
// connectives ("INTERNATIONAL BUSINESS MACHINES" → "IBM"). Names with fewer
// than two significant tokens have no acronym.
func Acronym(normalized string) string {
	var b strings.Builder
	for _, tok := range Tokens(normalized) {
		if acronymSkip[tok] {
			continue
		}
		r := []rune(tok)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(r)
	}
	if b.Len() < 2 {
		return ""
	}
	return b.String()
}

// IsAcronymShaped reports whether a normalized key looks like an acronym:
// one token of at most six characters with at least one letter.
func IsAcronymShaped(key string) bool {
	if key == "" || strings.ContainsRune(key, ' ') || len(key) > 6 {
		return false
	}
	return strings.IndexFunc(key, unicode.IsLetter) >= 0
}

// ExtractAcronyms pulls acronym tokens out of a raw display name: any
// parenthesized single token ("International Business Machines (IBM)") and,
// when the name is written in mixed case, every all-caps token of two to six
// letters ("IBM Research"). Results are uppercase, deduplicated, in order.
func ExtractAcronyms(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(tok string) {
		tok = alnum(strings.ToUpper(tok))
		if !IsAcronymShaped(tok) || seen[tok] {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}

	for rest := raw; ; {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			break
		}
		closeIdx := strings.IndexByte(rest[open:], ')')
		if closeIdx < 0 {
			break
		}
		inner := strings.TrimSpace(rest[open+1 : open+closeIdx])
		if inner != "" && !strings.ContainsAny(inner, " \t") {
			add(inner)
		}
		rest = rest[open+closeIdx+1:]
	}

	if !hasLower(raw) {
		return out
	}
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ')' || r == ',' || r == '-' || r == '/'
	}) {
		f = strings.Trim(f, ".")
		n := len([]rune(f))
		if n < 2 || n > 6 || hasLower(f) || strings.IndexFunc(f, unicode.IsLetter) < 0 {
			continue
		}
		add(f)
	}
	return out
}

func hasLower(s string) bool {
	return strings.IndexFunc(s, unicode.IsLower) >= 0
}
