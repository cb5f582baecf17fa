// Package strategy implements the independent candidate generators the
// linker runs tier by tier. Strategies are pure functions of an entity and an
// immutable index.
package strategy

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
	"github.com/sells-group/firmlink/internal/similarity"
)

// Strategy proposes candidate firms for one entity. Returning no candidates
// is not an error.
type Strategy interface {
	Name() model.Method
	Tier() model.Tier
	Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error)
}

// Bases holds the base confidence each strategy assigns before
// cross-validation.
type Bases struct {
	ExactName          float64
	Domain             float64
	Ticker             float64
	FirmAcronym        float64
	AlternateName      float64
	ContainedName      float64
	ContainedNameLoose float64
	FuzzyMin           float64
	FuzzyMax           float64
}

// DefaultBases returns the calibrated base confidences.
func DefaultBases() Bases {
	return Bases{
		ExactName:          0.98,
		Domain:             0.97,
		Ticker:             0.97,
		FirmAcronym:        0.96,
		AlternateName:      0.95,
		ContainedName:      0.95,
		ContainedNameLoose: 0.94,
		FuzzyMin:           0.90,
		FuzzyMax:           0.95,
	}
}

// Config parameterizes the strategy set.
type Config struct {
	MinAcronymLength       int
	MinContainedNameLength int
	MinCommonWordLength    int
	FuzzyThreshold         float64
	Similarity             similarity.Func
	Bases                  Bases
}

// DefaultConfig returns the production thresholds with token-set similarity.
func DefaultConfig() Config {
	return Config{
		MinAcronymLength:       3,
		MinContainedNameLength: 5,
		MinCommonWordLength:    8,
		FuzzyThreshold:         0.90,
		Similarity:             similarity.TokenSetRatio,
		Bases:                  DefaultBases(),
	}
}

// All returns every strategy in method priority order.
func All(cfg Config) []Strategy {
	return []Strategy{
		NewExactName(cfg),
		NewDomain(cfg),
		NewTickerAcronym(cfg),
		NewAlternateName(cfg),
		NewContainedName(cfg),
		NewContainedNameLoose(cfg),
		NewFuzzy(cfg),
	}
}

// Select returns the strategies of All(cfg) minus the disabled methods.
// Unknown method names are an error.
func Select(cfg Config, disabled []string) ([]Strategy, error) {
	off := make(map[model.Method]bool, len(disabled))
	for _, d := range disabled {
		m := model.Method(strings.TrimSpace(d))
		if !m.Valid() {
			return nil, eris.Errorf("strategy: unknown method %q", d)
		}
		off[m] = true
	}
	var out []Strategy
	for _, s := range All(cfg) {
		if !off[s.Name()] {
			out = append(out, s)
		}
	}
	return out, nil
}

// newCandidate fills the fields every strategy sets.
func newCandidate(e *model.Entity, f *model.Firm, m model.Method, t model.Tier, key string, base float64) model.Candidate {
	return model.Candidate{
		EntityID:       e.ID,
		FirmID:         f.ID,
		Method:         m,
		Tier:           t,
		MatchedKey:     key,
		BaseConfidence: base,
	}
}

// entityNames returns the entity's normalized primary and alternate names,
// deduplicated, primary first.
func entityNames(e *model.Entity, n *normalize.Normalizer) []string {
	primary := e.Normalized
	if primary == "" {
		primary = n.Normalize(e.Name)
	}
	var out []string
	seen := make(map[string]bool, len(e.AltNames)+1)
	add := func(k string) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}
	add(primary)
	for _, alt := range e.AltNames {
		add(n.Normalize(alt))
	}
	return out
}

// curatedAcronyms are acronyms that stand on their own: the acronyms column
// and a primary name that is itself acronym-shaped.
func curatedAcronyms(e *model.Entity, n *normalize.Normalizer) []string {
	var out []string
	for _, a := range e.Acronyms {
		out = append(out, normalize.Code(a))
	}
	if names := entityNames(e, n); len(names) > 0 && normalize.IsAcronymShaped(names[0]) {
		out = append(out, names[0])
	}
	return dedupe(out)
}

// allAcronyms adds the acronyms embedded in the raw display name.
func allAcronyms(e *model.Entity, n *normalize.Normalizer) []string {
	return dedupe(append(curatedAcronyms(e, n), normalize.ExtractAcronyms(e.Name)...))
}

func dedupe(in []string) []string {
	out := in[:0]
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// shortAcronym reports whether key is acronym-shaped but below the floor.
func (c Config) shortAcronym(key string) bool {
	return normalize.IsAcronymShaped(key) && utf8.RuneCountInString(key) < c.MinAcronymLength
}

// containedKeyOK applies the contained-name floors to a firm name key.
func (c Config) containedKeyOK(key string, tokens []string) bool {
	n := utf8.RuneCountInString(strings.ReplaceAll(key, " ", ""))
	if n < c.MinContainedNameLength {
		return false
	}
	if len(tokens) == 1 && normalize.IsCommonWord(tokens[0]) && n < c.MinCommonWordLength {
		return false
	}
	return true
}

// firmSet collects one candidate per firm, keeping the first (strongest)
// proposal in insertion order.
type firmSet struct {
	seen  map[string]int
	cands []model.Candidate
}

func newFirmSet() *firmSet {
	return &firmSet{seen: make(map[string]int)}
}

func (s *firmSet) add(c model.Candidate) {
	if i, ok := s.seen[c.FirmID]; ok {
		if c.BaseConfidence > s.cands[i].BaseConfidence {
			s.cands[i] = c
		}
		return
	}
	s.seen[c.FirmID] = len(s.cands)
	s.cands = append(s.cands, c)
}
