package strategy

import (
	"unicode/utf8"

	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

// AlternateName matches abbreviation-expanded names ("INTL BUSINESS MACHINES"
// against "INTERNATIONAL BUSINESS MACHINES") and entity acronyms against
// acronym-shaped firm alternate names.
type AlternateName struct {
	cfg Config
}

// NewAlternateName creates an Alternate-Name strategy.
func NewAlternateName(cfg Config) *AlternateName { return &AlternateName{cfg: cfg} }

// Name implements Strategy.
func (s *AlternateName) Name() model.Method { return model.MethodAlternateName }

// Tier implements Strategy.
func (s *AlternateName) Tier() model.Tier { return model.TierStructured }

// Match implements Strategy.
func (s *AlternateName) Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error) {
	n := idx.Normalizer()
	base := s.cfg.Bases.AlternateName
	set := newFirmSet()

	for _, key := range entityNames(e, n) {
		if s.cfg.shortAcronym(key) {
			continue
		}
		for _, f := range idx.LookupExpanded(normalize.Expand(key)) {
			set.add(newCandidate(e, f, s.Name(), s.Tier(), key, base))
		}
	}

	for _, acr := range allAcronyms(e, n) {
		if utf8.RuneCountInString(acr) < s.cfg.MinAcronymLength {
			continue
		}
		for _, f := range idx.LookupAlternate(acr) {
			set.add(newCandidate(e, f, s.Name(), s.Tier(), acr, base))
		}
	}
	return set.cands, nil
}
