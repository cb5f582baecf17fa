package strategy

import (
	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
)

// ExactName matches when a normalized entity name equals a firm's normalized
// legal or alternate name.
type ExactName struct {
	cfg Config
}

// NewExactName creates an Exact-Name strategy.
func NewExactName(cfg Config) *ExactName { return &ExactName{cfg: cfg} }

// Name implements Strategy.
func (s *ExactName) Name() model.Method { return model.MethodExactName }

// Tier implements Strategy.
func (s *ExactName) Tier() model.Tier { return model.TierStructured }

// Match implements Strategy.
func (s *ExactName) Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error) {
	set := newFirmSet()
	for _, key := range entityNames(e, idx.Normalizer()) {
		if s.cfg.shortAcronym(key) {
			continue
		}
		for _, f := range idx.LookupExact(key) {
			set.add(newCandidate(e, f, s.Name(), s.Tier(), key, s.cfg.Bases.ExactName))
		}
	}
	return set.cands, nil
}
