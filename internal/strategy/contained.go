package strategy

import (
	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

// ContainedName matches when a firm name key appears as a whole-token run
// inside a longer entity name ("GOOGLE DEEPMIND" contains "GOOGLE"). The
// validated tier-1 form only accepts the run at the start of the name; the
// loose tier-2 form accepts any position.
type ContainedName struct {
	cfg   Config
	loose bool
}

// NewContainedName creates the tier-1 leading-run strategy.
func NewContainedName(cfg Config) *ContainedName { return &ContainedName{cfg: cfg} }

// NewContainedNameLoose creates the tier-2 any-position strategy.
func NewContainedNameLoose(cfg Config) *ContainedName {
	return &ContainedName{cfg: cfg, loose: true}
}

// Name implements Strategy.
func (s *ContainedName) Name() model.Method {
	if s.loose {
		return model.MethodContainedNameLoose
	}
	return model.MethodContainedName
}

// Tier implements Strategy.
func (s *ContainedName) Tier() model.Tier {
	if s.loose {
		return model.TierFuzzy
	}
	return model.TierStructured
}

// Match implements Strategy.
func (s *ContainedName) Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error) {
	base := s.cfg.Bases.ContainedName
	if s.loose {
		base = s.cfg.Bases.ContainedNameLoose
	}

	set := newFirmSet()
	for _, name := range entityNames(e, idx.Normalizer()) {
		tokens := normalize.Tokens(name)
		last := 0
		if s.loose {
			last = len(tokens) - 1
		}
		for start := 0; start <= last && start < len(tokens); start++ {
			for _, nk := range idx.KeysByFirstToken(tokens[start]) {
				if len(nk.Tokens) >= len(tokens) || !hasRun(tokens[start:], nk.Tokens) {
					continue
				}
				if !s.cfg.containedKeyOK(nk.Key, nk.Tokens) {
					continue
				}
				set.add(newCandidate(e, nk.Firm, s.Name(), s.Tier(), nk.Key, base))
			}
		}
	}
	return set.cands, nil
}

// hasRun reports whether tokens begins with run.
func hasRun(tokens, run []string) bool {
	if len(run) > len(tokens) {
		return false
	}
	for i, t := range run {
		if tokens[i] != t {
			return false
		}
	}
	return true
}
