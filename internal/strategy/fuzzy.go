package strategy

import (
	"sort"
	"unicode/utf8"

	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

// Fuzzy scores the entity against every firm in the first-letter buckets of
// its usable names and
// proposes firms at or above FuzzyThreshold. Names on either side that fail
// the contained-name floors are not scored, so a short acronym cannot ride a
// token-subset score. Base confidence rises linearly
// from FuzzyMin at the threshold to FuzzyMax at similarity 1.
type Fuzzy struct {
	cfg Config
}

// NewFuzzy creates a Fuzzy-Similarity strategy.
func NewFuzzy(cfg Config) *Fuzzy { return &Fuzzy{cfg: cfg} }

// Name implements Strategy.
func (s *Fuzzy) Name() model.Method { return model.MethodFuzzySimilarity }

// Tier implements Strategy.
func (s *Fuzzy) Tier() model.Tier { return model.TierFuzzy }

// Match implements Strategy.
func (s *Fuzzy) Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error) {
	sim := s.cfg.Similarity
	if sim == nil {
		return nil, nil
	}
	n := idx.Normalizer()
	var names []string
	for _, name := range entityNames(e, n) {
		if s.cfg.containedKeyOK(name, normalize.Tokens(name)) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	var out []model.Candidate
	for _, f := range bucketFirms(idx, names) {
		bestSim, bestKey := 0.0, ""
		for _, key := range firmKeys(f, n) {
			if !s.cfg.containedKeyOK(key, normalize.Tokens(key)) {
				continue
			}
			for _, name := range names {
				if v := sim(name, key); v > bestSim {
					bestSim, bestKey = v, key
				}
			}
		}
		if bestKey == "" || bestSim < s.cfg.FuzzyThreshold {
			continue
		}
		c := newCandidate(e, f, s.Name(), s.Tier(), bestKey, s.base(bestSim))
		c.Similarity = bestSim
		out = append(out, c)
	}
	return out, nil
}

// bucketFirms returns the union of the letter buckets of every name's first
// letter, ordered by firm id.
func bucketFirms(idx *index.Index, names []string) []*model.Firm {
	seenLetter := make(map[rune]bool, len(names))
	seenFirm := make(map[string]bool)
	var out []*model.Firm
	for _, name := range names {
		letter, _ := utf8.DecodeRuneInString(name)
		if seenLetter[letter] {
			continue
		}
		seenLetter[letter] = true
		for _, f := range idx.FirmsByLetter(letter) {
			if !seenFirm[f.ID] {
				seenFirm[f.ID] = true
				out = append(out, f)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Fuzzy) base(sim float64) float64 {
	lo, hi, thr := s.cfg.Bases.FuzzyMin, s.cfg.Bases.FuzzyMax, s.cfg.FuzzyThreshold
	if thr >= 1 {
		return hi
	}
	frac := (sim - thr) / (1 - thr)
	frac = min(max(frac, 0), 1)
	return lo + frac*(hi-lo)
}

func firmKeys(f *model.Firm, n *normalize.Normalizer) []string {
	keys := []string{f.Normalized}
	for _, alt := range f.AltNames {
		keys = append(keys, n.Normalize(alt))
	}
	return dedupe(keys)
}
