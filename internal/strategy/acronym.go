package strategy

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
)

// TickerAcronym matches entity acronyms against firm tickers and derived firm
// initials. Acronyms shorter than MinAcronymLength are rejected outright.
type TickerAcronym struct {
	cfg Config
}

// NewTickerAcronym creates a Ticker/Acronym strategy.
func NewTickerAcronym(cfg Config) *TickerAcronym { return &TickerAcronym{cfg: cfg} }

// Name implements Strategy.
func (s *TickerAcronym) Name() model.Method { return model.MethodTickerAcronym }

// Tier implements Strategy.
func (s *TickerAcronym) Tier() model.Tier { return model.TierStructured }

// Match implements Strategy.
func (s *TickerAcronym) Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error) {
	n := idx.Normalizer()
	curated := make(map[string]bool)
	for _, a := range curatedAcronyms(e, n) {
		curated[a] = true
	}

	set := newFirmSet()
	for _, acr := range allAcronyms(e, n) {
		if utf8.RuneCountInString(acr) < s.cfg.MinAcronymLength {
			zap.L().Debug("acronym below floor",
				zap.String("entity_id", e.ID),
				zap.String("acronym", acr),
			)
			continue
		}
		for _, f := range idx.LookupByTicker(acr) {
			set.add(newCandidate(e, f, s.Name(), s.Tier(), acr, s.cfg.Bases.Ticker))
		}
		// Derived initials are a guess; pair them only with acronyms that
		// stand on their own.
		if !curated[acr] {
			continue
		}
		for _, f := range idx.LookupByAcronym(acr) {
			set.add(newCandidate(e, f, s.Name(), s.Tier(), acr, s.cfg.Bases.FirmAcronym))
		}
	}
	return set.cands, nil
}
