package strategy

import (
	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

// Domain matches on equal normalized web domains.
type Domain struct {
	cfg Config
}

// NewDomain creates a Domain strategy.
func NewDomain(cfg Config) *Domain { return &Domain{cfg: cfg} }

// Name implements Strategy.
func (s *Domain) Name() model.Method { return model.MethodDomain }

// Tier implements Strategy.
func (s *Domain) Tier() model.Tier { return model.TierStructured }

// Match implements Strategy.
func (s *Domain) Match(e *model.Entity, idx *index.Index) ([]model.Candidate, error) {
	d := normalize.Domain(e.Domain)
	if d == "" {
		return nil, nil
	}
	firms := idx.LookupByDomain(d)
	out := make([]model.Candidate, 0, len(firms))
	for _, f := range firms {
		out = append(out, newCandidate(e, f, s.Name(), s.Tier(), d, s.cfg.Bases.Domain))
	}
	return out, nil
}
