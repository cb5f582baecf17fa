// Package linker drives the matching strategies tier by tier over the entities
// that remain unmatched, finalizes every candidate through cross-validation
// and scoring, and deduplicates the pool into the match table.
package linker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/firmlink/internal/config"
	"github.com/sells-group/firmlink/internal/crossval"
	"github.com/sells-group/firmlink/internal/dedupe"
	"github.com/sells-group/firmlink/internal/index"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/scoring"
	"github.com/sells-group/firmlink/internal/similarity"
	"github.com/sells-group/firmlink/internal/strategy"
)

// Linker resolves entities against one immutable index.
type Linker struct {
	idx        *index.Index
	cfg        config.MatchConfig
	strategies []strategy.Strategy
	validator  *crossval.Validator
	scorer     *scoring.Scorer
	dedup      *dedupe.Deduplicator
	overrides  map[string]model.Override
}

// Option customizes a Linker.
type Option func(*Linker)

// WithOverrides installs the tier-3 manual mapping table. Later rows for the
// same entity replace earlier ones.
func WithOverrides(ovs []model.Override) Option {
	return func(l *Linker) {
		for _, o := range ovs {
			if o.EntityID == "" || o.FirmID == "" {
				continue
			}
			l.overrides[o.EntityID] = o
		}
	}
}

// WithStrategies replaces the configured strategy set.
func WithStrategies(s ...strategy.Strategy) Option {
	return func(l *Linker) { l.strategies = s }
}

// WithValidator replaces the default cross-validator.
func WithValidator(v *crossval.Validator) Option {
	return func(l *Linker) { l.validator = v }
}

// New creates a Linker. An invalid configuration is an error, so a
// miscalibrated run never starts.
func New(idx *index.Index, cfg config.MatchConfig, opts ...Option) (*Linker, error) {
	if idx == nil {
		return nil, eris.New("linker: nil index")
	}
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "linker: invalid match config")
	}
	sim, err := similarity.Lookup(cfg.Similarity)
	if err != nil {
		return nil, eris.Wrap(err, "linker: similarity")
	}

	scfg := strategy.Config{
		MinAcronymLength:       cfg.MinAcronymLength,
		MinContainedNameLength: cfg.MinContainedNameLength,
		MinCommonWordLength:    cfg.MinCommonWordLength,
		FuzzyThreshold:         cfg.FuzzySimilarityThreshold,
		Similarity:             sim,
		Bases:                  strategy.DefaultBases(),
	}
	strategies, err := strategy.Select(scfg, cfg.DisabledStrategies)
	if err != nil {
		return nil, eris.Wrap(err, "linker: strategies")
	}

	l := &Linker{
		idx:        idx,
		cfg:        cfg,
		strategies: strategies,
		validator:  crossval.New(crossval.DefaultDeltas()),
		scorer:     scoring.New(cfg.MinConfidence),
		dedup:      dedupe.New(cfg.MinConfidence, cfg.AmbiguityEpsilon),
		overrides:  make(map[string]model.Override),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Stats summarizes one run.
type Stats struct {
	Entities           int                  `json:"entities"`
	Matched            int                  `json:"matched"`
	Ambiguous          int                  `json:"ambiguous"`
	MatchedByTier      map[model.Tier]int   `json:"matched_by_tier"`
	MatchedByMethod    map[model.Method]int `json:"matched_by_method"`
	CandidatesByMethod map[model.Method]int `json:"candidates_by_method"`
	Failures           int64                `json:"failures"`
	Duration           time.Duration        `json:"duration"`
}

// Result is the output of Run.
type Result struct {
	// Matches holds exactly one row per distinct entity id, in input order.
	Matches []model.Match
	// Candidates is the finalized pool the matches were resolved from.
	Candidates []model.Candidate
	Stats      Stats
}

// Run links entities. Tiers are strict barriers: tier 2 only sees entities
// with no surviving tier-1 candidate and tier 3 only those still unmatched.
// A failing strategy affects only the entity it failed on. The only error
// returned is context cancellation.
func (l *Linker) Run(ctx context.Context, entities []model.Entity) (*Result, error) {
	log := zap.L().With(zap.String("component", "linker"))
	start := time.Now()

	// One slot per distinct entity; repeated ids keep the first row.
	seen := make(map[string]bool, len(entities))
	var work []int
	for i := range entities {
		id := entities[i].ID
		if seen[id] {
			log.Warn("duplicate entity id, keeping first", zap.String("entity_id", id))
			continue
		}
		seen[id] = true
		work = append(work, i)
	}
	slots := make([][]model.Candidate, len(entities))
	proposed := make([][]string, len(entities))

	var failures atomic.Int64
	st := &tierRun{l: l, entities: entities, slots: slots, proposed: proposed, failures: &failures}

	log.Info("tier 1 start", zap.Int("entities", len(work)))
	if err := st.run(ctx, model.TierStructured, work, nil); err != nil {
		return nil, err
	}

	remaining := unmatched(work, slots)
	saturated := l.saturatedFirms(proposed)
	log.Info("tier 2 start",
		zap.Int("entities", len(remaining)),
		zap.Int("saturated_firms", len(saturated)),
	)
	if err := st.run(ctx, model.TierFuzzy, remaining, saturated); err != nil {
		return nil, err
	}

	remaining = unmatched(remaining, slots)
	log.Info("tier 3 start", zap.Int("entities", len(remaining)), zap.Int("overrides", len(l.overrides)))
	l.applyOverrides(entities, remaining, slots)

	var pool []model.Candidate
	for _, i := range work {
		pool = append(pool, slots[i]...)
	}
	matches := dedupe.Complete(entities, l.dedup.Deduplicate(pool))

	res := &Result{
		Matches:    matches,
		Candidates: pool,
		Stats:      summarize(matches, pool, failures.Load(), time.Since(start)),
	}
	log.Info("link complete",
		zap.Int("entities", res.Stats.Entities),
		zap.Int("matched", res.Stats.Matched),
		zap.Int("ambiguous", res.Stats.Ambiguous),
		zap.Int64("failures", res.Stats.Failures),
		zap.Duration("duration", res.Stats.Duration),
	)
	return res, nil
}

// unmatched returns the positions whose slot is still empty.
func unmatched(positions []int, slots [][]model.Candidate) []int {
	var out []int
	for _, i := range positions {
		if len(slots[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// saturatedFirms returns firms proposed by tier-1 strategies for at least
// Tier2Saturation distinct entities. Proposals are counted before signals and
// the acceptance floor, so the set does not shrink as min_confidence rises.
// Zero disables the check.
func (l *Linker) saturatedFirms(proposed [][]string) map[string]bool {
	if l.cfg.Tier2Saturation <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, firms := range proposed {
		for _, id := range firms {
			counts[id]++
		}
	}
	out := make(map[string]bool)
	for id, n := range counts {
		if n >= l.cfg.Tier2Saturation {
			out[id] = true
		}
	}
	return out
}

func (l *Linker) applyOverrides(entities []model.Entity, positions []int, slots [][]model.Candidate) {
	if len(l.overrides) == 0 {
		return
	}
	log := zap.L().With(zap.String("component", "linker"))
	for _, i := range positions {
		e := entities[i]
		o, ok := l.overrides[e.ID]
		if !ok {
			continue
		}
		if _, ok := l.idx.Firm(o.FirmID); !ok {
			log.Warn("override names unknown firm, skipping",
				zap.String("entity_id", e.ID),
				zap.String("firm_id", o.FirmID),
			)
			continue
		}
		c := model.Candidate{
			EntityID:       e.ID,
			FirmID:         o.FirmID,
			Method:         model.MethodManualOverride,
			Tier:           model.TierManual,
			MatchedKey:     o.Note,
			BaseConfidence: scoring.ManualConfidence,
		}
		slots[i] = []model.Candidate{c.Finalize(nil, scoring.ManualConfidence)}
	}
}

func summarize(matches []model.Match, pool []model.Candidate, failures int64, d time.Duration) Stats {
	st := Stats{
		Entities:           len(matches),
		MatchedByTier:      make(map[model.Tier]int),
		MatchedByMethod:    make(map[model.Method]int),
		CandidatesByMethod: make(map[model.Method]int),
		Failures:           failures,
		Duration:           d,
	}
	for _, m := range matches {
		if !m.Matched() {
			continue
		}
		st.Matched++
		st.MatchedByTier[m.Tier]++
		st.MatchedByMethod[m.Method]++
		if m.Ambiguous {
			st.Ambiguous++
		}
	}
	for _, c := range pool {
		st.CandidatesByMethod[c.Method]++
	}
	return st
}

// tierRun carries the shared state of one Run across tiers.
type tierRun struct {
	l        *Linker
	entities []model.Entity
	slots    [][]model.Candidate
	proposed [][]string // distinct firm ids raw tier-1 candidates named
	failures *atomic.Int64
}

func (t *tierRun) run(ctx context.Context, tier model.Tier, positions []int, saturated map[string]bool) error {
	var strategies []strategy.Strategy
	for _, s := range t.l.strategies {
		if s.Tier() == tier {
			strategies = append(strategies, s)
		}
	}
	if len(strategies) == 0 || len(positions) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.l.cfg.Workers, 1))

	for _, i := range positions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cands, firms := t.l.matchEntity(&t.entities[i], tier, strategies, saturated, t.failures)
			t.slots[i] = cands
			if tier == model.TierStructured {
				t.proposed[i] = firms
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrapf(err, "linker: tier %d", tier)
	}
	return nil
}

// matchEntity runs the tier's strategies for one entity and returns the
// finalized candidates that clear the acceptance floor, plus the distinct
// firms the raw candidates named.
func (l *Linker) matchEntity(e *model.Entity, tier model.Tier, strategies []strategy.Strategy, saturated map[string]bool, failures *atomic.Int64) ([]model.Candidate, []string) {
	var (
		out   []model.Candidate
		firms []string
		seen  = make(map[string]bool)
	)
	for _, s := range strategies {
		raw, err := safeMatch(s, e, l.idx)
		if err != nil {
			failures.Add(1)
			zap.L().Warn("strategy failed for entity",
				zap.String("component", "linker"),
				zap.String("strategy", string(s.Name())),
				zap.String("entity_id", e.ID),
				zap.Error(err),
			)
			continue
		}
		for _, c := range raw {
			if !seen[c.FirmID] {
				seen[c.FirmID] = true
				firms = append(firms, c.FirmID)
			}
			if saturated[c.FirmID] {
				continue
			}
			f, ok := l.idx.Firm(c.FirmID)
			if !ok {
				continue
			}
			signals := l.validator.Validate(c, e, f)
			if tier == model.TierFuzzy && len(signals) == 0 {
				continue
			}
			conf := l.scorer.Score(c.BaseConfidence, signals)
			if !l.scorer.Accept(conf) {
				continue
			}
			out = append(out, c.Finalize(signals, conf))
		}
	}
	return out, firms
}

// safeMatch converts a strategy panic into an error.
func safeMatch(s strategy.Strategy, e *model.Entity, idx *index.Index) (cands []model.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands = nil
			err = eris.Errorf("linker: strategy %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Match(e, idx)
}
