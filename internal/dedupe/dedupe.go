// Package dedupe collapses the candidate pool into exactly one match row per
// entity.
package dedupe

import (
	"math"
	"sort"

	"github.com/sells-group/firmlink/internal/model"
)

// tieTolerance absorbs float error in confidence gaps, so 0.985-0.98 counts as
// exactly 0.005.
const tieTolerance = 1e-9

// Deduplicator resolves candidates to matches.
type Deduplicator struct {
	minConfidence float64
	epsilon       float64
}

// New creates a Deduplicator. Candidates below minConfidence are dropped and
// two firms whose confidences differ by at most epsilon are indistinguishable.
func New(minConfidence, epsilon float64) *Deduplicator {
	return &Deduplicator{minConfidence: minConfidence, epsilon: epsilon}
}

// Deduplicate groups candidates by entity and returns one Match per entity id
// seen in cands, ordered by entity id. An entity whose candidates all fall
// below the floor gets an unmatched row.
func (d *Deduplicator) Deduplicate(cands []model.Candidate) []model.Match {
	groups := make(map[string][]model.Candidate)
	for _, c := range cands {
		groups[c.EntityID] = append(groups[c.EntityID], c)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.Match, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.resolve(id, groups[id]))
	}
	return out
}

func (d *Deduplicator) resolve(entityID string, cands []model.Candidate) model.Match {
	// Best candidate per firm.
	perFirm := make(map[string]model.Candidate)
	for _, c := range cands {
		if c.Confidence < d.minConfidence || c.FirmID == "" {
			continue
		}
		if cur, ok := perFirm[c.FirmID]; !ok || Better(c, cur) {
			perFirm[c.FirmID] = c
		}
	}
	if len(perFirm) == 0 {
		return model.Unmatched(entityID)
	}

	ranked := make([]model.Candidate, 0, len(perFirm))
	for _, c := range perFirm {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool { return Better(ranked[i], ranked[j]) })

	top := ranked[0]
	m := model.Match{
		EntityID:       entityID,
		FirmID:         top.FirmID,
		Confidence:     top.Confidence,
		Method:         top.Method,
		Tier:           top.Tier,
		MatchedKey:     top.MatchedKey,
		CandidateCount: len(ranked),
	}
	if len(ranked) > 1 && d.tied(top.Confidence, ranked[1].Confidence) {
		m.Ambiguous = true
		m.RunnerUpFirmID = ranked[1].FirmID
	}
	return m
}

// tied reports whether two confidences are within epsilon of each other.
func (d *Deduplicator) tied(a, b float64) bool {
	return math.Abs(a-b) <= d.epsilon+tieTolerance
}

// Better reports whether a outranks b: higher confidence, then earlier tier,
// then stronger method, then lower firm id.
func Better(a, b model.Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	if pa, pb := a.Method.Priority(), b.Method.Priority(); pa != pb {
		return pa < pb
	}
	return a.FirmID < b.FirmID
}

// Complete returns one row per entity in input order, taking the row from
// matches where present and an unmatched row otherwise. Repeated entity ids
// keep their first position; matches for unknown entities are dropped.
func Complete(entities []model.Entity, matches []model.Match) []model.Match {
	byID := make(map[string]model.Match, len(matches))
	for _, m := range matches {
		if _, ok := byID[m.EntityID]; !ok {
			byID[m.EntityID] = m
		}
	}

	seen := make(map[string]bool, len(entities))
	out := make([]model.Match, 0, len(entities))
	for _, e := range entities {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if m, ok := byID[e.ID]; ok {
			out = append(out, m)
			continue
		}
		out = append(out, model.Unmatched(e.ID))
	}
	return out
}
