// Package validation draws reproducible review samples from a match table and
// measures empirical accuracy from the labels reviewers assign.
package validation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/sells-group/firmlink/internal/model"
)

// Confidence bucket labels, lowest first.
const (
	BucketBelow90 = "<0.90"
	Bucket90to94  = "0.90-0.94"
	Bucket94to96  = "0.94-0.96"
	Bucket96to98  = "0.96-0.98"
	BucketAbove98 = ">=0.98"
)

// Buckets lists every confidence bucket in ascending order.
var Buckets = []string{BucketBelow90, Bucket90to94, Bucket94to96, Bucket96to98, BucketAbove98}

// Bucket maps a confidence to its bucket label.
func Bucket(conf float64) string {
	switch {
	case conf >= 0.98:
		return BucketAbove98
	case conf >= 0.96:
		return Bucket96to98
	case conf >= 0.94:
		return Bucket94to96
	case conf >= 0.90:
		return Bucket90to94
	default:
		return BucketBelow90
	}
}

// Stratum is the "tier|method|bucket" key a match is sampled under.
func Stratum(m model.Match) string {
	return fmt.Sprintf("%d|%s|%s", m.Tier, m.Method, Bucket(m.Confidence))
}

// Sampler draws validation samples.
type Sampler struct {
	stratify      bool
	minPerStratum int
}

// NewSampler creates a Sampler. With stratify set, the sample is allocated
// proportionally across strata with at least minPerStratum rows from each
// stratum that has that many.
func NewSampler(stratify bool, minPerStratum int) *Sampler {
	return &Sampler{stratify: stratify, minPerStratum: max(minPerStratum, 0)}
}

// Sample draws up to size matched rows without replacement. The same matches,
// size and seed always produce the same sample regardless of input order.
// Stratified samples can exceed size by the per-stratum minimums.
func (s *Sampler) Sample(matches []model.Match, size int, seed uint64) []model.ValidationRecord {
	if size <= 0 {
		return nil
	}
	pool := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if m.Matched() {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].EntityID < pool[j].EntityID })

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var picked []model.Match
	if s.stratify {
		picked = s.stratified(pool, size, rng)
	} else {
		picked = draw(pool, size, rng)
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].EntityID < picked[j].EntityID })
	out := make([]model.ValidationRecord, len(picked))
	for i, m := range picked {
		out[i] = model.ValidationRecord{
			Index:   i,
			Stratum: Stratum(m),
			Match:   m,
			Label:   model.LabelUnlabeled,
		}
	}
	return out
}

// draw picks n rows uniformly without replacement.
func draw(pool []model.Match, n int, rng *rand.Rand) []model.Match {
	if n >= len(pool) {
		return append([]model.Match(nil), pool...)
	}
	perm := rng.Perm(len(pool))
	out := make([]model.Match, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

func (s *Sampler) stratified(pool []model.Match, size int, rng *rand.Rand) []model.Match {
	strata := make(map[string][]model.Match)
	for _, m := range pool {
		k := Stratum(m)
		strata[k] = append(strata[k], m)
	}
	keys := make([]string, 0, len(strata))
	for k := range strata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	quota := allocate(keys, strata, len(pool), size, s.minPerStratum)

	var out []model.Match
	for _, k := range keys {
		out = append(out, draw(strata[k], quota[k], rng)...)
	}
	return out
}

// allocate splits size across strata by largest remainder, then raises each
// stratum to the minimum it can supply.
func allocate(keys []string, strata map[string][]model.Match, total, size, minPer int) map[string]int {
	if size > total {
		size = total
	}
	quota := make(map[string]int, len(keys))
	type rem struct {
		key  string
		frac float64
	}
	rems := make([]rem, 0, len(keys))
	assigned := 0
	for _, k := range keys {
		exact := float64(size) * float64(len(strata[k])) / float64(total)
		q := int(math.Floor(exact))
		quota[k] = q
		assigned += q
		rems = append(rems, rem{key: k, frac: exact - float64(q)})
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < size && i < len(rems); i++ {
		quota[rems[i].key]++
		assigned++
	}
	for _, k := range keys {
		floor := min(minPer, len(strata[k]))
		if quota[k] < floor {
			quota[k] = floor
		}
	}
	return quota
}
