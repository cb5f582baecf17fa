package validation

import (
	"math"
	"sort"

	"github.com/sells-group/firmlink/internal/model"
)

// z95 is the normal quantile for a two-sided 95% interval.
const z95 = 1.959963984540054

// Tally counts labels for one slice of the sample.
type Tally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Uncertain int `json:"uncertain"`
	Unlabeled int `json:"unlabeled"`
}

func (t *Tally) add(l model.Label) {
	switch l {
	case model.LabelCorrect:
		t.Correct++
	case model.LabelIncorrect:
		t.Incorrect++
	case model.LabelUncertain:
		t.Uncertain++
	default:
		t.Unlabeled++
	}
}

// Total is the number of sampled rows.
func (t Tally) Total() int { return t.Correct + t.Incorrect + t.Uncertain + t.Unlabeled }

// Decided is the number of rows labeled correct or incorrect.
func (t Tally) Decided() int { return t.Correct + t.Incorrect }

// Accuracy is correct / (correct + incorrect), or 0 with no decided rows.
func (t Tally) Accuracy() float64 {
	if t.Decided() == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Decided())
}

// Wilson returns the 95% Wilson score interval for Accuracy.
func (t Tally) Wilson() (lo, hi float64) {
	n := float64(t.Decided())
	if n == 0 {
		return 0, 0
	}
	p := t.Accuracy()
	z2 := z95 * z95
	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	half := z95 * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom
	return max(center-half, 0), min(center+half, 1)
}

// AccuracyReport summarizes labels overall and per tier, method and
// confidence bucket.
type AccuracyReport struct {
	Overall  Tally                  `json:"overall"`
	ByTier   map[model.Tier]Tally   `json:"by_tier"`
	ByMethod map[model.Method]Tally `json:"by_method"`
	ByBucket map[string]Tally       `json:"by_bucket"`
}

// ComputeAccuracy tallies labeled validation records.
func ComputeAccuracy(records []model.ValidationRecord) AccuracyReport {
	r := AccuracyReport{
		ByTier:   make(map[model.Tier]Tally),
		ByMethod: make(map[model.Method]Tally),
		ByBucket: make(map[string]Tally),
	}
	for _, rec := range records {
		r.Overall.add(rec.Label)

		t := r.ByTier[rec.Match.Tier]
		t.add(rec.Label)
		r.ByTier[rec.Match.Tier] = t

		m := r.ByMethod[rec.Match.Method]
		m.add(rec.Label)
		r.ByMethod[rec.Match.Method] = m

		b := r.ByBucket[Bucket(rec.Match.Confidence)]
		b.add(rec.Label)
		r.ByBucket[Bucket(rec.Match.Confidence)] = b
	}
	return r
}

// Acceptable returns the methods, in priority order, whose measured accuracy
// meets minAccuracy on at least one decided row.
func (r AccuracyReport) Acceptable(minAccuracy float64) []model.Method {
	var out []model.Method
	for m, t := range r.ByMethod {
		if t.Decided() > 0 && t.Accuracy() >= minAccuracy {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

// Methods returns the reported methods in priority order.
func (r AccuracyReport) Methods() []model.Method {
	out := make([]model.Method, 0, len(r.ByMethod))
	for m := range r.ByMethod {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

// Tiers returns the reported tiers in ascending order.
func (r AccuracyReport) Tiers() []model.Tier {
	out := make([]model.Tier, 0, len(r.ByTier))
	for t := range r.ByTier {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
