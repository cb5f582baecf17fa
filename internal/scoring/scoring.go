// Package scoring turns a strategy's base confidence and the cross-validation
// signals into the final calibrated confidence.
package scoring

import "github.com/sells-group/firmlink/internal/model"

const (
	// ManualConfidence is assigned to curated tier-3 overrides.
	ManualConfidence = 0.99

	// AutomatedCap bounds every automated score strictly below
	// ManualConfidence.
	AutomatedCap = 0.985
)

// Scorer applies the confidence formula and the acceptance floor.
type Scorer struct {
	minConfidence float64
}

// New creates a Scorer that accepts confidences at or above minConfidence.
func New(minConfidence float64) *Scorer {
	return &Scorer{minConfidence: minConfidence}
}

// Score returns clamp(base + Σ signal deltas, 0, AutomatedCap).
func (s *Scorer) Score(base float64, signals []model.Signal) float64 {
	v := base
	for _, sig := range signals {
		v += sig.Delta
	}
	return Clamp(v, 0, AutomatedCap)
}

// Accept reports whether a final confidence clears the floor.
func (s *Scorer) Accept(confidence float64) bool {
	return confidence >= s.minConfidence
}

// MinConfidence returns the acceptance floor.
func (s *Scorer) MinConfidence() float64 { return s.minConfidence }

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
