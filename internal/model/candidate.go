package model

// Method names the strategy that proposed a candidate.
type Method string

const (
	MethodExactName          Method = "exact_name"
	MethodDomain             Method = "domain"
	MethodTickerAcronym      Method = "ticker_acronym"
	MethodAlternateName      Method = "alternate_name"
	MethodContainedName      Method = "contained_name"
	MethodContainedNameLoose Method = "contained_name_loose"
	MethodFuzzySimilarity    Method = "fuzzy_similarity"
	MethodManualOverride     Method = "manual_override"
)

// AllMethods lists every method in priority order. Earlier methods win
// deduplication ties at equal confidence and tier.
var AllMethods = []Method{
	MethodManualOverride,
	MethodExactName,
	MethodDomain,
	MethodTickerAcronym,
	MethodAlternateName,
	MethodContainedName,
	MethodContainedNameLoose,
	MethodFuzzySimilarity,
}

// Priority returns the method's position in AllMethods (lower is stronger).
// Unknown methods sort last.
func (m Method) Priority() int {
	for i, known := range AllMethods {
		if known == m {
			return i
		}
	}
	return len(AllMethods)
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m.Priority() < len(AllMethods)
}

// Tier is a stage of the linker. Lower tiers carry more trust.
type Tier int

const (
	TierNone       Tier = 0 // unmatched
	TierStructured Tier = 1
	TierFuzzy      Tier = 2
	TierManual     Tier = 3
)

// Signal names.
const (
	SignalCountry           = "country"
	SignalDescriptorOverlap = "descriptor_overlap"
	SignalDomainRoot        = "domain_root"
)

// Signal is an auxiliary agreement check that raises a candidate's confidence.
type Signal struct {
	Name   string  `json:"name"`
	Delta  float64 `json:"delta"`
	Detail string  `json:"detail,omitempty"`
}

// Candidate is a proposed (entity, firm) pairing from one strategy.
type Candidate struct {
	EntityID       string   `json:"entity_id"`
	FirmID         string   `json:"firm_id"`
	Method         Method   `json:"method"`
	Tier           Tier     `json:"tier"`
	MatchedKey     string   `json:"matched_key,omitempty"`
	Similarity     float64  `json:"similarity,omitempty"`
	BaseConfidence float64  `json:"base_confidence"`
	Signals        []Signal `json:"signals,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// Finalize returns a copy of c carrying the given signals and final
// confidence. The receiver is left untouched.
func (c Candidate) Finalize(signals []Signal, confidence float64) Candidate {
	out := c
	if len(signals) > 0 {
		out.Signals = append([]Signal(nil), signals...)
	} else {
		out.Signals = nil
	}
	out.Confidence = confidence
	return out
}

// SignalDelta returns the summed delta of all signals on the candidate.
func (c Candidate) SignalDelta() float64 {
	var sum float64
	for _, s := range c.Signals {
		sum += s.Delta
	}
	return sum
}
