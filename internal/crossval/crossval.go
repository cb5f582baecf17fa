// Package crossval computes the independent agreement signals that raise a
// candidate's confidence. Signals only ever add; disagreement is not scored.
package crossval

import (
	"sort"
	"strings"

	"github.com/bbalet/stopwords"

	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

// Deltas are the confidence increments per signal.
type Deltas struct {
	Country          float64
	DescriptorSingle float64
	DescriptorMulti  float64
	DomainRoot       float64
}

// DefaultDeltas returns the calibrated signal increments.
func DefaultDeltas() Deltas {
	return Deltas{
		Country:          0.02,
		DescriptorSingle: 0.01,
		DescriptorMulti:  0.03,
		DomainRoot:       0.01,
	}
}

// genericWords carry no industry information in a business descriptor.
var genericWords = map[string]bool{
	"COMPANY": true, "COMPANIES": true, "CORPORATION": true, "CORP": true,
	"INC": true, "LTD": true, "LLC": true, "GROUP": true, "GROUPS": true,
	"HOLDING": true, "HOLDINGS": true, "INTERNATIONAL": true, "GLOBAL": true,
	"SERVICE": true, "SERVICES": true, "PRODUCT": true, "PRODUCTS": true,
	"SOLUTION": true, "SOLUTIONS": true, "INDUSTRY": true, "INDUSTRIES": true,
	"BUSINESS": true, "ENTERPRISE": true, "ENTERPRISES": true, "GENERAL": true,
	"OTHER": true, "MISC": true, "MISCELLANEOUS": true, "RELATED": true,
	"NEC": true, "VARIOUS": true, "MANAGEMENT": true, "DIVISION": true,
}

// Validator derives signals for a candidate pair. It is stateless and safe
// for concurrent use.
type Validator struct {
	deltas Deltas
}

// New creates a Validator with the given deltas.
func New(d Deltas) *Validator {
	return &Validator{deltas: d}
}

// Validate returns the signals that fire for the entity/firm pair behind c.
// The result is nil when nothing agrees.
func (v *Validator) Validate(c model.Candidate, e *model.Entity, f *model.Firm) []model.Signal {
	if e == nil || f == nil {
		return nil
	}
	var out []model.Signal

	if ec, fc := countryCode(e.Country), countryCode(f.Country); ec != "" && ec == fc {
		out = append(out, model.Signal{Name: model.SignalCountry, Delta: v.deltas.Country, Detail: ec})
	}

	if shared := SharedKeywords(e.Descriptor, f.Descriptor); len(shared) > 0 {
		delta := v.deltas.DescriptorSingle
		if len(shared) >= 2 {
			delta = v.deltas.DescriptorMulti
		}
		out = append(out, model.Signal{
			Name:   model.SignalDescriptorOverlap,
			Delta:  delta,
			Detail: strings.Join(shared, ","),
		})
	}

	if e.Domain != "" && f.Domain != "" {
		if er, fr := normalize.RootDomain(e.Domain), normalize.RootDomain(f.Domain); er != "" && er == fr {
			out = append(out, model.Signal{Name: model.SignalDomainRoot, Delta: v.deltas.DomainRoot, Detail: er})
		}
	}
	return out
}

func countryCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Keywords returns the informative tokens of a descriptor: English stop words,
// generic business words and tokens shorter than three letters are dropped.
func Keywords(descriptor string) map[string]bool {
	if strings.TrimSpace(descriptor) == "" {
		return nil
	}
	cleaned := stopwords.CleanString(descriptor, "en", false)
	out := make(map[string]bool)
	for _, tok := range strings.Fields(cleaned) {
		tok = normalize.Code(tok)
		if len(tok) < 3 || genericWords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

// SharedKeywords returns the sorted keywords two descriptors have in common.
func SharedKeywords(a, b string) []string {
	ka, kb := Keywords(a), Keywords(b)
	if len(ka) == 0 || len(kb) == 0 {
		return nil
	}
	var shared []string
	for k := range ka {
		if kb[k] {
			shared = append(shared, k)
		}
	}
	sort.Strings(shared)
	return shared
}
