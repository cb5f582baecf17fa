package crossval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
)

func signalByName(sigs []model.Signal, name string) (model.Signal, bool) {
	for _, s := range sigs {
		if s.Name == name {
			return s, true
		}
	}
	return model.Signal{}, false
}

func TestValidate_Country(t *testing.T) {
	v := New(DefaultDeltas())
	sigs := v.Validate(model.Candidate{}, &model.Entity{Country: "ie "}, &model.Firm{Country: "IE"})

	s, ok := signalByName(sigs, model.SignalCountry)
	require.True(t, ok)
	assert.InDelta(t, 0.02, s.Delta, 1e-9)
	assert.Equal(t, "IE", s.Detail)
}

func TestValidate_CountryMissingOrDifferent(t *testing.T) {
	v := New(DefaultDeltas())
	assert.Empty(t, v.Validate(model.Candidate{}, &model.Entity{Country: "US"}, &model.Firm{Country: "GB"}))
	assert.Empty(t, v.Validate(model.Candidate{}, &model.Entity{}, &model.Firm{}))
}

func TestValidate_DescriptorOverlap(t *testing.T) {
	v := New(DefaultDeltas())

	sigs := v.Validate(model.Candidate{},
		&model.Entity{Descriptor: "Research on semiconductor devices"},
		&model.Firm{Descriptor: "Semiconductor manufacturing"},
	)
	s, ok := signalByName(sigs, model.SignalDescriptorOverlap)
	require.True(t, ok)
	assert.InDelta(t, 0.01, s.Delta, 1e-9)
	assert.Equal(t, "SEMICONDUCTOR", s.Detail)

	sigs = v.Validate(model.Candidate{},
		&model.Entity{Descriptor: "pharmaceutical preparations and specialty generics"},
		&model.Firm{Descriptor: "Pharmaceutical Preparations"},
	)
	s, ok = signalByName(sigs, model.SignalDescriptorOverlap)
	require.True(t, ok)
	assert.InDelta(t, 0.03, s.Delta, 1e-9)
	assert.Equal(t, "PHARMACEUTICAL,PREPARATIONS", s.Detail)
}

func TestValidate_GenericWordsIgnored(t *testing.T) {
	v := New(DefaultDeltas())
	sigs := v.Validate(model.Candidate{},
		&model.Entity{Descriptor: "services and products for the group"},
		&model.Firm{Descriptor: "Holdings, services, products"},
	)
	_, ok := signalByName(sigs, model.SignalDescriptorOverlap)
	assert.False(t, ok)
}

func TestValidate_DomainRoot(t *testing.T) {
	v := New(DefaultDeltas())
	sigs := v.Validate(model.Candidate{},
		&model.Entity{Domain: "https://research.ibm.com"},
		&model.Firm{Domain: "www.ibm.com"},
	)
	s, ok := signalByName(sigs, model.SignalDomainRoot)
	require.True(t, ok)
	assert.Equal(t, "ibm.com", s.Detail)
	assert.InDelta(t, 0.01, s.Delta, 1e-9)

	assert.Empty(t, v.Validate(model.Candidate{}, &model.Entity{Domain: "ibm.com"}, &model.Firm{}))
}

func TestValidate_AllSignalsNonNegative(t *testing.T) {
	v := New(DefaultDeltas())
	sigs := v.Validate(model.Candidate{},
		&model.Entity{Country: "US", Domain: "a.acme.com", Descriptor: "rocket engines propulsion"},
		&model.Firm{Country: "US", Domain: "acme.com", Descriptor: "rocket propulsion systems"},
	)
	require.Len(t, sigs, 3)
	for _, s := range sigs {
		assert.GreaterOrEqual(t, s.Delta, 0.0)
	}
}

func TestValidate_NilSides(t *testing.T) {
	v := New(DefaultDeltas())
	assert.Nil(t, v.Validate(model.Candidate{}, nil, &model.Firm{}))
	assert.Nil(t, v.Validate(model.Candidate{}, &model.Entity{}, nil))
}

func TestKeywords(t *testing.T) {
	kw := Keywords("The manufacturing of electronic components")
	assert.True(t, kw["MANUFACTURING"])
	assert.True(t, kw["ELECTRONIC"])
	assert.True(t, kw["COMPONENTS"])
	assert.False(t, kw["THE"])
	assert.Nil(t, Keywords("  "))
}
