package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

func testFirms() []model.Firm {
	return []model.Firm{
		{ID: "F3", LegalName: "International Business Machines Corp", Ticker: "IBM", AltNames: []string{"IBM"}, Domain: "https://www.ibm.com/us-en", Country: "US"},
		{ID: "F1", LegalName: "Microsoft Corporation", Ticker: "MSFT", Domain: "microsoft.com", Country: "US"},
		{ID: "F2", LegalName: "Google LLC", AltNames: []string{"Alphabet Inc"}, Ticker: "GOOGL", Domain: "research.google.co.uk", Country: "US"},
		{ID: "F4", LegalName: "Natl Semiconductor Corp", Country: "US"},
	}
}

func names(firms []*model.Firm) []string {
	out := make([]string, 0, len(firms))
	for _, f := range firms {
		out = append(out, f.ID)
	}
	return out
}

func TestBuild_CopiesAndNormalizes(t *testing.T) {
	in := testFirms()
	idx := Build(in, normalize.Default())

	assert.Equal(t, 4, idx.Len())
	assert.Empty(t, in[0].Normalized, "input firm must not be mutated")

	f, ok := idx.Firm("F1")
	require.True(t, ok)
	assert.Equal(t, "MICROSOFT", f.Normalized)

	_, ok = idx.Firm("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"F1", "F2", "F3", "F4"}, names(idx.Firms()))
}

func TestBuild_SkipsEmptyAndDuplicateIDs(t *testing.T) {
	idx := Build([]model.Firm{
		{ID: "", LegalName: "Nameless"},
		{ID: "A", LegalName: "First"},
		{ID: "A", LegalName: "Second"},
	}, nil)

	assert.Equal(t, 1, idx.Len())
	f, _ := idx.Firm("A")
	assert.Equal(t, "FIRST", f.Normalized)
}

func TestLookupExact_LegalAndAlternate(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	assert.Equal(t, []string{"F1"}, names(idx.LookupExact("MICROSOFT")))
	assert.Equal(t, []string{"F2"}, names(idx.LookupExact("ALPHABET")))
	assert.Empty(t, idx.LookupExact("MICRO"))
}

func TestLookupAlternate_OnlyAlternates(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	assert.Equal(t, []string{"F2"}, names(idx.LookupAlternate("ALPHABET")))
	assert.Empty(t, idx.LookupAlternate("GOOGLE"))
}

func TestLookupExpanded(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())
	assert.Equal(t, []string{"F4"}, names(idx.LookupExpanded("NATIONAL SEMICONDUCTOR")))
}

func TestLookupByTickerAndAcronym(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	assert.Equal(t, []string{"F3"}, names(idx.LookupByTicker("ibm")))
	assert.Equal(t, []string{"F1"}, names(idx.LookupByTicker("MSFT")))
	assert.Equal(t, []string{"F3"}, names(idx.LookupByAcronym("IBM")))
	assert.Equal(t, []string{"F4"}, names(idx.LookupByAcronym("NS")))
	assert.Empty(t, idx.LookupByAcronym("XYZ"))
	assert.Equal(t, []string{"F3"}, names(idx.LookupAlternate("IBM")))
}

func TestLookupByDomain(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	assert.Equal(t, []string{"F3"}, names(idx.LookupByDomain("http://ibm.com/")))
	assert.Equal(t, []string{"F2"}, names(idx.LookupByRootDomain("google.co.uk")))
	assert.Empty(t, idx.LookupByDomain(""))
}

func TestFirmsByLetter(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	// "ALPHABET" gives F2 an A-bucket entry alongside its G-bucket one.
	assert.Equal(t, []string{"F2"}, names(idx.FirmsByLetter('A')))
	assert.Equal(t, []string{"F2"}, names(idx.FirmsByLetter('G')))
	assert.Equal(t, []string{"F3"}, names(idx.FirmsByLetter('B')))
	assert.Empty(t, idx.FirmsByLetter('Z'))
}

func TestKeysByFirstToken(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	keys := idx.KeysByFirstToken("GOOGLE")
	require.Len(t, keys, 1)
	assert.Equal(t, "GOOGLE", keys[0].Key)
	assert.Equal(t, []string{"GOOGLE"}, keys[0].Tokens)
	assert.Equal(t, "F2", keys[0].Firm.ID)
	assert.False(t, keys[0].Alternate)

	alt := idx.KeysByFirstToken("ALPHABET")
	require.Len(t, alt, 1)
	assert.True(t, alt[0].Alternate)
}

func TestLookups_OrderedAndDeduplicated(t *testing.T) {
	idx := Build([]model.Firm{
		{ID: "B", LegalName: "Acme Corp", AltNames: []string{"ACME", "Acme Inc"}},
		{ID: "A", LegalName: "Acme Ltd"},
	}, normalize.Default())

	assert.Equal(t, []string{"A", "B"}, names(idx.LookupExact("ACME")))
	assert.Len(t, idx.KeysByFirstToken("ACME"), 2)
}

func TestIndex_ConcurrentReaders(t *testing.T) {
	idx := Build(testFirms(), normalize.Default())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, idx.LookupExact("MICROSOFT"), 1)
			assert.NotEmpty(t, idx.FirmsByLetter('M'))
		}()
	}
	wg.Wait()
}
