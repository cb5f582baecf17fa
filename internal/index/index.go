// Package index holds the immutable lookup structures the matching strategies
// query. An Index is built once per run and is safe for concurrent readers.
package index

import (
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

// NameKey is one normalized firm name (legal or alternate) and its tokens.
type NameKey struct {
	Key       string
	Tokens    []string
	Firm      *model.Firm
	Alternate bool
}

// Index maps normalized keys to registry firms. Every lookup returns firms
// deduplicated and ordered by firm id. Returned slices are shared and must not
// be modified.
type Index struct {
	norm *normalize.Normalizer

	firms []*model.Firm
	byID  map[string]*model.Firm

	exact      map[string][]*model.Firm
	expanded   map[string][]*model.Firm
	alternate  map[string][]*model.Firm
	ticker     map[string][]*model.Firm
	acronym    map[string][]*model.Firm
	domain     map[string][]*model.Firm
	rootDomain map[string][]*model.Firm
	letters    map[rune][]*model.Firm
	firstToken map[string][]NameKey
}

// Build indexes firms. Firms are copied, so the caller's records are never
// touched; a firm without a Normalized name gets one from n. Rows without an
// id are skipped, and a repeated id keeps the first row.
func Build(firms []model.Firm, n *normalize.Normalizer) *Index {
	log := zap.L().With(zap.String("component", "index"))
	if n == nil {
		n = normalize.Default()
	}

	idx := &Index{
		norm:       n,
		byID:       make(map[string]*model.Firm, len(firms)),
		exact:      make(map[string][]*model.Firm),
		expanded:   make(map[string][]*model.Firm),
		alternate:  make(map[string][]*model.Firm),
		ticker:     make(map[string][]*model.Firm),
		acronym:    make(map[string][]*model.Firm),
		domain:     make(map[string][]*model.Firm),
		rootDomain: make(map[string][]*model.Firm),
		letters:    make(map[rune][]*model.Firm),
		firstToken: make(map[string][]NameKey),
	}

	for i := range firms {
		f := firms[i]
		if f.ID == "" {
			log.Warn("skipping firm without id", zap.String("legal_name", f.LegalName))
			continue
		}
		if _, dup := idx.byID[f.ID]; dup {
			log.Warn("duplicate firm id, keeping first", zap.String("firm_id", f.ID))
			continue
		}
		if f.Normalized == "" {
			f.Normalized = n.Normalize(f.LegalName)
		}
		f.AltNames = append([]string(nil), f.AltNames...)
		cp := &f
		idx.byID[cp.ID] = cp
		idx.firms = append(idx.firms, cp)
	}

	// Adding firms in id order keeps every posting list sorted and lets
	// appendFirm dedupe by looking at the tail only.
	sort.Slice(idx.firms, func(i, j int) bool { return idx.firms[i].ID < idx.firms[j].ID })
	for _, f := range idx.firms {
		idx.add(f)
	}

	for tok, keys := range idx.firstToken {
		sort.SliceStable(keys, func(i, j int) bool {
			if keys[i].Firm.ID != keys[j].Firm.ID {
				return keys[i].Firm.ID < keys[j].Firm.ID
			}
			return keys[i].Key < keys[j].Key
		})
		idx.firstToken[tok] = keys
	}

	log.Debug("index built",
		zap.Int("firms", len(idx.firms)),
		zap.Int("exact_keys", len(idx.exact)),
		zap.Int("acronym_keys", len(idx.acronym)),
	)
	return idx
}

func (idx *Index) add(f *model.Firm) {
	names := []NameKey{{Key: f.Normalized, Firm: f}}
	for _, alt := range f.AltNames {
		key := idx.norm.Normalize(alt)
		if key == "" {
			continue
		}
		names = append(names, NameKey{Key: key, Firm: f, Alternate: true})
	}

	seenKey := make(map[string]bool, len(names))
	for _, nk := range names {
		if nk.Key == "" {
			continue
		}
		appendFirm(idx.exact, nk.Key, f)
		appendFirm(idx.expanded, normalize.Expand(nk.Key), f)
		if nk.Alternate {
			appendFirm(idx.alternate, nk.Key, f)
		}

		nk.Tokens = normalize.Tokens(nk.Key)
		for _, tok := range nk.Tokens {
			r, _ := utf8.DecodeRuneInString(tok)
			appendLetter(idx.letters, r, f)
		}
		if !seenKey[nk.Key] {
			seenKey[nk.Key] = true
			idx.firstToken[nk.Tokens[0]] = append(idx.firstToken[nk.Tokens[0]], nk)
		}
	}

	if acr := normalize.Acronym(f.Normalized); acr != "" {
		appendFirm(idx.acronym, acr, f)
	}
	if t := normalize.Code(f.Ticker); t != "" {
		appendFirm(idx.ticker, t, f)
	}
	if d := normalize.Domain(f.Domain); d != "" {
		appendFirm(idx.domain, d, f)
		appendFirm(idx.rootDomain, normalize.RootDomain(d), f)
	}
}

func appendFirm(m map[string][]*model.Firm, key string, f *model.Firm) {
	if key == "" {
		return
	}
	list := m[key]
	if n := len(list); n > 0 && list[n-1] == f {
		return
	}
	m[key] = append(list, f)
}

func appendLetter(m map[rune][]*model.Firm, r rune, f *model.Firm) {
	list := m[r]
	if n := len(list); n > 0 && list[n-1] == f {
		return
	}
	m[r] = append(list, f)
}

// Normalizer returns the normalizer the index was built with.
func (idx *Index) Normalizer() *normalize.Normalizer { return idx.norm }

// Len returns the number of indexed firms.
func (idx *Index) Len() int { return len(idx.firms) }

// Firm returns the indexed firm with the given id.
func (idx *Index) Firm(id string) (*model.Firm, bool) {
	f, ok := idx.byID[id]
	return f, ok
}

// Firms returns every indexed firm ordered by id.
func (idx *Index) Firms() []*model.Firm { return idx.firms }

// LookupExact returns firms whose normalized legal or alternate name equals key.
func (idx *Index) LookupExact(key string) []*model.Firm { return idx.exact[key] }

// LookupExpanded returns firms whose abbreviation-expanded legal or alternate
// name equals an expanded key.
func (idx *Index) LookupExpanded(expanded string) []*model.Firm { return idx.expanded[expanded] }

// LookupAlternate returns firms carrying key as a normalized alternate name.
func (idx *Index) LookupAlternate(key string) []*model.Firm { return idx.alternate[key] }

// LookupByTicker returns firms listed under the ticker code.
func (idx *Index) LookupByTicker(code string) []*model.Firm {
	return idx.ticker[normalize.Code(code)]
}

// LookupByAcronym returns firms whose derived legal-name initials equal code.
// Curated acronyms live in the alternate names and are reached through
// LookupAlternate.
func (idx *Index) LookupByAcronym(code string) []*model.Firm {
	return idx.acronym[normalize.Code(code)]
}

// LookupByDomain returns firms whose normalized web domain equals domain.
func (idx *Index) LookupByDomain(domain string) []*model.Firm {
	return idx.domain[normalize.Domain(domain)]
}

// LookupByRootDomain returns firms whose registrable domain equals root.
func (idx *Index) LookupByRootDomain(root string) []*model.Firm {
	return idx.rootDomain[strings.ToLower(strings.TrimSpace(root))]
}

// FirmsByLetter returns firms with at least one name token starting with
// letter. It is the candidate pool for similarity scans.
func (idx *Index) FirmsByLetter(letter rune) []*model.Firm { return idx.letters[letter] }

// KeysByFirstToken returns every firm name key whose first token is tok.
func (idx *Index) KeysByFirstToken(tok string) []NameKey { return idx.firstToken[tok] }
