package normalize

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Domain strips scheme, credentials, "www." prefix, port, path and query
// from a URL or host and lowercases the result.
func Domain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return strings.Trim(d, ".")
}

// RootDomain returns the registrable domain (eTLD+1) of a URL or host, so
// "research.ibm.com" and "ibm.com" share the root "ibm.com". Hosts without a
// registrable part (bare TLDs, IPs) fall back to the normalized domain.
func RootDomain(raw string) string {
	d := Domain(raw)
	if d == "" {
		return ""
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(d)
	if err != nil || root == "" {
		return d
	}
	return root
}
