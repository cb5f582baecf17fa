package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/fetcher"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

var firmAliases = map[string]string{
	"id":           "firm_id",
	"gvkey":        "firm_id",
	"name":         "legal_name",
	"conm":         "legal_name",
	"tic":          "ticker",
	"country":      "country_code",
	"loc":          "country_code",
	"weburl":       "domain",
	"website":      "domain",
	"sic_desc":     "descriptor",
	"industry":     "descriptor",
	"alt_names":    "alternate_names",
	"former_names": "alternate_names",
}

// ReadFirms loads the registry table (CSV, TSV or XLSX). Rows without an id or
// legal name are skipped.
func ReadFirms(ctx context.Context, path string, n *normalize.Normalizer) ([]model.Firm, Stats, error) {
	if n == nil {
		n = normalize.Default()
	}
	var out []model.Firm
	st, err := readTable(ctx, path, "ingest.firms", firmAliases, []string{"firm_id", "legal_name"},
		func(h header, row fetcher.Row) bool {
			f := model.Firm{
				ID:         h.get(row.Fields, "firm_id"),
				LegalName:  h.get(row.Fields, "legal_name"),
				Ticker:     strings.ToUpper(h.get(row.Fields, "ticker")),
				AltNames:   h.list(row.Fields, "alternate_names"),
				Domain:     normalize.Domain(h.get(row.Fields, "domain")),
				Country:    strings.ToUpper(h.get(row.Fields, "country_code")),
				Descriptor: h.get(row.Fields, "descriptor"),
			}
			if f.ID == "" || f.LegalName == "" {
				zap.L().Warn("skipping firm row without id or legal name",
					zap.String("path", path),
					zap.Int("line", row.Line),
				)
				return false
			}
			f.Normalized = n.Normalize(f.LegalName)
			out = append(out, f)
			return true
		})
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
