package ingest

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/fetcher"
	"github.com/sells-group/firmlink/internal/model"
	"github.com/sells-group/firmlink/internal/normalize"
)

var entityAliases = map[string]string{
	"id":           "entity_id",
	"name":         "display_name",
	"organization": "display_name",
	"country":      "country_code",
	"website":      "domain",
	"url":          "domain",
	"count":        "volume",
}

// ReadEntities loads an entity table (CSV, TSV or XLSX). Rows without an id
// or display name are skipped.
func ReadEntities(ctx context.Context, path string, n *normalize.Normalizer) ([]model.Entity, Stats, error) {
	if n == nil {
		n = normalize.Default()
	}
	var out []model.Entity
	st, err := readTable(ctx, path, "ingest.entities", entityAliases, []string{"entity_id", "display_name"},
		func(h header, row fetcher.Row) bool {
			e := model.Entity{
				ID:         h.get(row.Fields, "entity_id"),
				Source:     strings.ToLower(h.get(row.Fields, "source")),
				Name:       h.get(row.Fields, "display_name"),
				AltNames:   h.list(row.Fields, "alternate_names"),
				Domain:     normalize.Domain(h.get(row.Fields, "domain")),
				Country:    strings.ToUpper(h.get(row.Fields, "country_code")),
				Descriptor: h.get(row.Fields, "descriptor"),
			}
			if e.ID == "" || e.Name == "" {
				zap.L().Warn("skipping entity row without id or name",
					zap.String("path", path),
					zap.Int("line", row.Line),
				)
				return false
			}
			for _, a := range h.list(row.Fields, "acronyms") {
				if code := normalize.Code(a); code != "" {
					e.Acronyms = append(e.Acronyms, code)
				}
			}
			if v := h.get(row.Fields, "volume"); v != "" {
				vol, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64)
				if err != nil {
					zap.L().Warn("ignoring unparseable volume",
						zap.String("entity_id", e.ID),
						zap.String("volume", v),
					)
				}
				e.Volume = vol
			}
			e.Normalized = n.Normalize(e.Name)
			out = append(out, e)
			return true
		})
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
