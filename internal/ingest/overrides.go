package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/firmlink/internal/fetcher"
	"github.com/sells-group/firmlink/internal/model"
)

var overrideAliases = map[string]string{
	"comment": "note",
	"reason":  "note",
}

// ReadOverrides loads the manual mapping table from YAML (.yaml, .yml) or any
// table format fetcher supports.
func ReadOverrides(ctx context.Context, path string) ([]model.Override, Stats, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadOverridesYAML(path)
	}

	var out []model.Override
	st, err := readTable(ctx, path, "ingest.overrides", overrideAliases, []string{"entity_id", "firm_id"},
		func(h header, row fetcher.Row) bool {
			o := model.Override{
				EntityID: h.get(row.Fields, "entity_id"),
				FirmID:   h.get(row.Fields, "firm_id"),
				Note:     h.get(row.Fields, "note"),
			}
			if o.EntityID == "" || o.FirmID == "" {
				zap.L().Warn("skipping incomplete override row",
					zap.String("path", path),
					zap.Int("line", row.Line),
				)
				return false
			}
			out = append(out, o)
			return true
		})
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}

type overrideFile struct {
	Overrides []model.Override `yaml:"overrides"`
}

// ReadOverridesYAML loads a document of the form:
//
//	overrides:
//	  - entity_id: E1
//	    firm_id: F1
//	    note: acquired 2019
func ReadOverridesYAML(path string) ([]model.Override, Stats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Stats{}, eris.Wrap(err, "ingest: read overrides")
	}

	var doc overrideFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Stats{}, eris.Wrap(err, "ingest: parse overrides yaml")
	}

	var (
		st  Stats
		out []model.Override
	)
	for i, o := range doc.Overrides {
		st.Rows++
		o.EntityID = strings.TrimSpace(o.EntityID)
		o.FirmID = strings.TrimSpace(o.FirmID)
		if o.EntityID == "" || o.FirmID == "" {
			zap.L().Warn("skipping incomplete override", zap.String("path", path), zap.Int("item", i))
			st.Skipped++
			continue
		}
		st.Loaded++
		out = append(out, o)
	}
	return out, st, nil
}
