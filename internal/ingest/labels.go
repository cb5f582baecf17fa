package ingest

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/fetcher"
	"github.com/sells-group/firmlink/internal/model"
)

// ReadValidation loads a labeled validation sheet as written by
// report.WriteSampleCSV or report.WriteSampleXLSX. Rows with an unreadable
// label, tier or confidence are skipped.
func ReadValidation(ctx context.Context, path string) ([]model.ValidationRecord, Stats, error) {
	var out []model.ValidationRecord
	st, err := readTable(ctx, path, "ingest.validation", nil,
		[]string{"index", "entity_id", "firm_id", "method", "tier", "confidence", "label"},
		func(h header, row fetcher.Row) bool {
			skip := func(reason string) bool {
				zap.L().Warn("skipping validation row",
					zap.String("path", path),
					zap.Int("line", row.Line),
					zap.String("reason", reason),
				)
				return false
			}

			idx, err := strconv.Atoi(h.get(row.Fields, "index"))
			if err != nil {
				return skip("index")
			}
			tier, err := strconv.Atoi(h.get(row.Fields, "tier"))
			if err != nil {
				return skip("tier")
			}
			conf, err := strconv.ParseFloat(h.get(row.Fields, "confidence"), 64)
			if err != nil {
				return skip("confidence")
			}
			label, ok := model.ParseLabel(h.get(row.Fields, "label"))
			if !ok {
				return skip("label")
			}

			out = append(out, model.ValidationRecord{
				Index:   idx,
				Stratum: h.get(row.Fields, "stratum"),
				Match: model.Match{
					EntityID:   h.get(row.Fields, "entity_id"),
					FirmID:     h.get(row.Fields, "firm_id"),
					Confidence: conf,
					Method:     model.Method(h.get(row.Fields, "method")),
					Tier:       model.Tier(tier),
				},
				Label: label,
				Note:  h.get(row.Fields, "note"),
			})
			return true
		})
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
