package ingest

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/fetcher"
	"github.com/sells-group/firmlink/internal/model"
)

// ReadMatches loads a match table as written by report.WriteMatches. Only
// entity_id is required; unmatched rows carry an empty firm_id.
func ReadMatches(ctx context.Context, path string) ([]model.Match, Stats, error) {
	var out []model.Match
	st, err := readTable(ctx, path, "ingest.matches", nil, []string{"entity_id", "firm_id"},
		func(h header, row fetcher.Row) bool {
			m := model.Match{
				EntityID:       h.get(row.Fields, "entity_id"),
				FirmID:         h.get(row.Fields, "firm_id"),
				Method:         model.Method(h.get(row.Fields, "method")),
				RunnerUpFirmID: h.get(row.Fields, "runner_up_firm_id"),
				MatchedKey:     h.get(row.Fields, "matched_key"),
			}
			if m.EntityID == "" {
				zap.L().Warn("skipping match row without entity id", zap.String("path", path), zap.Int("line", row.Line))
				return false
			}
			var err error
			if v := h.get(row.Fields, "confidence"); v != "" {
				if m.Confidence, err = strconv.ParseFloat(v, 64); err != nil {
					zap.L().Warn("skipping match row with bad confidence", zap.String("entity_id", m.EntityID))
					return false
				}
			}
			if v := h.get(row.Fields, "tier"); v != "" {
				tier, err := strconv.Atoi(v)
				if err != nil {
					zap.L().Warn("skipping match row with bad tier", zap.String("entity_id", m.EntityID))
					return false
				}
				m.Tier = model.Tier(tier)
			}
			m.Ambiguous, _ = strconv.ParseBool(h.get(row.Fields, "ambiguous"))
			m.CandidateCount, _ = strconv.Atoi(h.get(row.Fields, "candidate_count"))
			out = append(out, m)
			return true
		})
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
