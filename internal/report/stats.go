package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sells-group/firmlink/internal/linker"
	"github.com/sells-group/firmlink/internal/model"
)

// WriteStats writes a run summary: totals, then matches per tier and method
// and raw candidates per method.
func WriteStats(out io.Writer, s linker.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Entities:\t%d\n", s.Entities)
	_, _ = fmt.Fprintf(w, "Matched:\t%d\t%s\n", s.Matched, percent(s.Matched, s.Entities))
	_, _ = fmt.Fprintf(w, "Ambiguous:\t%d\n", s.Ambiguous)
	_, _ = fmt.Fprintf(w, "Unmatched:\t%d\n", s.Entities-s.Matched)
	_, _ = fmt.Fprintf(w, "Failures:\t%d\n", s.Failures)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", s.Duration.Round(time.Millisecond))

	_, _ = fmt.Fprintln(w, "\nTIER\tMATCHED\t")
	for _, t := range []model.Tier{model.TierStructured, model.TierFuzzy, model.TierManual} {
		_, _ = fmt.Fprintf(w, "%d\t%d\t\n", t, s.MatchedByTier[t])
	}

	_, _ = fmt.Fprintln(w, "\nMETHOD\tMATCHED\tCANDIDATES")
	for _, m := range model.AllMethods {
		if s.MatchedByMethod[m] == 0 && s.CandidatesByMethod[m] == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", m, s.MatchedByMethod[m], s.CandidatesByMethod[m])
	}
	_ = w.Flush()
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("(%.1f%%)", 100*float64(n)/float64(total))
}
