package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/firmlink/internal/validation"
)

// AccuracyColumns is the header of the CSV accuracy report.
var AccuracyColumns = []string{
	"group",
	"value",
	"sampled",
	"correct",
	"incorrect",
	"uncertain",
	"unlabeled",
	"accuracy",
	"ci_low",
	"ci_high",
}

type accuracyLine struct {
	group string
	value string
	tally validation.Tally
}

// accuracyLines flattens a report into overall, tier, method and bucket rows.
func accuracyLines(r validation.AccuracyReport) []accuracyLine {
	lines := []accuracyLine{{group: "overall", value: "all", tally: r.Overall}}
	for _, t := range r.Tiers() {
		lines = append(lines, accuracyLine{group: "tier", value: strconv.Itoa(int(t)), tally: r.ByTier[t]})
	}
	for _, m := range r.Methods() {
		lines = append(lines, accuracyLine{group: "method", value: string(m), tally: r.ByMethod[m]})
	}
	buckets := make([]string, 0, len(r.ByBucket))
	for _, b := range validation.Buckets {
		if _, ok := r.ByBucket[b]; ok {
			buckets = append(buckets, b)
		}
	}
	for _, b := range buckets {
		lines = append(lines, accuracyLine{group: "bucket", value: b, tally: r.ByBucket[b]})
	}
	return lines
}

func ratio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// WriteAccuracyCSV writes the accuracy report as CSV.
func WriteAccuracyCSV(w io.Writer, r validation.AccuracyReport) error {
	lines := accuracyLines(r)
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		lo, hi := l.tally.Wilson()
		rows = append(rows, []string{
			l.group,
			l.value,
			strconv.Itoa(l.tally.Total()),
			strconv.Itoa(l.tally.Correct),
			strconv.Itoa(l.tally.Incorrect),
			strconv.Itoa(l.tally.Uncertain),
			strconv.Itoa(l.tally.Unlabeled),
			ratio(l.tally.Accuracy()),
			ratio(lo),
			ratio(hi),
		})
	}
	return writeCSV(w, AccuracyColumns, rows, "accuracy report")
}

// WriteAccuracy writes an aligned accuracy table followed by the methods that
// meet minAccuracy.
func WriteAccuracy(out io.Writer, r validation.AccuracyReport, minAccuracy float64) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GROUP\tVALUE\tSAMPLED\tCORRECT\tINCORRECT\tUNCERTAIN\tACCURACY\t95% CI")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-------\t-------\t---------\t---------\t--------\t------")
	for _, l := range accuracyLines(r) {
		acc, ci := "-", "-"
		if l.tally.Decided() > 0 {
			lo, hi := l.tally.Wilson()
			acc = fmt.Sprintf("%.1f%%", 100*l.tally.Accuracy())
			ci = fmt.Sprintf("%.1f-%.1f%%", 100*lo, 100*hi)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			l.group, l.value, l.tally.Total(), l.tally.Correct, l.tally.Incorrect, l.tally.Uncertain, acc, ci)
	}
	_ = w.Flush()

	accepted := r.Acceptable(minAccuracy)
	names := make([]string, len(accepted))
	for i, m := range accepted {
		names[i] = string(m)
	}
	_, _ = fmt.Fprintf(out, "\nMethods at or above %.0f%%: %s\n", 100*minAccuracy, joinOrNone(names))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
