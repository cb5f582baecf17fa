// Package report writes match tables, validation sheets and accuracy
// summaries as CSV, XLSX or aligned text.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/firmlink/internal/model"
)

// MatchColumns is the header of the match table.
var MatchColumns = []string{
	"entity_id",
	"firm_id",
	"confidence",
	"method",
	"tier",
	"ambiguous",
	"runner_up_firm_id",
	"matched_key",
	"candidate_count",
}

// formatConfidence renders confidences with fixed precision.
func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 4, 64)
}

func matchRow(m model.Match) []string {
	return []string{
		m.EntityID,
		m.FirmID,
		formatConfidence(m.Confidence),
		string(m.Method),
		strconv.Itoa(int(m.Tier)),
		strconv.FormatBool(m.Ambiguous),
		m.RunnerUpFirmID,
		m.MatchedKey,
		strconv.Itoa(m.CandidateCount),
	}
}

// WriteMatchesCSV writes the match table as CSV.
func WriteMatchesCSV(w io.Writer, matches []model.Match) error {
	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, matchRow(m))
	}
	return writeCSV(w, MatchColumns, rows, "match table")
}

// WriteMatches writes the match table to path, choosing XLSX or CSV from the
// extension.
func WriteMatches(path string, matches []model.Match) error {
	if isXLSX(path) {
		rows := make([][]string, 0, len(matches))
		for _, m := range matches {
			rows = append(rows, matchRow(m))
		}
		return writeXLSX(path, "matches", MatchColumns, rows)
	}
	return writeFile(path, func(w io.Writer) error { return WriteMatchesCSV(w, matches) })
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func writeCSV(w io.Writer, header []string, rows [][]string, what string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return eris.Wrapf(err, "report: write %s header", what)
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return eris.Wrapf(err, "report: write %s row", what)
		}
	}
	cw.Flush()
	return eris.Wrapf(cw.Error(), "report: flush %s", what)
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create file")
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "report: close file")
}

// writeXLSX saves a single-sheet workbook. Numeric-looking cells stay text so
// ids such as "006066" keep their leading zeros.
func writeXLSX(path, sheetName string, header []string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save xlsx")
	}
	return nil
}
