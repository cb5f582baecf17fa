package report

import (
	"io"
	"strconv"

	"github.com/sells-group/firmlink/internal/model"
)

// SampleColumns is the header of a validation sheet. The name columns are
// filled when a Names lookup is supplied and are ignored on import.
var SampleColumns = []string{
	"index",
	"stratum",
	"entity_id",
	"firm_id",
	"method",
	"tier",
	"confidence",
	"label",
	"note",
	"entity_name",
	"firm_name",
}

// Names resolves display names for a labeling sheet.
type Names struct {
	Entities map[string]string
	Firms    map[string]string
}

// NamesFrom indexes entity display names and firm legal names by id.
func NamesFrom(entities []model.Entity, firms []model.Firm) *Names {
	n := &Names{
		Entities: make(map[string]string, len(entities)),
		Firms:    make(map[string]string, len(firms)),
	}
	for _, e := range entities {
		n.Entities[e.ID] = e.Name
	}
	for _, f := range firms {
		n.Firms[f.ID] = f.LegalName
	}
	return n
}

func (n *Names) lookup(entityID, firmID string) (string, string) {
	if n == nil {
		return "", ""
	}
	return n.Entities[entityID], n.Firms[firmID]
}

func sampleRows(records []model.ValidationRecord, names *Names) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		en, fn := names.lookup(r.Match.EntityID, r.Match.FirmID)
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			r.Stratum,
			r.Match.EntityID,
			r.Match.FirmID,
			string(r.Match.Method),
			strconv.Itoa(int(r.Match.Tier)),
			formatConfidence(r.Match.Confidence),
			string(r.Label),
			r.Note,
			en,
			fn,
		})
	}
	return rows
}

// WriteSampleCSV writes a validation sheet as CSV.
func WriteSampleCSV(w io.Writer, records []model.ValidationRecord, names *Names) error {
	return writeCSV(w, SampleColumns, sampleRows(records, names), "validation sheet")
}

// WriteSampleXLSX writes a validation sheet workbook for labelers.
func WriteSampleXLSX(path string, records []model.ValidationRecord, names *Names) error {
	return writeXLSX(path, "validation", SampleColumns, sampleRows(records, names))
}

// WriteSample writes a validation sheet to path, choosing XLSX or CSV from
// the extension.
func WriteSample(path string, records []model.ValidationRecord, names *Names) error {
	if isXLSX(path) {
		return WriteSampleXLSX(path, records, names)
	}
	return writeFile(path, func(w io.Writer) error { return WriteSampleCSV(w, records, names) })
}
