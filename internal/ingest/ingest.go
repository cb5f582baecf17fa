// Package ingest loads entity, firm, override and labeled-sample tables into
// the linker's typed records. Malformed rows are skipped and counted, never
// fatal.
package ingest

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/fetcher"
)

// ListSeparator splits multi-valued cells such as alternate_names.
const ListSeparator = "|"

// Stats counts what happened to a table's data rows.
type Stats struct {
	Rows    int `json:"rows"`
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// header maps canonical column names to their position in a table.
type header map[string]int

// parseHeader resolves aliases to canonical names and checks that the
// required columns exist.
func parseHeader(row []string, aliases map[string]string, required ...string) (header, error) {
	h := make(header, len(row))
	for i, raw := range row {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		if canon, ok := aliases[name]; ok {
			name = canon
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	var missing []string
	for _, r := range required {
		if _, ok := h[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("ingest: missing required column(s): %s", strings.Join(missing, ", "))
	}
	return h, nil
}

// get returns the trimmed cell for column name, or "" when absent.
func (h header) get(fields []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// list splits a multi-valued cell, dropping blanks.
func (h header) list(fields []string, name string) []string {
	cell := h.get(fields, name)
	if cell == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(cell, ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readTable streams path, parses its header row and hands every data row to
// fn. fn returns false to count the row as skipped.
func readTable(ctx context.Context, path, component string, aliases map[string]string, required []string, fn func(h header, row fetcher.Row) bool) (Stats, error) {
	log := zap.L().With(zap.String("component", component), zap.String("path", path))

	rowCh, errCh := fetcher.OpenTable(ctx, path)
	var (
		st Stats
		h  header
	)
	for row := range rowCh {
		if h == nil {
			var err error
			if h, err = parseHeader(row.Fields, aliases, required...); err != nil {
				for range rowCh { //nolint:revive // drain
				}
				return st, eris.Wrapf(err, "ingest: %s", path)
			}
			continue
		}
		st.Rows++
		if fn(h, row) {
			st.Loaded++
		} else {
			st.Skipped++
		}
	}
	for err := range errCh {
		if err != nil {
			return st, eris.Wrapf(err, "ingest: read %s", path)
		}
	}
	if h == nil {
		return st, eris.Errorf("ingest: %s has no header row", path)
	}

	log.Info("table loaded",
		zap.Int("rows", st.Rows),
		zap.Int("loaded", st.Loaded),
		zap.Int("skipped", st.Skipped),
	)
	return st, nil
}
