// Package fetcher streams rows out of local CSV, TSV and XLSX tables.
package fetcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one table record and the 1-based line or sheet row it came from.
type Row struct {
	Line   int
	Fields []string
}

// Format identifies a table file type.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat infers the table format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("fetcher: unsupported table format %q", filepath.Ext(path))
	}
}

// OpenTable streams every row of a local table file, header row included.
// Both channels are closed when processing completes.
func OpenTable(ctx context.Context, path string) (<-chan Row, <-chan error) {
	format, err := DetectFormat(path)
	if err != nil {
		return failed(err)
	}
	switch format {
	case FormatXLSX:
		return StreamXLSX(ctx, path, XLSXOptions{})
	case FormatTSV:
		return StreamCSVFile(ctx, path, CSVOptions{Delimiter: '\t', LazyQuotes: true, TrimSpace: true})
	default:
		return StreamCSVFile(ctx, path, CSVOptions{LazyQuotes: true, TrimSpace: true})
	}
}

// Collect drains a row stream.
func Collect(rowCh <-chan Row, errCh <-chan error) ([]Row, error) {
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func failed(err error) (<-chan Row, <-chan error) {
	rowCh := make(chan Row)
	errCh := make(chan error, 1)
	errCh <- err
	close(rowCh)
	close(errCh)
	return rowCh, errCh
}
