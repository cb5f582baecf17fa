package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"entities.csv", FormatCSV},
		{"ENTITIES.CSV", FormatCSV},
		{"firms.tsv", FormatTSV},
		{"firms.xlsx", FormatXLSX},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("firms.parquet")
	assert.Error(t, err)
}

func TestOpenTable_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firms.csv")
	require.NoError(t, writeTestFile(path, "firm_id , legal_name\nF1, Acme \n"))

	rows, err := Collect(OpenTable(context.Background(), path))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"F1", "Acme"}, rows[1].Fields)
}

func TestOpenTable_TSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firms.tsv")
	require.NoError(t, writeTestFile(path, "firm_id\tlegal_name\nF1\tAcme, Inc.\n"))

	rows, err := Collect(OpenTable(context.Background(), path))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme, Inc.", rows[1].Fields[1])
}

func TestOpenTable_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"firm_id"}, {"F1"}}})

	rows, err := Collect(OpenTable(context.Background(), path))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestOpenTable_Unsupported(t *testing.T) {
	_, err := Collect(OpenTable(context.Background(), "firms.json"))
	assert.Error(t, err)
}
