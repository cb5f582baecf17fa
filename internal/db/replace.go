package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Partition names the rows of a table owned by one key value, such as every
// match row of one run.
type Partition struct {
	Table   string // target table, optionally schema-qualified
	Column  string // partition key column (e.g. "run_id")
	Value   any    // partition key value
	Columns []string
}

// ReplacePartition swaps a partition's rows for rows: DELETE then COPY in one
// transaction. A failed COPY rolls back and the previous rows survive. An
// empty rows clears the partition.
func ReplacePartition(ctx context.Context, pool Pool, p Partition, rows [][]any) (int64, error) {
	if p.Table == "" || p.Column == "" {
		return 0, eris.New("db: replace: table and partition column are required")
	}
	if len(p.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, deleteSQL(p), p.Value); err != nil {
		return 0, eris.Wrapf(err, "db: replace: clear %s", p.Table)
	}

	n, err := CopyFrom(ctx, tx, p.Table, p.Columns, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "db: replace: fill %s", p.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

func deleteSQL(p Partition) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		identifier(p.Table).Sanitize(),
		pgx.Identifier{p.Column}.Sanitize(),
	)
}
