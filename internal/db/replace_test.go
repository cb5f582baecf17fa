package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchPartition() Partition {
	return Partition{
		Table:   "matches",
		Column:  "run_id",
		Value:   "r1",
		Columns: []string{"run_id", "entity_id", "firm_id"},
	}
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestReplacePartition_MissingTable(t *testing.T) {
	p := matchPartition()
	p.Table = ""
	_, err := ReplacePartition(context.TODO(), nil, p, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partition column are required")
}

func TestReplacePartition_NoColumns(t *testing.T) {
	p := matchPartition()
	p.Columns = nil
	_, err := ReplacePartition(context.TODO(), nil, p, [][]any{{"r1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestReplacePartition_Success(t *testing.T) {
	mock := newMockPool(t)
	p := matchPartition()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "matches" WHERE "run_id" = \$1`).
		WithArgs("r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"matches"}, p.Columns).WillReturnResult(2)
	mock.ExpectCommit()

	n, err := ReplacePartition(context.Background(), mock, p, [][]any{{"r1", "E1", "F1"}, {"r1", "E2", nil}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePartition_EmptyRowsClears(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "matches" WHERE "run_id" = \$1`).
		WithArgs("r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	n, err := ReplacePartition(context.Background(), mock, matchPartition(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePartition_CopyErrorRollsBack(t *testing.T) {
	mock := newMockPool(t)
	p := matchPartition()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "matches"`).WithArgs("r1").WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"matches"}, p.Columns).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err := ReplacePartition(context.Background(), mock, p, [][]any{{"r1", "E1", "F1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill matches")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePartition_DeleteErrorRollsBack(t *testing.T) {
	mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "matches"`).WithArgs("r1").WillReturnError(fmt.Errorf("lock timeout"))
	mock.ExpectRollback()

	_, err := ReplacePartition(context.Background(), mock, matchPartition(), [][]any{{"r1", "E1", "F1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear matches")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSQL_SchemaQualified(t *testing.T) {
	p := matchPartition()
	p.Table = "linker.matches"
	assert.Equal(t, `DELETE FROM "linker"."matches" WHERE "run_id" = $1`, deleteSQL(p))
}
