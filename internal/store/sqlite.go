package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/firmlink/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	config     TEXT,
	entities   INTEGER NOT NULL DEFAULT 0,
	matched    INTEGER NOT NULL DEFAULT 0,
	ambiguous  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS matches (
	run_id            TEXT NOT NULL REFERENCES runs(id),
	entity_id         TEXT NOT NULL,
	firm_id           TEXT,
	confidence        REAL NOT NULL DEFAULT 0,
	method            TEXT NOT NULL DEFAULT '',
	tier              INTEGER NOT NULL DEFAULT 0,
	ambiguous         INTEGER NOT NULL DEFAULT 0,
	runner_up_firm_id TEXT NOT NULL DEFAULT '',
	matched_key       TEXT NOT NULL DEFAULT '',
	candidate_count   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, entity_id)
);

CREATE TABLE IF NOT EXISTS validation (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	idx        INTEGER NOT NULL,
	stratum    TEXT NOT NULL DEFAULT '',
	entity_id  TEXT NOT NULL,
	firm_id    TEXT NOT NULL,
	method     TEXT NOT NULL,
	tier       INTEGER NOT NULL,
	confidence REAL NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_matches_firm ON matches(run_id, firm_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, config json.RawMessage) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), nullable(string(config)), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRun(ctx context.Context, run *model.Run) error {
	run.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, entities = ?, matched = ?, ambiguous = ?, updated_at = ? WHERE id = ?`,
		string(run.Status), run.Entities, run.Matched, run.Ambiguous, run.UpdatedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

const sqliteRunColumns = `id, status, config, entities, matched, ambiguous, created_at, updated_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("run", runID)
	}
	return r, err
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + sqliteRunColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, defaultLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// SaveMatches replaces the run's match table in one transaction.
func (s *SQLiteStore) SaveMatches(ctx context.Context, runID string, matches []model.Match) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin save matches")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE run_id = ?`, runID); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear matches for run %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches
		(run_id, entity_id, firm_id, confidence, method, tier, ambiguous, runner_up_firm_id, matched_key, candidate_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert match")
	}
	defer stmt.Close()

	var n int64
	for _, m := range matches {
		if _, err := stmt.ExecContext(ctx,
			runID, m.EntityID, nullable(m.FirmID), m.Confidence, string(m.Method), int(m.Tier),
			m.Ambiguous, m.RunnerUpFirmID, m.MatchedKey, m.CandidateCount,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: insert match %s", m.EntityID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit matches")
	}
	return n, nil
}

const sqliteMatchColumns = `entity_id, firm_id, confidence, method, tier, ambiguous, runner_up_firm_id, matched_key, candidate_count`

func (s *SQLiteStore) GetMatch(ctx context.Context, runID, entityID string) (*model.Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteMatchColumns+` FROM matches WHERE run_id = ? AND entity_id = ?`,
		runID, entityID,
	)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("match", runID+"/"+entityID)
	}
	return m, err
}

func (s *SQLiteStore) ListMatches(ctx context.Context, runID string) ([]model.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteMatchColumns+` FROM matches WHERE run_id = ? ORDER BY entity_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list matches")
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list matches iterate")
}

// SaveValidation replaces the run's validation sample.
func (s *SQLiteStore) SaveValidation(ctx context.Context, runID string, records []model.ValidationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save validation")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM validation WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear validation for run %s", runID)
	}

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := tx.ExecContext(ctx, `INSERT INTO validation
			(run_id, idx, stratum, entity_id, firm_id, method, tier, confidence, label, note, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Index, r.Stratum, r.Match.EntityID, r.Match.FirmID, string(r.Match.Method),
			int(r.Match.Tier), r.Match.Confidence, string(r.Label), r.Note, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert validation %d", r.Index)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit validation")
}

func (s *SQLiteStore) ListValidation(ctx context.Context, runID string) ([]model.ValidationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, stratum, entity_id, firm_id, method, tier, confidence, label, note
		 FROM validation WHERE run_id = ? ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list validation")
	}
	defer rows.Close()

	var out []model.ValidationRecord
	for rows.Next() {
		var (
			r      model.ValidationRecord
			method string
			tier   int
			label  string
		)
		if err := rows.Scan(&r.Index, &r.Stratum, &r.Match.EntityID, &r.Match.FirmID, &method, &tier,
			&r.Match.Confidence, &label, &r.Note); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan validation")
		}
		r.Match.Method = model.Method(method)
		r.Match.Tier = model.Tier(tier)
		r.Label = model.Label(label)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list validation iterate")
}

func (s *SQLiteStore) UpdateLabel(ctx context.Context, runID string, index int, label model.Label, note string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE validation SET label = ?, note = ?, updated_at = ? WHERE run_id = ? AND idx = ?`,
		string(label), note, time.Now().UTC(), runID, index,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update label %s/%d", runID, index)
	}
	return checkRowsAffected(res, "validation row", runID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r      model.Run
		status string
		config sql.NullString
	)
	err := row.Scan(&r.ID, &status, &config, &r.Entities, &r.Matched, &r.Ambiguous, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	r.Status = model.RunStatus(status)
	if config.Valid {
		r.Config = json.RawMessage(config.String)
	}
	return &r, nil
}

func scanMatch(row scannable) (*model.Match, error) {
	var (
		m      model.Match
		firm   sql.NullString
		method string
		tier   int
	)
	err := row.Scan(&m.EntityID, &firm, &m.Confidence, &method, &tier, &m.Ambiguous,
		&m.RunnerUpFirmID, &m.MatchedKey, &m.CandidateCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan match")
	}
	m.FirmID = firm.String
	m.Method = model.Method(method)
	m.Tier = model.Tier(tier)
	return &m, nil
}
