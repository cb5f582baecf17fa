package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/firmlink/internal/db"
	"github.com/sells-group/firmlink/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status     TEXT NOT NULL DEFAULT 'running',
	config     JSONB,
	entities   INTEGER NOT NULL DEFAULT 0,
	matched    INTEGER NOT NULL DEFAULT 0,
	ambiguous  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS matches (
	run_id            TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	entity_id         TEXT NOT NULL,
	firm_id           TEXT,
	confidence        DOUBLE PRECISION NOT NULL DEFAULT 0,
	method            TEXT NOT NULL DEFAULT '',
	tier              INTEGER NOT NULL DEFAULT 0,
	ambiguous         BOOLEAN NOT NULL DEFAULT false,
	runner_up_firm_id TEXT NOT NULL DEFAULT '',
	matched_key       TEXT NOT NULL DEFAULT '',
	candidate_count   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, entity_id)
);

CREATE TABLE IF NOT EXISTS validation (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx        INTEGER NOT NULL,
	stratum    TEXT NOT NULL DEFAULT '',
	entity_id  TEXT NOT NULL,
	firm_id    TEXT NOT NULL,
	method     TEXT NOT NULL,
	tier       INTEGER NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	label      TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, idx)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_matches_firm ON matches(run_id, firm_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, config json.RawMessage) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var cfg []byte
	if len(config) > 0 {
		cfg = config
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, config, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(model.RunStatusRunning), cfg, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *model.Run) error {
	run.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, entities = $2, matched = $3, ambiguous = $4, updated_at = $5 WHERE id = $6`,
		string(run.Status), run.Entities, run.Matched, run.Ambiguous, run.UpdatedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("run", run.ID)
	}
	return nil
}

const pgRunColumns = `id, status, config, entities, matched, ambiguous, created_at, updated_at`

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		r      model.Run
		status string
		config []byte
	)
	if err := row.Scan(&r.ID, &status, &config, &r.Entities, &r.Matched, &r.Ambiguous, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	if len(config) > 0 {
		r.Config = json.RawMessage(config)
	}
	return &r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	r, err := scanPgRun(s.pool.QueryRow(ctx, `SELECT `+pgRunColumns+` FROM runs WHERE id = $1`, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("run", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + pgRunColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, defaultLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var matchTableColumns = []string{
	"run_id", "entity_id", "firm_id", "confidence", "method", "tier",
	"ambiguous", "runner_up_firm_id", "matched_key", "candidate_count",
}

// SaveMatches replaces the run's match table: DELETE and COPY in one
// transaction.
func (s *PostgresStore) SaveMatches(ctx context.Context, runID string, matches []model.Match) (int64, error) {
	rows := make([][]any, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []any{
			runID, m.EntityID, nullable(m.FirmID), m.Confidence, string(m.Method), int(m.Tier),
			m.Ambiguous, m.RunnerUpFirmID, m.MatchedKey, m.CandidateCount,
		})
	}
	n, err := db.ReplacePartition(ctx, s.pool, runPartition("matches", runID, matchTableColumns), rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save matches for run %s", runID)
	}
	return n, nil
}

// runPartition scopes a table's rows to one run.
func runPartition(table, runID string, columns []string) db.Partition {
	return db.Partition{Table: table, Column: "run_id", Value: runID, Columns: columns}
}

const pgMatchColumns = `entity_id, firm_id, confidence, method, tier, ambiguous, runner_up_firm_id, matched_key, candidate_count`

func scanPgMatch(row pgx.Row) (*model.Match, error) {
	var (
		m      model.Match
		firm   *string
		method string
		tier   int
	)
	if err := row.Scan(&m.EntityID, &firm, &m.Confidence, &method, &tier, &m.Ambiguous,
		&m.RunnerUpFirmID, &m.MatchedKey, &m.CandidateCount); err != nil {
		return nil, err
	}
	if firm != nil {
		m.FirmID = *firm
	}
	m.Method = model.Method(method)
	m.Tier = model.Tier(tier)
	return &m, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, runID, entityID string) (*model.Match, error) {
	m, err := scanPgMatch(s.pool.QueryRow(ctx,
		`SELECT `+pgMatchColumns+` FROM matches WHERE run_id = $1 AND entity_id = $2`,
		runID, entityID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("match", runID+"/"+entityID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get match %s/%s", runID, entityID)
	}
	return m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, runID string) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgMatchColumns+` FROM matches WHERE run_id = $1 ORDER BY entity_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		m, err := scanPgMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		out = append(out, *m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

var validationTableColumns = []string{
	"run_id", "idx", "stratum", "entity_id", "firm_id", "method",
	"tier", "confidence", "label", "note", "updated_at",
}

// SaveValidation replaces the run's sample: DELETE and COPY in one
// transaction, so a failed load keeps the previous labels.
func (s *PostgresStore) SaveValidation(ctx context.Context, runID string, records []model.ValidationRecord) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			runID, r.Index, r.Stratum, r.Match.EntityID, r.Match.FirmID, string(r.Match.Method),
			int(r.Match.Tier), r.Match.Confidence, string(r.Label), r.Note, now,
		})
	}
	if _, err := db.ReplacePartition(ctx, s.pool, runPartition("validation", runID, validationTableColumns), rows); err != nil {
		return eris.Wrapf(err, "postgres: save validation for run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListValidation(ctx context.Context, runID string) ([]model.ValidationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT idx, stratum, entity_id, firm_id, method, tier, confidence, label, note
		 FROM validation WHERE run_id = $1 ORDER BY idx`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list validation")
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
			return nil, eris.Wrap(err, "postgres: scan validation")
		}
		r.Match.Method = model.Method(method)
		r.Match.Tier = model.Tier(tier)
		r.Label = model.Label(label)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list validation iterate")
}

func (s *PostgresStore) UpdateLabel(ctx context.Context, runID string, index int, label model.Label, note string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE validation SET label = $1, note = $2, updated_at = $3 WHERE run_id = $4 AND idx = $5`,
		string(label), note, time.Now().UTC(), runID, index,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update label %s/%d", runID, index)
	}
	if tag.RowsAffected() == 0 {
		return notFound("validation row", fmt.Sprintf("%s/%d", runID, index))
	}
	return nil
}
