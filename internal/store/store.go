// Package store persists linking runs, their match tables and validation
// samples. SQLite is the local default; Postgres serves shared deployments.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/firmlink/internal/model"
)

// ErrNotFound is returned (wrapped) when a run, match or sample row does not
// exist. Test with errors.Is.
var ErrNotFound = eris.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for linking runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, config json.RawMessage) (*model.Run, error)
	UpdateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Match table
	SaveMatches(ctx context.Context, runID string, matches []model.Match) (int64, error)
	GetMatch(ctx context.Context, runID, entityID string) (*model.Match, error)
	ListMatches(ctx context.Context, runID string) ([]model.Match, error)

	// Validation sample
	SaveValidation(ctx context.Context, runID string, records []model.ValidationRecord) error
	ListValidation(ctx context.Context, runID string) ([]model.ValidationRecord, error)
	UpdateLabel(ctx context.Context, runID string, index int, label model.Label, note string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Summarize copies match-table counts onto a run.
func Summarize(run *model.Run, matches []model.Match) {
	run.Entities = len(matches)
	run.Matched, run.Ambiguous = 0, 0
	for _, m := range matches {
		if m.Matched() {
			run.Matched++
		}
		if m.Ambiguous {
			run.Ambiguous++
		}
	}
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func notFound(kind, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
}

func defaultLimit(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
