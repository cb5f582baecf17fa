package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the state of a persisted linking run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted linking run. Config holds the JSON snapshot of the
// match configuration used, so results stay comparable across experiments.
type Run struct {
	ID        string          `json:"id"`
	Status    RunStatus       `json:"status"`
	Config    json.RawMessage `json:"config,omitempty"`
	Entities  int             `json:"entities"`
	Matched   int             `json:"matched"`
	Ambiguous int             `json:"ambiguous"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
