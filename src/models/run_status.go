package models

import (
	"sitbook/src/types"
	"time"
)

// RunStatus is the outcome of the most recent reconciliation run.
type RunStatus struct {
	RunID          string           `json:"run_id"`
	Source         string           `json:"source"`
	Outcome        types.RunOutcome `json:"outcome"`
	Policy         string           `json:"policy,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	ProcessedCount int              `json:"processed_count"`
	Deferred       int              `json:"deferred,omitempty"`
	Anomalies      int              `json:"anomalies,omitempty"`
	LastError      string           `json:"last_error,omitempty"`
}
