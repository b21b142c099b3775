package models

import (
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

const (
	RunTriggerScheduled = "scheduled"
	RunTriggerManual    = "manual"
	RunTriggerRecovery  = "recovery"
)

type MergeRunEntity interface {
	GetID() string
	GetTrigger() string
	GetStatus() string
	GetStartedAt() time.Time
	GetFinishedAt() *time.Time
	GetRowsFetched() int64
	GetCandidates() int64
	GetRowsInserted() int64
	GetRowsUpdated() int64
	GetErrorMessage() string
}

// MergeRun is one journalled execution of the merge operation. A row is
// written with status running before any merge work starts, so an
// interrupted run stays visible for recovery.
type MergeRun struct {
	ID           string     `json:"id" db:"id"`
	Trigger      string     `json:"trigger" db:"trigger_type"`
	Status       string     `json:"status" db:"status"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	RowsFetched  int64      `json:"rows_fetched" db:"rows_fetched"`
	Candidates   int64      `json:"candidates" db:"candidates"`
	RowsInserted int64      `json:"rows_inserted" db:"rows_inserted"`
	RowsUpdated  int64      `json:"rows_updated" db:"rows_updated"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
}

func (m *MergeRun) GetID() string             { return m.ID }
func (m *MergeRun) GetTrigger() string        { return m.Trigger }
func (m *MergeRun) GetStatus() string         { return m.Status }
func (m *MergeRun) GetStartedAt() time.Time   { return m.StartedAt }
func (m *MergeRun) GetFinishedAt() *time.Time { return m.FinishedAt }
func (m *MergeRun) GetRowsFetched() int64     { return m.RowsFetched }
func (m *MergeRun) GetCandidates() int64      { return m.Candidates }
func (m *MergeRun) GetRowsInserted() int64    { return m.RowsInserted }
func (m *MergeRun) GetRowsUpdated() int64     { return m.RowsUpdated }
func (m *MergeRun) GetErrorMessage() string   { return m.ErrorMessage }

func (m *MergeRun) IsTerminal() bool {
	return m.Status == RunStatusCompleted || m.Status == RunStatusFailed
}

// Duration reports how long the run took, or the time since it started if it
// has not finished.
func (m *MergeRun) Duration() time.Duration {
	if m.FinishedAt != nil {
		return m.FinishedAt.Sub(m.StartedAt)
	}
	return time.Since(m.StartedAt)
}
