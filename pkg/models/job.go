package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job tracks async assessment runs. POST /api/v1/assessments returns a job_id;
// the client polls GET /api/v1/assessments/{job_id} until status is completed
// or failed, at which point Summary carries the run totals.
type Job struct {
	ID           uuid.UUID       `db:"id"            json:"id"`
	TenantID     uuid.UUID       `db:"tenant_id"     json:"tenant_id"`
	Type         string          `db:"type"          json:"type"`
	Status       string          `db:"status"        json:"status"`
	SalesRepID   *uuid.UUID      `db:"sales_rep_id"  json:"sales_rep_id,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	Summary      json.RawMessage `db:"summary"       json:"summary,omitempty"`
	StartedAt    *time.Time      `db:"started_at"    json:"started_at,omitempty"`
	CompletedAt  *time.Time      `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"    json:"updated_at"`
}
