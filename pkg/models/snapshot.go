package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountHealthSnapshot is one point-in-time health reading for a customer,
// written once per (tenant, customer, date) by the assessment job and consumed
// by trend reporting. A re-run on the same date overwrites the day's row.
type AccountHealthSnapshot struct {
	ID                uuid.UUID `db:"id"                 json:"id"`
	TenantID          uuid.UUID `db:"tenant_id"          json:"tenant_id"`
	CustomerID        uuid.UUID `db:"customer_id"        json:"customer_id"`
	SnapshotDate      time.Time `db:"snapshot_date"      json:"snapshot_date"`
	Classification    string    `db:"classification"     json:"classification"`
	RiskStatus        string    `db:"risk_status"        json:"risk_status"`
	RevenueScore      float64   `db:"revenue_score"      json:"revenue_score"`
	CadenceScore      float64   `db:"cadence_score"      json:"cadence_score"`
	SampleUtilization float64   `db:"sample_utilization" json:"sample_utilization"`
	Notes             *string   `db:"notes"              json:"notes,omitempty"`
	CreatedAt         time.Time `db:"created_at"         json:"created_at"`
}
