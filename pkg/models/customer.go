package models

import (
	"time"

	"github.com/google/uuid"
)

// Risk statuses written back to the customer record by the assessment job.
// Priority order when deriving: DORMANT > AT_RISK_CADENCE > AT_RISK_REVENUE > HEALTHY.
const (
	RiskHealthy       = "HEALTHY"
	RiskAtRiskCadence = "AT_RISK_CADENCE"
	RiskAtRiskRevenue = "AT_RISK_REVENUE"
	RiskDormant       = "DORMANT"
)

// Account types describe where a customer sits in the sales lifecycle.
const (
	AccountActive   = "ACTIVE"
	AccountTarget   = "TARGET"
	AccountProspect = "PROSPECT"
)

// Account priorities rank customers within a book. A is highest.
const (
	PriorityA = "A"
	PriorityB = "B"
	PriorityC = "C"
)

// AccountTypes lists every known account type, in seeding order.
var AccountTypes = []string{AccountActive, AccountTarget, AccountProspect}

// AccountPriorities lists every known account priority, in seeding order.
var AccountPriorities = []string{PriorityA, PriorityB, PriorityC}

// Customer is the customer record owned by the surrounding application.
// The assessment job only writes the risk fields (risk_status, dormancy_since,
// reactivated_date); everything else is maintained by order ingestion.
type Customer struct {
	ID                       uuid.UUID  `db:"id"                          json:"id"`
	TenantID                 uuid.UUID  `db:"tenant_id"                   json:"tenant_id"`
	SalesRepID               *uuid.UUID `db:"sales_rep_id"                json:"sales_rep_id,omitempty"`
	Name                     string     `db:"name"                        json:"name"`
	AccountType              *string    `db:"account_type"                json:"account_type,omitempty"`
	AccountPriority          *string    `db:"account_priority"            json:"account_priority,omitempty"`
	RiskStatus               string     `db:"risk_status"                 json:"risk_status"`
	LastOrderDate            *time.Time `db:"last_order_date"             json:"last_order_date,omitempty"`
	AverageOrderIntervalDays *float64   `db:"average_order_interval_days" json:"average_order_interval_days,omitempty"`
	DormancySince            *time.Time `db:"dormancy_since"              json:"dormancy_since,omitempty"`
	ReactivatedDate          *time.Time `db:"reactivated_date"            json:"reactivated_date,omitempty"`
	IsPermanentlyClosed      bool       `db:"is_permanently_closed"       json:"is_permanently_closed"`
	CreatedAt                time.Time  `db:"created_at"                  json:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at"                  json:"updated_at"`
}
