package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerHealthInput is an immutable snapshot of the revenue and cadence
// facts for one customer at the start of an assessment run. The engine only
// reads it; the aggregates come from the store's windowed order queries.
type CustomerHealthInput struct {
	CustomerID               uuid.UUID  `db:"customer_id"                 json:"customer_id"`
	TenantID                 uuid.UUID  `db:"tenant_id"                   json:"tenant_id"`
	Name                     string     `db:"name"                        json:"name"`
	AccountType              *string    `db:"account_type"                json:"account_type,omitempty"`
	AccountPriority          *string    `db:"account_priority"            json:"account_priority,omitempty"`
	TrailingTwelveRevenue    float64    `db:"trailing_twelve_revenue"     json:"trailing_twelve_revenue"`
	Last90Revenue            float64    `db:"last_90_revenue"             json:"last_90_revenue"`
	Last60Revenue            float64    `db:"last_60_revenue"             json:"last_60_revenue"`
	IsDormant                bool       `db:"is_dormant"                  json:"is_dormant"`
	LastOrderDate            *time.Time `db:"last_order_date"             json:"last_order_date,omitempty"`
	AverageOrderIntervalDays *float64   `db:"average_order_interval_days" json:"average_order_interval_days,omitempty"`
	DormancySince            *time.Time `db:"dormancy_since"              json:"dormancy_since,omitempty"`
	ReactivatedDate          *time.Time `db:"reactivated_date"            json:"reactivated_date,omitempty"`
}

// OrderIntervalObservation is one reorder-gap sample for a customer. Event is
// false for the censored tail interval (still waiting on the next order as of
// the observation cutoff). Never persisted; input to the survival estimator.
type OrderIntervalObservation struct {
	CustomerID   uuid.UUID `db:"customer_id"   json:"customer_id"`
	IntervalDays float64   `db:"interval_days" json:"interval_days"`
	Event        bool      `db:"event"         json:"event"`
}
