package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthThreshold is one tier of per-tenant health policy. AccountType and
// AccountPriority are nullable; the row with both nil is the tenant-wide
// default and must exist for assessment to run.
type HealthThreshold struct {
	ID                    uuid.UUID `db:"id"                      json:"id"`
	TenantID              uuid.UUID `db:"tenant_id"               json:"tenant_id"`
	AccountType           *string   `db:"account_type"            json:"account_type,omitempty"`
	AccountPriority       *string   `db:"account_priority"        json:"account_priority,omitempty"`
	DormantDays           int       `db:"dormant_days"            json:"dormant_days"`
	GracePeriodPercent    float64   `db:"grace_period_percent"    json:"grace_period_percent"`
	RevenueDeclinePercent float64   `db:"revenue_decline_percent" json:"revenue_decline_percent"`
	CreatedAt             time.Time `db:"created_at"              json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"              json:"updated_at"`
}

// IsDefault reports whether this is the tenant-wide wildcard tier.
func (t HealthThreshold) IsDefault() bool {
	return t.AccountType == nil && t.AccountPriority == nil
}
