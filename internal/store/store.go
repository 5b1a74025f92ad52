package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here,
// keeping the statistical packages free of any datastore dependency.
type Store interface {
	Ping(ctx context.Context) error
	GetDefaultTenant(ctx context.Context) (*models.Tenant, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error

	ListThresholds(ctx context.Context, tenantID uuid.UUID) ([]models.HealthThreshold, error)
	UpsertThreshold(ctx context.Context, row *models.HealthThreshold) (created bool, err error)

	ListCustomerHealthInputs(ctx context.Context, filter InputFilter) ([]models.CustomerHealthInput, error)
	ListIntervalObservations(ctx context.Context, tenantID, customerID uuid.UUID, asOf time.Time) ([]models.OrderIntervalObservation, error)

	// ApplyAssessment commits one customer's risk-status update and the day's
	// snapshot in a single transaction, so a reader never observes one
	// without the other.
	ApplyAssessment(ctx context.Context, update AssessmentUpdate) error
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]models.AccountHealthSnapshot, error)
	ListDailyScoreAverages(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]DailyScore, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error
}

// InputFilter scopes an assessment run's customer load. A nil SalesRepID
// means tenant-wide. AsOf anchors every revenue window so a run is
// reproducible for a fixed point in time.
type InputFilter struct {
	TenantID   uuid.UUID
	SalesRepID *uuid.UUID
	AsOf       time.Time
}

// AssessmentUpdate carries everything ApplyAssessment writes for one customer.
type AssessmentUpdate struct {
	TenantID                 uuid.UUID
	CustomerID               uuid.UUID
	RiskStatus               string
	AverageOrderIntervalDays *float64
	DormancySince            *time.Time
	ReactivatedDate          *time.Time
	Snapshot                 models.AccountHealthSnapshot
}

// SnapshotFilter selects a customer's snapshot time series.
type SnapshotFilter struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	From       time.Time
	To         time.Time
}

// DailyScore is one day's tenant-wide average snapshot scores, consumed by
// the portfolio trend report.
type DailyScore struct {
	Date            time.Time `json:"date"`
	AvgRevenueScore float64   `json:"avg_revenue_score"`
	AvgCadenceScore float64   `json:"avg_cadence_score"`
	Customers       int       `json:"customers"`
}

type jobUpdateParams struct {
	ErrorMessage *string
	Summary      json.RawMessage
}

type JobUpdateOption func(*jobUpdateParams)

func WithErrorMessage(msg string) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithSummary(summary json.RawMessage) JobUpdateOption {
	return func(p *jobUpdateParams) {
		p.Summary = summary
	}
}
