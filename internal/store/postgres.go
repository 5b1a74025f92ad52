package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Tenants ---

func (s *PostgresStore) GetDefaultTenant(ctx context.Context) (*models.Tenant, error) {
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, slug, created_at, updated_at FROM tenants WHERE slug = 'well-crafted' LIMIT 1`,
	).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default tenant: %w", err)
	}
	return &t, nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.TenantID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, tenant_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.TenantID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.TenantID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Health Thresholds ---

func (s *PostgresStore) ListThresholds(ctx context.Context, tenantID uuid.UUID) ([]models.HealthThreshold, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, account_type, account_priority, dormant_days, grace_period_percent, revenue_decline_percent, created_at, updated_at
		 FROM health_thresholds WHERE tenant_id = $1
		 ORDER BY account_type NULLS LAST, account_priority NULLS LAST`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds []models.HealthThreshold
	for rows.Next() {
		var t models.HealthThreshold
		if err := rows.Scan(&t.ID, &t.TenantID, &t.AccountType, &t.AccountPriority,
			&t.DormantDays, &t.GracePeriodPercent, &t.RevenueDeclinePercent, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan threshold: %w", err)
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, rows.Err()
}

// UpsertThreshold inserts a threshold tier or, if the (tenant, type, priority)
// tier already exists, refreshes its updated_at without clobbering any
// operator-tuned policy values. Returns true when a new row was inserted.
func (s *PostgresStore) UpsertThreshold(ctx context.Context, row *models.HealthThreshold) (bool, error) {
	var created bool
	err := s.pool.QueryRow(ctx,
		`INSERT INTO health_thresholds (id, tenant_id, account_type, account_priority, dormant_days, grace_period_percent, revenue_decline_percent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (tenant_id, account_type, account_priority) DO UPDATE SET
		   updated_at = NOW()
		 RETURNING (xmax = 0)`,
		row.ID, row.TenantID, row.AccountType, row.AccountPriority,
		row.DormantDays, row.GracePeriodPercent, row.RevenueDeclinePercent,
		row.CreatedAt, row.UpdatedAt,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert threshold: %w", err)
	}
	return created, nil
}

// --- Customer Health Inputs ---

// ListCustomerHealthInputs aggregates delivered, non-cancelled order revenue
// into the trailing 365/90/60-day windows anchored at filter.AsOf for every
// open customer in scope. IsDormant is left unset here; the assessment
// service derives it against the customer's resolved threshold.
func (s *PostgresStore) ListCustomerHealthInputs(ctx context.Context, filter InputFilter) ([]models.CustomerHealthInput, error) {
	query := `
		SELECT c.id, c.tenant_id, c.name, c.account_type, c.account_priority,
		       COALESCE(SUM(o.total) FILTER (WHERE o.delivered_at >= $2 - make_interval(days => 365)), 0)::float8 AS trailing_twelve_revenue,
		       COALESCE(SUM(o.total) FILTER (WHERE o.delivered_at >= $2 - make_interval(days => 90)), 0)::float8 AS last_90_revenue,
		       COALESCE(SUM(o.total) FILTER (WHERE o.delivered_at >= $2 - make_interval(days => 60)), 0)::float8 AS last_60_revenue,
		       c.last_order_date, c.average_order_interval_days, c.dormancy_since, c.reactivated_date
		FROM customers c
		LEFT JOIN orders o
		  ON o.customer_id = c.id AND o.tenant_id = c.tenant_id
		 AND o.delivered_at IS NOT NULL AND o.delivered_at <= $2
		 AND o.status <> 'CANCELLED'
		WHERE c.tenant_id = $1 AND NOT c.is_permanently_closed`
	args := []any{filter.TenantID, filter.AsOf}

	if filter.SalesRepID != nil {
		query += ` AND c.sales_rep_id = $3`
		args = append(args, *filter.SalesRepID)
	}
	query += ` GROUP BY c.id ORDER BY c.name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customer health inputs: %w", err)
	}
	defer rows.Close()

	var inputs []models.CustomerHealthInput
	for rows.Next() {
		var in models.CustomerHealthInput
		if err := rows.Scan(&in.CustomerID, &in.TenantID, &in.Name, &in.AccountType, &in.AccountPriority,
			&in.TrailingTwelveRevenue, &in.Last90Revenue, &in.Last60Revenue,
			&in.LastOrderDate, &in.AverageOrderIntervalDays, &in.DormancySince, &in.ReactivatedDate); err != nil {
			return nil, fmt.Errorf("scan customer health input: %w", err)
		}
		inputs = append(inputs, in)
	}
	return inputs, rows.Err()
}

// ListIntervalObservations derives reorder-gap samples for one customer from
// consecutive delivered orders, plus a trailing censored interval measuring
// the still-open gap since the last order.
func (s *PostgresStore) ListIntervalObservations(ctx context.Context, tenantID, customerID uuid.UUID, asOf time.Time) ([]models.OrderIntervalObservation, error) {
	rows, err := s.pool.Query(ctx, `
		WITH delivered AS (
		  SELECT delivered_at,
		         lag(delivered_at) OVER (ORDER BY delivered_at) AS prev_delivered_at
		  FROM orders
		  WHERE tenant_id = $1 AND customer_id = $2
		    AND delivered_at IS NOT NULL AND delivered_at <= $3
		    AND status <> 'CANCELLED'
		)
		SELECT (EXTRACT(EPOCH FROM (delivered_at - prev_delivered_at)) / 86400.0)::float8 AS interval_days,
		       TRUE AS event
		FROM delivered
		WHERE prev_delivered_at IS NOT NULL
		UNION ALL
		SELECT (EXTRACT(EPOCH FROM ($3::timestamptz - MAX(delivered_at))) / 86400.0)::float8,
		       FALSE
		FROM delivered
		HAVING MAX(delivered_at) IS NOT NULL
		ORDER BY interval_days`,
		tenantID, customerID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list interval observations: %w", err)
	}
	defer rows.Close()

	var observations []models.OrderIntervalObservation
	for rows.Next() {
		obs := models.OrderIntervalObservation{CustomerID: customerID}
		if err := rows.Scan(&obs.IntervalDays, &obs.Event); err != nil {
			return nil, fmt.Errorf("scan interval observation: %w", err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

// --- Assessment writes ---

func (s *PostgresStore) ApplyAssessment(ctx context.Context, update AssessmentUpdate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin assessment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE customers SET
		   risk_status = $3,
		   average_order_interval_days = $4,
		   dormancy_since = $5,
		   reactivated_date = $6,
		   updated_at = NOW()
		 WHERE tenant_id = $1 AND id = $2`,
		update.TenantID, update.CustomerID, update.RiskStatus,
		update.AverageOrderIntervalDays, update.DormancySince, update.ReactivatedDate)
	if err != nil {
		return fmt.Errorf("update customer risk status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	snap := update.Snapshot
	_, err = tx.Exec(ctx,
		`INSERT INTO account_health_snapshots
		   (id, tenant_id, customer_id, snapshot_date, classification, risk_status, revenue_score, cadence_score, sample_utilization, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (tenant_id, customer_id, snapshot_date) DO UPDATE SET
		   classification = EXCLUDED.classification,
		   risk_status = EXCLUDED.risk_status,
		   revenue_score = EXCLUDED.revenue_score,
		   cadence_score = EXCLUDED.cadence_score,
		   sample_utilization = EXCLUDED.sample_utilization,
		   notes = EXCLUDED.notes`,
		snap.ID, snap.TenantID, snap.CustomerID, snap.SnapshotDate,
		snap.Classification, snap.RiskStatus, snap.RevenueScore, snap.CadenceScore,
		snap.SampleUtilization, snap.Notes, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert health snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit assessment tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]models.AccountHealthSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, customer_id, snapshot_date, classification, risk_status, revenue_score, cadence_score, sample_utilization, notes, created_at
		 FROM account_health_snapshots
		 WHERE tenant_id = $1 AND customer_id = $2 AND snapshot_date >= $3 AND snapshot_date <= $4
		 ORDER BY snapshot_date`,
		filter.TenantID, filter.CustomerID, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.AccountHealthSnapshot
	for rows.Next() {
		var snap models.AccountHealthSnapshot
		if err := rows.Scan(&snap.ID, &snap.TenantID, &snap.CustomerID, &snap.SnapshotDate,
			&snap.Classification, &snap.RiskStatus, &snap.RevenueScore, &snap.CadenceScore,
			&snap.SampleUtilization, &snap.Notes, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (s *PostgresStore) ListDailyScoreAverages(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]DailyScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT snapshot_date, AVG(revenue_score)::float8, AVG(cadence_score)::float8, COUNT(*)
		 FROM account_health_snapshots
		 WHERE tenant_id = $1 AND snapshot_date >= $2
		 GROUP BY snapshot_date
		 ORDER BY snapshot_date`,
		tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("list daily score averages: %w", err)
	}
	defer rows.Close()

	var scores []DailyScore
	for rows.Next() {
		var d DailyScore
		if err := rows.Scan(&d.Date, &d.AvgRevenueScore, &d.AvgCadenceScore, &d.Customers); err != nil {
			return nil, fmt.Errorf("scan daily score: %w", err)
		}
		scores = append(scores, d)
	}
	return scores, rows.Err()
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, tenant_id, type, status, sales_rep_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.TenantID, job.Type, job.Status, job.SalesRepID, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error) {
	var j models.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, type, status, sales_rep_id, error_message, summary, started_at, completed_at, created_at, updated_at
		 FROM jobs WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&j.ID, &j.TenantID, &j.Type, &j.Status, &j.SalesRepID, &j.ErrorMessage, &j.Summary,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string, opts ...JobUpdateOption) error {
	params := jobUpdateParams{}
	for _, opt := range opts {
		opt(&params)
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET
		   status = $2,
		   error_message = COALESCE($3, error_message),
		   summary = COALESCE($4, summary),
		   started_at = CASE WHEN $2 = 'running' THEN NOW() ELSE started_at END,
		   completed_at = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END,
		   updated_at = NOW()
		 WHERE id = $1`,
		id, status, params.ErrorMessage, params.Summary)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
