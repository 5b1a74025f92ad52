package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wellcrafted/accountpulse/internal/store"
	"github.com/wellcrafted/accountpulse/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("accountpulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// defaultTenantID returns the UUID of the seeded default tenant.
func defaultTenantID(t *testing.T, s store.Store) uuid.UUID {
	t.Helper()
	tenant, err := s.GetDefaultTenant(context.Background())
	require.NoError(t, err)
	return tenant.ID
}

// insertCustomer seeds a customer row directly; orders and assessments flow
// through the Store, but customer onboarding is out of scope for it.
func insertCustomer(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, name string, salesRepID *uuid.UUID, lastOrder *time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO customers (id, tenant_id, sales_rep_id, name, account_type, account_priority, last_order_date)
		 VALUES ($1, $2, $3, $4, 'ACTIVE', 'A', $5)`,
		id, tenantID, salesRepID, name, lastOrder)
	require.NoError(t, err)
	return id
}

func insertOrder(t *testing.T, pool *pgxpool.Pool, tenantID, customerID uuid.UUID, total float64, status string, deliveredAt *time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO orders (tenant_id, customer_id, status, total, ordered_at, delivered_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), $5)`,
		tenantID, customerID, status, total, deliveredAt)
	require.NoError(t, err)
}

func strPtr(s string) *string { return &s }

func timePtr(ts time.Time) *time.Time { return &ts }

func daysBefore(anchor time.Time, days int) time.Time {
	return anchor.AddDate(0, 0, -days)
}

// --- Tenant Tests ---

func TestGetDefaultTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	tenant, err := s.GetDefaultTenant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Well Crafted", tenant.Name)
	assert.Equal(t, "well-crafted", tenant.Slug)
	assert.NotEqual(t, uuid.Nil, tenant.ID)
}

// --- API Key Tests ---

func TestAPIKey_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	now := time.Now().UTC().Truncate(time.Microsecond)
	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "test-key",
		KeyHash:   "bcrypt-hash-here",
		KeyPrefix: "ap_abcd1",
		Scopes:    []string{"read", "admin"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.CreateAPIKey(ctx, key)
	require.NoError(t, err)

	keys, err := s.GetAPIKeyByPrefix(ctx, "ap_abcd1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, "bcrypt-hash-here", keys[0].KeyHash)
	assert.Equal(t, []string{"read", "admin"}, keys[0].Scopes)
	assert.Nil(t, keys[0].LastUsedAt)
}

func TestAPIKey_List(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, name := range []string{"key-one", "key-two"} {
		require.NoError(t, s.CreateAPIKey(ctx, &models.APIKey{
			ID: uuid.New(), TenantID: tenantID, Name: name, KeyHash: "hash",
			KeyPrefix: "ap_" + name[4:], Scopes: []string{"read"},
			CreatedAt: now, UpdatedAt: now,
		}))
	}

	keys, err := s.ListAPIKeys(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestAPIKey_Revoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "revoke-me",
		KeyHash:   "hash",
		KeyPrefix: "ap_revk1",
		Scopes:    []string{"read"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	// Revoke
	err := s.RevokeAPIKey(ctx, key.ID, tenantID)
	require.NoError(t, err)

	// Should not appear in list or prefix lookup
	keys, err := s.ListAPIKeys(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = s.GetAPIKeyByPrefix(ctx, "ap_revk1")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestAPIKey_RevokeNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.RevokeAPIKey(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAPIKey_UpdateLastUsed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "usage-key",
		KeyHash:   "hash",
		KeyPrefix: "ap_used1",
		Scopes:    []string{"read"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	err := s.UpdateAPIKeyLastUsed(ctx, key.ID)
	require.NoError(t, err)

	keys, err := s.GetAPIKeyByPrefix(ctx, "ap_used1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.NotNil(t, keys[0].LastUsedAt)
}

func TestAPIKey_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	id := uuid.New()
	key := &models.APIKey{
		ID: id, TenantID: tenantID, Name: "dup1", KeyHash: "h1", KeyPrefix: "ap_dup01",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	key2 := &models.APIKey{
		ID: id, TenantID: tenantID, Name: "dup2", KeyHash: "h2", KeyPrefix: "ap_dup02",
		Scopes: []string{"read"}, CreatedAt: now, UpdatedAt: now,
	}
	err := s.CreateAPIKey(ctx, key2)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

// --- Threshold Tests ---

func newThreshold(tenantID uuid.UUID, accountType, priority *string) *models.HealthThreshold {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.HealthThreshold{
		ID:                    uuid.New(),
		TenantID:              tenantID,
		AccountType:           accountType,
		AccountPriority:       priority,
		DormantDays:           45,
		GracePeriodPercent:    0.10,
		RevenueDeclinePercent: 0.05,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestThreshold_UpsertCreates(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	created, err := s.UpsertThreshold(ctx, newThreshold(tenantID, strPtr("ACTIVE"), strPtr("A")))
	require.NoError(t, err)
	assert.True(t, created)

	// Same tier again is an update, not a second row
	created, err = s.UpsertThreshold(ctx, newThreshold(tenantID, strPtr("ACTIVE"), strPtr("A")))
	require.NoError(t, err)
	assert.False(t, created)

	rows, err := s.ListThresholds(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestThreshold_UpsertWildcardOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	// NULL type + NULL priority is still one tier; reseeding must not duplicate it
	created, err := s.UpsertThreshold(ctx, newThreshold(tenantID, nil, nil))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.UpsertThreshold(ctx, newThreshold(tenantID, nil, nil))
	require.NoError(t, err)
	assert.False(t, created)
}

func TestThreshold_UpsertPreservesTunedValues(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	_, err := s.UpsertThreshold(ctx, newThreshold(tenantID, nil, nil))
	require.NoError(t, err)

	// Operator tunes the tier out of band
	_, err = pool.Exec(ctx,
		`UPDATE health_thresholds SET dormant_days = 90 WHERE tenant_id = $1 AND account_type IS NULL AND account_priority IS NULL`,
		tenantID)
	require.NoError(t, err)

	// Reseeding with defaults must not clobber the tuned value
	created, err := s.UpsertThreshold(ctx, newThreshold(tenantID, nil, nil))
	require.NoError(t, err)
	assert.False(t, created)

	rows, err := s.ListThresholds(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 90, rows[0].DormantDays)
}

func TestThreshold_ListOrdersWildcardLast(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	_, err := s.UpsertThreshold(ctx, newThreshold(tenantID, nil, nil))
	require.NoError(t, err)
	_, err = s.UpsertThreshold(ctx, newThreshold(tenantID, strPtr("ACTIVE"), strPtr("A")))
	require.NoError(t, err)

	rows, err := s.ListThresholds(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.NotNil(t, rows[0].AccountType)
	assert.True(t, rows[1].IsDefault())
}

// --- Customer Health Input Tests ---

func TestHealthInputs_WindowedRevenue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	asOf := time.Now().UTC().Truncate(time.Microsecond)

	lastOrder := daysBefore(asOf, 30)
	customerID := insertCustomer(t, pool, tenantID, "Acme Bakery", nil, &lastOrder)

	insertOrder(t, pool, tenantID, customerID, 1000, "DELIVERED", timePtr(daysBefore(asOf, 30)))
	insertOrder(t, pool, tenantID, customerID, 500, "DELIVERED", timePtr(daysBefore(asOf, 70)))
	insertOrder(t, pool, tenantID, customerID, 2000, "DELIVERED", timePtr(daysBefore(asOf, 200)))
	// Cancelled and undelivered orders never count toward revenue
	insertOrder(t, pool, tenantID, customerID, 999, "CANCELLED", timePtr(daysBefore(asOf, 10)))
	insertOrder(t, pool, tenantID, customerID, 777, "PENDING", nil)

	inputs, err := s.ListCustomerHealthInputs(ctx, store.InputFilter{TenantID: tenantID, AsOf: asOf})
	require.NoError(t, err)
	require.Len(t, inputs, 1)

	in := inputs[0]
	assert.Equal(t, customerID, in.CustomerID)
	assert.Equal(t, "Acme Bakery", in.Name)
	assert.InDelta(t, 3500, in.TrailingTwelveRevenue, 0.001)
	assert.InDelta(t, 1500, in.Last90Revenue, 0.001)
	assert.InDelta(t, 1000, in.Last60Revenue, 0.001)
	require.NotNil(t, in.LastOrderDate)
}

func TestHealthInputs_ScopedToSalesRep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	repID := uuid.New()

	insertCustomer(t, pool, tenantID, "Rep Account", &repID, nil)
	insertCustomer(t, pool, tenantID, "Other Account", nil, nil)

	inputs, err := s.ListCustomerHealthInputs(ctx, store.InputFilter{
		TenantID: tenantID, SalesRepID: &repID, AsOf: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Rep Account", inputs[0].Name)
}

func TestHealthInputs_ExcludesClosedCustomers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	insertCustomer(t, pool, tenantID, "Open Shop", nil, nil)
	closedID := insertCustomer(t, pool, tenantID, "Closed Shop", nil, nil)
	_, err := pool.Exec(ctx, `UPDATE customers SET is_permanently_closed = TRUE WHERE id = $1`, closedID)
	require.NoError(t, err)

	inputs, err := s.ListCustomerHealthInputs(ctx, store.InputFilter{TenantID: tenantID, AsOf: time.Now().UTC()})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "Open Shop", inputs[0].Name)
}

func TestHealthInputs_NoOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	insertCustomer(t, pool, tenantID, "Never Ordered", nil, nil)

	inputs, err := s.ListCustomerHealthInputs(ctx, store.InputFilter{TenantID: tenantID, AsOf: time.Now().UTC()})
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Zero(t, inputs[0].TrailingTwelveRevenue)
	assert.Nil(t, inputs[0].LastOrderDate)
}

// --- Interval Observation Tests ---

func TestIntervalObservations_GapsAndCensoredTail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	asOf := time.Now().UTC().Truncate(time.Microsecond)

	customerID := insertCustomer(t, pool, tenantID, "Steady Orderer", nil, nil)
	insertOrder(t, pool, tenantID, customerID, 100, "DELIVERED", timePtr(daysBefore(asOf, 100)))
	insertOrder(t, pool, tenantID, customerID, 100, "DELIVERED", timePtr(daysBefore(asOf, 70)))
	insertOrder(t, pool, tenantID, customerID, 100, "DELIVERED", timePtr(daysBefore(asOf, 40)))

	obs, err := s.ListIntervalObservations(ctx, tenantID, customerID, asOf)
	require.NoError(t, err)
	require.Len(t, obs, 3)

	// Two 30-day reorder gaps, then the 40-day open gap since the last order
	assert.InDelta(t, 30, obs[0].IntervalDays, 0.001)
	assert.True(t, obs[0].Event)
	assert.InDelta(t, 30, obs[1].IntervalDays, 0.001)
	assert.True(t, obs[1].Event)
	assert.InDelta(t, 40, obs[2].IntervalDays, 0.001)
	assert.False(t, obs[2].Event)
}

func TestIntervalObservations_NoOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)

	customerID := insertCustomer(t, pool, tenantID, "No Orders", nil, nil)

	obs, err := s.ListIntervalObservations(ctx, tenantID, customerID, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, obs)
}

// --- Assessment Write Tests ---

func snapshotFor(tenantID, customerID uuid.UUID, date time.Time, revenueScore, cadenceScore float64) models.AccountHealthSnapshot {
	return models.AccountHealthSnapshot{
		ID:                uuid.New(),
		TenantID:          tenantID,
		CustomerID:        customerID,
		SnapshotDate:      date,
		Classification:    "STABLE",
		RiskStatus:        models.RiskHealthy,
		RevenueScore:      revenueScore,
		CadenceScore:      cadenceScore,
		SampleUtilization: 100,
		Notes:             strPtr("cadence median 30.0d"),
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestApplyAssessment(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	customerID := insertCustomer(t, pool, tenantID, "Assessed Co", nil, nil)

	interval := 32.5
	err := s.ApplyAssessment(ctx, store.AssessmentUpdate{
		TenantID:                 tenantID,
		CustomerID:               customerID,
		RiskStatus:               models.RiskAtRiskCadence,
		AverageOrderIntervalDays: &interval,
		Snapshot:                 snapshotFor(tenantID, customerID, today, 70, 40),
	})
	require.NoError(t, err)

	var riskStatus string
	var avgInterval *float64
	err = pool.QueryRow(ctx,
		`SELECT risk_status, average_order_interval_days FROM customers WHERE id = $1`, customerID,
	).Scan(&riskStatus, &avgInterval)
	require.NoError(t, err)
	assert.Equal(t, models.RiskAtRiskCadence, riskStatus)
	require.NotNil(t, avgInterval)
	assert.InDelta(t, 32.5, *avgInterval, 0.001)

	snaps, err := s.ListSnapshots(ctx, store.SnapshotFilter{
		TenantID: tenantID, CustomerID: customerID,
		From: daysBefore(today, 1), To: today,
	})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.InDelta(t, 70, snaps[0].RevenueScore, 0.001)
	assert.InDelta(t, 40, snaps[0].CadenceScore, 0.001)
}

func TestApplyAssessment_CustomerNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	tenantID := defaultTenantID(t, s)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	missing := uuid.New()
	err := s.ApplyAssessment(context.Background(), store.AssessmentUpdate{
		TenantID:   tenantID,
		CustomerID: missing,
		RiskStatus: models.RiskHealthy,
		Snapshot:   snapshotFor(tenantID, missing, today, 100, 100),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyAssessment_SameDayOverwrite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	customerID := insertCustomer(t, pool, tenantID, "Rerun Co", nil, nil)

	update := store.AssessmentUpdate{
		TenantID:   tenantID,
		CustomerID: customerID,
		RiskStatus: models.RiskHealthy,
		Snapshot:   snapshotFor(tenantID, customerID, today, 100, 100),
	}
	require.NoError(t, s.ApplyAssessment(ctx, update))

	// A second run on the same day replaces the day's snapshot
	update.RiskStatus = models.RiskAtRiskRevenue
	update.Snapshot = snapshotFor(tenantID, customerID, today, 40, 80)
	update.Snapshot.RiskStatus = models.RiskAtRiskRevenue
	require.NoError(t, s.ApplyAssessment(ctx, update))

	snaps, err := s.ListSnapshots(ctx, store.SnapshotFilter{
		TenantID: tenantID, CustomerID: customerID,
		From: daysBefore(today, 1), To: today,
	})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.InDelta(t, 40, snaps[0].RevenueScore, 0.001)
	assert.Equal(t, models.RiskAtRiskRevenue, snaps[0].RiskStatus)
}

func TestListSnapshots_Range(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	customerID := insertCustomer(t, pool, tenantID, "History Co", nil, nil)
	for _, offset := range []int{10, 5, 1} {
		require.NoError(t, s.ApplyAssessment(ctx, store.AssessmentUpdate{
			TenantID:   tenantID,
			CustomerID: customerID,
			RiskStatus: models.RiskHealthy,
			Snapshot:   snapshotFor(tenantID, customerID, daysBefore(today, offset), 100, 100),
		}))
	}

	snaps, err := s.ListSnapshots(ctx, store.SnapshotFilter{
		TenantID: tenantID, CustomerID: customerID,
		From: daysBefore(today, 6), To: today,
	})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	// Ascending by date
	assert.True(t, snaps[0].SnapshotDate.Before(snaps[1].SnapshotDate))
}

func TestListDailyScoreAverages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	c1 := insertCustomer(t, pool, tenantID, "Avg One", nil, nil)
	c2 := insertCustomer(t, pool, tenantID, "Avg Two", nil, nil)
	require.NoError(t, s.ApplyAssessment(ctx, store.AssessmentUpdate{
		TenantID: tenantID, CustomerID: c1, RiskStatus: models.RiskHealthy,
		Snapshot: snapshotFor(tenantID, c1, today, 100, 80),
	}))
	require.NoError(t, s.ApplyAssessment(ctx, store.AssessmentUpdate{
		TenantID: tenantID, CustomerID: c2, RiskStatus: models.RiskHealthy,
		Snapshot: snapshotFor(tenantID, c2, today, 40, 60),
	}))

	scores, err := s.ListDailyScoreAverages(ctx, tenantID, daysBefore(today, 7))
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 70, scores[0].AvgRevenueScore, 0.001)
	assert.InDelta(t, 70, scores[0].AvgCadenceScore, 0.001)
	assert.Equal(t, 2, scores[0].Customers)
}

// --- Job Tests ---

func TestJob_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	repID := uuid.New()
	job := &models.Job{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Type:       "health-assessment",
		Status:     models.JobStatusPending,
		SalesRepID: &repID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "health-assessment", got.Type)
	assert.Equal(t, models.JobStatusPending, got.Status)
	require.NotNil(t, got.SalesRepID)
	assert.Equal(t, repID, *got.SalesRepID)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestJob_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetJob(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJob_StatusTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	job := &models.Job{
		ID: uuid.New(), TenantID: tenantID, Type: "health-assessment",
		Status: models.JobStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusRunning))
	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)

	summary := json.RawMessage(`{"customers_assessed":12,"succeeded":11,"failed":1}`)
	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusCompleted, store.WithSummary(summary)))
	got, err = s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.JSONEq(t, string(summary), string(got.Summary))
}

func TestJob_FailureRecordsErrorMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	tenantID := defaultTenantID(t, s)
	now := time.Now().UTC().Truncate(time.Microsecond)

	job := &models.Job{
		ID: uuid.New(), TenantID: tenantID, Type: "health-assessment",
		Status: models.JobStatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateJob(ctx, job))

	require.NoError(t, s.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed,
		store.WithErrorMessage("no default threshold configured")))

	got, err := s.GetJob(ctx, job.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "no default threshold configured", *got.ErrorMessage)
	assert.NotNil(t, got.CompletedAt)
}
