package threshold

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

// Baseline policy used for every seeded tier. Tenants tune individual tiers
// after seeding; seeding never overwrites the policy values of an existing
// row beyond refreshing updated_at.
const (
	DefaultDormantDays           = 45
	DefaultGracePeriodPercent    = 0.10
	DefaultRevenueDeclinePercent = 0.05
)

// SeedResult reports what a seeding pass did.
type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Upserter is the slice of the store the seeder needs.
type Upserter interface {
	UpsertThreshold(ctx context.Context, row *models.HealthThreshold) (created bool, err error)
}

// Seed upserts one threshold row per known (account type, account priority)
// combination plus the tenant-wide wildcard default. Idempotent: rerunning
// creates no duplicates and reports rows created vs updated.
func Seed(ctx context.Context, store Upserter, tenantID uuid.UUID) (SeedResult, error) {
	var result SeedResult
	now := time.Now().UTC()

	seedOne := func(accountType, accountPriority *string) error {
		row := &models.HealthThreshold{
			ID:                    uuid.New(),
			TenantID:              tenantID,
			AccountType:           accountType,
			AccountPriority:       accountPriority,
			DormantDays:           DefaultDormantDays,
			GracePeriodPercent:    DefaultGracePeriodPercent,
			RevenueDeclinePercent: DefaultRevenueDeclinePercent,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		created, err := store.UpsertThreshold(ctx, row)
		if err != nil {
			return fmt.Errorf("seed threshold tier (%v, %v): %w", fmtTier(accountType), fmtTier(accountPriority), err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		return nil
	}

	// Wildcard default first: even a partially failed seeding pass leaves the
	// tenant resolvable.
	if err := seedOne(nil, nil); err != nil {
		return result, err
	}

	for _, accountType := range models.AccountTypes {
		at := accountType
		for _, accountPriority := range models.AccountPriorities {
			ap := accountPriority
			if err := seedOne(&at, &ap); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

func fmtTier(v *string) string {
	if v == nil {
		return "any"
	}
	return *v
}
