// Package threshold resolves tiered per-tenant health policy. A tier is an
// (account type, account priority) combination; a nil field is a wildcard.
// Resolution walks an explicit, ordered matcher list so the fallback order is
// an enumerable contract rather than an implicit chain.
package threshold

import (
	"errors"

	"github.com/wellcrafted/accountpulse/pkg/models"
)

// ErrNoDefault means the tenant has no wildcard threshold row. This is a
// fatal configuration error: assessment must abort rather than substitute a
// hardcoded policy.
var ErrNoDefault = errors.New("no default health threshold configured for tenant")

type tierKey struct {
	accountType     string
	accountPriority string
}

// wildcard marks an unset tier field inside the lookup key.
const wildcard = "*"

func keyFor(accountType, accountPriority *string) tierKey {
	k := tierKey{accountType: wildcard, accountPriority: wildcard}
	if accountType != nil {
		k.accountType = *accountType
	}
	if accountPriority != nil {
		k.accountPriority = *accountPriority
	}
	return k
}

// Resolver answers threshold lookups for one tenant from an in-memory tier
// index, so the hot per-customer path never touches the store.
type Resolver struct {
	tiers map[tierKey]models.HealthThreshold
}

// NewResolver indexes a tenant's threshold rows. Returns ErrNoDefault if the
// rows contain no wildcard default tier.
func NewResolver(rows []models.HealthThreshold) (*Resolver, error) {
	tiers := make(map[tierKey]models.HealthThreshold, len(rows))
	hasDefault := false
	for _, row := range rows {
		tiers[keyFor(row.AccountType, row.AccountPriority)] = row
		if row.IsDefault() {
			hasDefault = true
		}
	}
	if !hasDefault {
		return nil, ErrNoDefault
	}
	return &Resolver{tiers: tiers}, nil
}

// Resolve returns the threshold for a customer's tier. Candidate tiers are
// tried in order, first match wins:
//
//  1. exact (type, priority)
//  2. (type, any priority)
//  3. (any type, priority)
//  4. tenant-wide default
//
// Once a default exists resolution cannot fail, so the error path only fires
// on a Resolver constructed from rows without a default, which NewResolver
// prevents.
func (r *Resolver) Resolve(accountType, accountPriority *string) (models.HealthThreshold, error) {
	candidates := []tierKey{
		keyFor(accountType, accountPriority),
		keyFor(accountType, nil),
		keyFor(nil, accountPriority),
		keyFor(nil, nil),
	}
	for _, key := range candidates {
		if t, ok := r.tiers[key]; ok {
			return t, nil
		}
	}
	return models.HealthThreshold{}, ErrNoDefault
}
