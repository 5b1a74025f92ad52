package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

// PortfolioReportKey caches a computed portfolio report per tenant and scope.
// Scope is "tenant" or the sales rep UUID.
func PortfolioReportKey(tenantID uuid.UUID, scope string) string {
	return fmt.Sprintf("portfolio:%s:%s", tenantID, scope)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
