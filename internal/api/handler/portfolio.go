package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	mw "github.com/wellcrafted/accountpulse/internal/api/middleware"
	"github.com/wellcrafted/accountpulse/internal/api/response"
	"github.com/wellcrafted/accountpulse/internal/assessment"
	"github.com/wellcrafted/accountpulse/internal/threshold"
)

// PortfolioBuilder defines the interface the portfolio handler depends on.
type PortfolioBuilder interface {
	Portfolio(ctx context.Context, params assessment.PortfolioParams) (*assessment.PortfolioReport, error)
}

// NewPortfolioHandler returns an http.HandlerFunc for
// GET /api/v1/portfolio?sales_rep_id=. Without sales_rep_id the report
// covers the whole tenant.
func NewPortfolioHandler(svc PortfolioBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		params := assessment.PortfolioParams{TenantID: tenantID}

		if v := r.URL.Query().Get("sales_rep_id"); v != "" {
			repID, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "sales_rep_id must be a valid UUID", nil)
				return
			}
			params.SalesRepID = &repID
		}

		report, err := svc.Portfolio(r.Context(), params)
		if err != nil {
			if errors.Is(err, threshold.ErrNoDefault) {
				response.Error(w, http.StatusConflict, "THRESHOLDS_NOT_SEEDED",
					"No default health threshold configured; run threshold seeding first", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, report)
	}
}
