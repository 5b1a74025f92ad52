package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/wellcrafted/accountpulse/internal/api/middleware"
	"github.com/wellcrafted/accountpulse/internal/api/response"
	"github.com/wellcrafted/accountpulse/internal/store"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

const defaultSnapshotRangeDays = 90

// SnapshotLister defines the store slice the snapshot handler depends on.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, filter store.SnapshotFilter) ([]models.AccountHealthSnapshot, error)
}

// NewListSnapshotsHandler returns an http.HandlerFunc for
// GET /api/v1/customers/{customerID}/snapshots?from=&to=. Dates are
// YYYY-MM-DD; the range defaults to the last 90 days.
func NewListSnapshotsHandler(snapshots SnapshotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "customerID must be a valid UUID", nil)
			return
		}

		now := time.Now().UTC()
		from := now.AddDate(0, 0, -defaultSnapshotRangeDays)
		to := now

		if v := r.URL.Query().Get("from"); v != "" {
			from, err = time.Parse("2006-01-02", v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "from must be a YYYY-MM-DD date", nil)
				return
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			to, err = time.Parse("2006-01-02", v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "to must be a YYYY-MM-DD date", nil)
				return
			}
		}
		if to.Before(from) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "to must not be before from", nil)
			return
		}

		series, err := snapshots.ListSnapshots(r.Context(), store.SnapshotFilter{
			TenantID:   tenantID,
			CustomerID: customerID,
			From:       from,
			To:         to,
		})
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		if series == nil {
			series = []models.AccountHealthSnapshot{}
		}

		response.JSON(w, series)
	}
}
