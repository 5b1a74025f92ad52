// Package handler contains the HTTP handlers for the AccountPulse API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/wellcrafted/accountpulse/internal/api/middleware"
	"github.com/wellcrafted/accountpulse/internal/api/response"
	"github.com/wellcrafted/accountpulse/internal/assessment"
	"github.com/wellcrafted/accountpulse/internal/store"
	"github.com/wellcrafted/accountpulse/internal/threshold"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

// AssessmentTrigger defines the interface the trigger handler depends on.
type AssessmentTrigger interface {
	Trigger(ctx context.Context, params assessment.RunParams) (*models.Job, error)
}

// NewTriggerAssessmentHandler returns an http.HandlerFunc for POST /api/v1/assessments.
// The run executes asynchronously; the response carries the job to poll.
func NewTriggerAssessmentHandler(svc AssessmentTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req struct {
			SalesRepID *string `json:"sales_rep_id"`
			AsOf       *string `json:"as_of"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
		}

		params := assessment.RunParams{TenantID: tenantID}

		if req.SalesRepID != nil {
			repID, err := uuid.Parse(*req.SalesRepID)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "sales_rep_id must be a valid UUID", nil)
				return
			}
			params.SalesRepID = &repID
		}

		if req.AsOf != nil {
			asOf, err := time.Parse(time.RFC3339, *req.AsOf)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "as_of must be a valid RFC3339 timestamp", nil)
				return
			}
			params.AsOf = asOf
		}

		job, err := svc.Trigger(r.Context(), params)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to start assessment", nil)
			return
		}

		response.Accepted(w, job)
	}
}

// JobFinder defines the store slice the poll handler depends on.
type JobFinder interface {
	GetJob(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Job, error)
}

// NewPollAssessmentHandler returns an http.HandlerFunc for GET /api/v1/assessments/{jobID}.
func NewPollAssessmentHandler(jobs JobFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a valid UUID", nil)
			return
		}

		job, err := jobs.GetJob(r.Context(), jobID, tenantID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, job)
	}
}

// NewSeedThresholdsHandler returns an http.HandlerFunc for
// POST /api/v1/admin/thresholds/seed (admin scope). Idempotent; the response
// reports rows created vs updated.
func NewSeedThresholdsHandler(seeder threshold.Upserter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		result, err := threshold.Seed(r.Context(), seeder, tenantID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to seed thresholds", nil)
			return
		}

		response.JSON(w, result)
	}
}
