// Package assessment orchestrates health assessment runs: loading customer
// aggregates, classifying revenue trends, estimating reorder cadence, and
// writing risk statuses and daily snapshots back through the store in
// bounded, independently-committed batches.
package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wellcrafted/accountpulse/internal/cache"
	"github.com/wellcrafted/accountpulse/internal/config"
	"github.com/wellcrafted/accountpulse/internal/health"
	"github.com/wellcrafted/accountpulse/internal/store"
	"github.com/wellcrafted/accountpulse/internal/survival"
	"github.com/wellcrafted/accountpulse/internal/threshold"
	"github.com/wellcrafted/accountpulse/pkg/models"
)

const jobStatusTTL = 30 * time.Minute

// Service runs and tracks customer health assessments.
type Service struct {
	store store.Store
	cache cache.Cache
	cfg   config.AssessmentConfig
	now   func() time.Time
}

// NewService creates an assessment Service.
func NewService(st store.Store, ca cache.Cache, cfg config.AssessmentConfig) *Service {
	return &Service{store: st, cache: ca, cfg: cfg, now: time.Now}
}

// RunParams scopes one assessment run. A nil SalesRepID assesses the whole
// tenant. A zero AsOf anchors the run at the current time.
type RunParams struct {
	TenantID   uuid.UUID
	SalesRepID *uuid.UUID
	AsOf       time.Time
	JobID      uuid.UUID
}

// Failure records one customer the run could not assess.
type Failure struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason"`
}

// Summary is the structured result of an assessment run.
type Summary struct {
	Processed    int            `json:"processed"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	Failures     []Failure      `json:"failures,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	StatusCounts map[string]int `json:"status_counts"`
	Reactivated  int            `json:"reactivated"`
	Cancelled    bool           `json:"cancelled,omitempty"`
}

// Trigger creates a pending job and dispatches the assessment in a background
// goroutine. Returns the job immediately without waiting for the run.
func (s *Service) Trigger(ctx context.Context, params RunParams) (*models.Job, error) {
	now := s.now().UTC()
	job := &models.Job{
		ID:         uuid.New(),
		TenantID:   params.TenantID,
		Type:       "health-assessment",
		Status:     models.JobStatusPending,
		SalesRepID: params.SalesRepID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating assessment job: %w", err)
	}

	_ = s.cache.SetJobStatus(ctx, job.ID, models.JobStatusPending, jobStatusTTL)

	go s.runJob(job.ID, params)

	return job, nil
}

// runJob drives a triggered run in the background, recovering from panics and
// always leaving the job completed or failed with the summary persisted.
func (s *Service) runJob(jobID uuid.UUID, params RunParams) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in assessment run", "error", r, "job_id", jobID)
			_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusFailed,
				store.WithErrorMessage(fmt.Sprintf("panic: %v", r)))
			_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusFailed, jobStatusTTL)
		}
	}()

	_ = s.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning)
	_ = s.cache.SetJobStatus(ctx, jobID, models.JobStatusRunning, jobStatusTTL)

	params.JobID = jobID
	summary, err := s.Run(ctx, params)

	opts := []store.JobUpdateOption{}
	if summary != nil {
		if payload, jsonErr := json.Marshal(summary); jsonErr == nil {
			opts = append(opts, store.WithSummary(payload))
		}
	}

	status := models.JobStatusCompleted
	if err != nil {
		status = models.JobStatusFailed
		opts = append(opts, store.WithErrorMessage(err.Error()))
	}

	// Best effort: the job row may be unreadable for the same reason the run
	// failed, and the cache mirror covers pollers in the meantime.
	writeCtx, writeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer writeCancel()
	_ = s.store.UpdateJobStatus(writeCtx, jobID, status, opts...)
	_ = s.cache.SetJobStatus(writeCtx, jobID, status, jobStatusTTL)
}

// Run performs one synchronous assessment. Systemic problems (store down,
// missing tenant default threshold) abort with an error; per-customer
// problems are recorded in the summary and never stop the run. Cancellation
// is honored between batches, preserving already-committed work.
func (s *Service) Run(ctx context.Context, params RunParams) (*Summary, error) {
	start := s.now()
	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = start.UTC()
	}

	logger := slog.With("job_id", params.JobID, "tenant_id", params.TenantID)

	rows, err := s.store.ListThresholds(ctx, params.TenantID)
	if err != nil {
		return nil, fmt.Errorf("loading thresholds: %w", err)
	}
	resolver, err := threshold.NewResolver(rows)
	if err != nil {
		// Fatal configuration error: never substitute a hardcoded policy.
		return nil, fmt.Errorf("tenant %s: %w", params.TenantID, err)
	}

	inputs, err := s.store.ListCustomerHealthInputs(ctx, store.InputFilter{
		TenantID:   params.TenantID,
		SalesRepID: params.SalesRepID,
		AsOf:       asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("loading customer health inputs: %w", err)
	}

	logger.Info("assessment started", "customers", len(inputs), "batch_size", s.cfg.BatchSize)

	summary := &Summary{StatusCounts: map[string]int{}}

	for batchStart := 0; batchStart < len(inputs); batchStart += s.cfg.BatchSize {
		if ctx.Err() != nil {
			summary.Cancelled = true
			logger.Warn("assessment cancelled at batch boundary",
				"batch", batchStart/s.cfg.BatchSize, "processed", summary.Processed)
			break
		}

		end := batchStart + s.cfg.BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		outcomes := s.processBatch(ctx, inputs[batchStart:end], resolver, asOf)
		for _, out := range outcomes {
			summary.Processed++
			if out.err != nil {
				summary.Failed++
				summary.Failures = append(summary.Failures, Failure{
					CustomerID: out.customerID,
					Reason:     out.err.Error(),
				})
				continue
			}
			summary.Succeeded++
			summary.StatusCounts[out.riskStatus]++
			if out.reactivated {
				summary.Reactivated++
			}
		}

		logger.Info("assessment batch complete",
			"batch", batchStart/s.cfg.BatchSize,
			"processed", summary.Processed,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed)
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	logger.Info("assessment finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration_ms", summary.DurationMs)

	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

type outcome struct {
	customerID  uuid.UUID
	riskStatus  string
	reactivated bool
	err         error
}

// processBatch assesses one batch of customers with a bounded worker pool.
// Customers are independent; no ordering is guaranteed within a batch.
func (s *Service) processBatch(ctx context.Context, batch []models.CustomerHealthInput, resolver *threshold.Resolver, asOf time.Time) []outcome {
	sem := make(chan struct{}, s.cfg.Workers)
	results := make(chan outcome, len(batch))

	var wg sync.WaitGroup
	for _, input := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(in models.CustomerHealthInput) {
			defer wg.Done()
			defer func() { <-sem }()
			results <- s.assessCustomer(ctx, in, resolver, asOf)
		}(input)
	}
	wg.Wait()
	close(results)

	outcomes := make([]outcome, 0, len(batch))
	for out := range results {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// assessCustomer runs the full per-customer pipeline: validate, resolve
// threshold, classify, estimate cadence, derive risk status, and commit the
// customer update and snapshot atomically.
func (s *Service) assessCustomer(ctx context.Context, input models.CustomerHealthInput, resolver *threshold.Resolver, asOf time.Time) outcome {
	out := outcome{customerID: input.CustomerID}

	if err := validateInput(input); err != nil {
		out.err = err
		return out
	}

	tier, err := resolver.Resolve(input.AccountType, input.AccountPriority)
	if err != nil {
		out.err = fmt.Errorf("resolving threshold: %w", err)
		return out
	}

	daysSince := -1.0
	if input.LastOrderDate != nil {
		daysSince = asOf.Sub(*input.LastOrderDate).Hours() / 24
	}
	input.IsDormant = isDormant(daysSince, tier.DormantDays, s.cfg.DormantLookbackDays)

	classification := health.Classify(input, tier)
	out.riskStatus = health.DeriveRiskStatus(classification, daysSince, tier)

	observations, err := s.store.ListIntervalObservations(ctx, input.TenantID, input.CustomerID, asOf)
	if err != nil {
		out.err = fmt.Errorf("loading interval observations: %w", err)
		return out
	}
	for _, obs := range observations {
		if obs.IntervalDays < 0 {
			out.err = fmt.Errorf("invalid interval observation: %.1f days", obs.IntervalDays)
			return out
		}
	}

	cadenceMedian, cadenceOK := survival.Median(toSurvival(observations))

	update := store.AssessmentUpdate{
		TenantID:        input.TenantID,
		CustomerID:      input.CustomerID,
		RiskStatus:      out.riskStatus,
		DormancySince:   input.DormancySince,
		ReactivatedDate: input.ReactivatedDate,
	}

	if cadenceOK {
		update.AverageOrderIntervalDays = &cadenceMedian
	} else {
		update.AverageOrderIntervalDays = input.AverageOrderIntervalDays
	}

	// Dormancy transitions: stamp dormancy_since on entry, reactivated_date
	// on exit. Both are kept unchanged while the state persists.
	if out.riskStatus == models.RiskDormant {
		if input.DormancySince == nil {
			dormancyStart := asOf
			update.DormancySince = &dormancyStart
			update.ReactivatedDate = nil
		}
	} else if input.DormancySince != nil {
		reactivated := asOf
		update.ReactivatedDate = &reactivated
		update.DormancySince = nil
		out.reactivated = true
	}

	update.Snapshot = buildSnapshot(input, classification, out.riskStatus, daysSince, cadenceMedian, cadenceOK, observations, tier, asOf)

	if err := s.store.ApplyAssessment(ctx, update); err != nil {
		out.err = fmt.Errorf("writing assessment: %w", err)
		return out
	}
	return out
}

func validateInput(input models.CustomerHealthInput) error {
	if input.TrailingTwelveRevenue < 0 || input.Last90Revenue < 0 || input.Last60Revenue < 0 {
		return fmt.Errorf("negative revenue aggregate (ttm=%.2f, last90=%.2f, last60=%.2f)",
			input.TrailingTwelveRevenue, input.Last90Revenue, input.Last60Revenue)
	}
	return nil
}

// isDormant flags a customer whose last order is older than the tier's
// dormancy window but recent enough to still count as a lapsed account rather
// than long-churned history.
func isDormant(daysSince float64, dormantDays, lookbackDays int) bool {
	if daysSince < 0 {
		return false
	}
	return daysSince >= float64(dormantDays) && daysSince <= float64(lookbackDays)
}

func toSurvival(observations []models.OrderIntervalObservation) []survival.Observation {
	converted := make([]survival.Observation, len(observations))
	for i, obs := range observations {
		converted[i] = survival.Observation{Time: obs.IntervalDays, Event: obs.Event}
	}
	return converted
}
