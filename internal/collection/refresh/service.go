// Package refresh re-collects automatically detectable fields for every
// project in the dataset and folds them back into the stored records.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ecoregistry/internal/collection/metrics"
	"ecoregistry/internal/collection/orchestrator"
	"ecoregistry/internal/registry/confidence"
	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/validator"
)

// DefaultConcurrency bounds how many projects are collected at once. All of
// them share one client and therefore one rate-limit budget.
const DefaultConcurrency = 4

// Outcome values for ProjectResult.Outcome.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeSkipped   = "skipped"
	OutcomeNotFound  = "not_found"
	OutcomeFailed    = "failed"
)

// Collector produces the collected fields for one repository.
type Collector interface {
	Collect(ctx context.Context, repoURL string) (*orchestrator.Result, error)
}

// Store loads and persists the dataset.
type Store interface {
	Load(ctx context.Context) ([]models.Record, error)
	Save(ctx context.Context, records []models.Record) error
}

// ProjectResult reports the refresh of one record.
type ProjectResult struct {
	ProjectID string   `json:"project_id"`
	Outcome   string   `json:"outcome"`
	Updated   []string `json:"updated,omitempty"`
	Kept      []string `json:"kept,omitempty"`
	Notes     []string `json:"notes,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Summary reports one refresh run.
type Summary struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Projects   []ProjectResult `json:"projects"`
}

// Count returns how many projects ended with outcome.
func (s *Summary) Count(outcome string) int {
	n := 0
	for _, p := range s.Projects {
		if p.Outcome == outcome {
			n++
		}
	}
	return n
}

// ValidationError is returned by Run when the refreshed dataset does not pass
// validation. Nothing is saved in that case.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("refreshed dataset failed validation with %d errors: %s",
		len(e.Errors), strings.Join(e.Errors, "; "))
}

type Service struct {
	collector   Collector
	store       Store
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

type Option func(*Service)

func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a refresh service. The store may be nil when only Refresh is
// used.
func New(collector Collector, store Store, opts ...Option) (*Service, error) {
	if collector == nil {
		return nil, errors.New("collector is required")
	}
	s := &Service{
		collector:   collector,
		store:       store,
		concurrency: DefaultConcurrency,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run loads the dataset, refreshes it, validates the result and saves it only
// when it is valid.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	if s.store == nil {
		return nil, errors.New("refresh run requires a store")
	}
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	refreshed, summary := s.Refresh(ctx, records)

	result := validator.Validate(refreshed)
	if s.metrics != nil {
		s.metrics.RecordValidation(result.Valid, len(result.Errors))
	}
	if !result.Valid {
		s.logger.ErrorContext(ctx, "refreshed dataset invalid, not saving",
			"run_id", summary.RunID,
			"errors", len(result.Errors),
		)
		return summary, &ValidationError{Errors: result.Errors}
	}

	if err := s.store.Save(ctx, refreshed); err != nil {
		return summary, fmt.Errorf("save dataset: %w", err)
	}
	s.logger.InfoContext(ctx, "dataset refreshed",
		"run_id", summary.RunID,
		"projects", len(refreshed),
		"updated", summary.Count(OutcomeUpdated),
		"failed", summary.Count(OutcomeFailed),
	)
	return summary, nil
}

// Refresh returns updated copies of records; the input slice is not modified.
// Records whose collection fails are returned unchanged.
func (s *Service) Refresh(ctx context.Context, records []models.Record) ([]models.Record, *Summary) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
		Projects:  make([]ProjectResult, len(records)),
	}
	out := make([]models.Record, len(records))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range records {
		out[i] = records[i].Clone()
		g.Go(func() error {
			summary.Projects[i] = s.refreshOne(ctx, summary.RunID, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = s.now()
	return out, summary
}

func (s *Service) refreshOne(ctx context.Context, runID string, r *models.Record) ProjectResult {
	res := ProjectResult{ProjectID: r.ProjectID}
	if r.RepositoryURL == nil || *r.RepositoryURL == "" {
		res.Outcome = OutcomeSkipped
		res.Notes = []string{"no repository_url"}
		return res
	}

	start := s.now()
	collected, err := s.collector.Collect(ctx, *r.RepositoryURL)
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordProjectRefreshed(res.Outcome, s.now().Sub(start))
		}
	}()
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		s.logger.WarnContext(ctx, "project collection failed",
			"run_id", runID,
			"project_id", r.ProjectID,
			"error", err,
		)
		return res
	}
	res.Notes = append(res.Notes, collected.Notes...)
	if !collected.Found {
		res.Outcome = OutcomeNotFound
		return res
	}

	merged := mergeFields(r, collected.Fields)
	res.Updated = merged.Updated
	res.Kept = merged.Kept
	res.Notes = append(res.Notes, merged.Notes...)

	r.Confidence = confidence.BuildMap(r, r.Confidence)
	stamp := models.FormatTimestamp(s.now())
	r.LastAutoRefresh = &stamp
	if len(merged.Updated) > 0 {
		r.UpdatedAt = stamp
		res.Outcome = OutcomeUpdated
	} else {
		res.Outcome = OutcomeUnchanged
	}

	s.logger.InfoContext(ctx, "project refreshed",
		"run_id", runID,
		"project_id", r.ProjectID,
		"outcome", res.Outcome,
		"updated_fields", len(merged.Updated),
		"kept_fields", len(merged.Kept),
	)
	return res
}
