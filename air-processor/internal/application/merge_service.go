package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/metrics"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

// ErrMergeInProgress is returned when another processor instance holds the
// merge lease. Callers treat it as a conflict, not a failure.
var ErrMergeInProgress = errors.New("another merge run is already in progress")

type MergeOptions struct {
	Interval          time.Duration
	Timeout           time.Duration
	LeaseTTL          time.Duration
	UpdateCity        bool
	StaleRunThreshold time.Duration
}

// MergeService runs the transform half of the pipeline: raw rows are
// deduplicated to one candidate per (station, timestamp) and upserted into
// the production table, with every run journalled start to finish.
type MergeService struct {
	repo      ports.ObservationRepository
	journal   ports.RunJournal
	lease     ports.MergeLease
	scheduler ports.Scheduler
	metrics   *metrics.Metrics
	logger    logger.Logger
	opts      MergeOptions
	holder    string
}

func NewMergeService(
	repo ports.ObservationRepository,
	journal ports.RunJournal,
	lease ports.MergeLease,
	scheduler ports.Scheduler,
	m *metrics.Metrics,
	opts MergeOptions,
) *MergeService {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "air-processor"
	}

	return &MergeService{
		repo:      repo,
		journal:   journal,
		lease:     lease,
		scheduler: scheduler,
		metrics:   m,
		logger:    logger.New("info", "development").WithField("component", "merge_service"),
		opts:      opts,
		holder:    fmt.Sprintf("%s-%s", hostname, uuid.New().String()),
	}
}

// Start recovers runs abandoned by a previous instance, then schedules the
// periodic merge.
func (s *MergeService) Start(ctx context.Context) error {
	reaped, err := s.journal.FailStaleRuns(ctx, s.opts.StaleRunThreshold)
	if err != nil {
		return fmt.Errorf("failed to recover stale runs: %w", err)
	}
	if reaped > 0 {
		s.logger.Warnf("Marked %d abandoned merge runs as failed during startup", reaped)
		go s.runRecovery()
	}

	s.logger.Infof("Starting merge service with interval: %v", s.opts.Interval)

	if err := s.scheduler.Schedule(ctx, "production-merge", s.opts.Interval, s.runScheduled); err != nil {
		return fmt.Errorf("failed to schedule merge: %w", err)
	}

	s.logger.Info("Merge service started successfully")
	return nil
}

// runRecovery re-runs the merge once after abandoned runs were found. The
// merge is idempotent, so repeating it over unchanged raw data cannot
// corrupt the production table.
func (s *MergeService) runRecovery() {
	timeout := s.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Running recovery merge for abandoned runs")

	if _, err := s.RunMerge(ctx, models.RunTriggerRecovery); err != nil {
		if errors.Is(err, ErrMergeInProgress) {
			s.logger.Info("Skipping recovery merge, lease is held elsewhere")
			return
		}
		s.logger.Errorf("Recovery merge run failed: %v", err)
	}
}

func (s *MergeService) Stop() {
	s.logger.Info("Stopping merge service")
	s.scheduler.Stop()
	s.logger.Info("Merge service stopped")
}

func (s *MergeService) runScheduled(ctx context.Context) error {
	_, err := s.RunMerge(ctx, models.RunTriggerScheduled)
	if errors.Is(err, ErrMergeInProgress) {
		s.logger.Info("Skipping scheduled merge, lease is held elsewhere")
		return nil
	}
	return err
}

// RunMerge executes one merge run under the distributed lease. The journal
// row is written before any data moves and finalized after, so every run is
// accounted for even when the process dies mid-way.
func (s *MergeService) RunMerge(ctx context.Context, trigger string) (*models.MergeRun, error) {
	acquired, err := s.lease.Acquire(ctx, s.holder, s.opts.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire merge lease: %w", err)
	}
	if !acquired {
		return nil, ErrMergeInProgress
	}
	defer func() {
		if err := s.lease.Release(context.Background(), s.holder); err != nil {
			s.logger.Errorf("Failed to release merge lease: %v", err)
		}
	}()

	run := &models.MergeRun{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	if err := s.journal.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to journal merge run: %w", err)
	}

	s.logger.Infof("Merge run %s started (trigger: %s)", run.ID, trigger)
	startTime := time.Now()

	raws, err := s.repo.FetchRaw(ctx)
	if err != nil {
		return nil, s.failRun(ctx, run, fmt.Errorf("fetch raw observations: %w", err))
	}
	run.RowsFetched = int64(len(raws))

	candidates := SelectCandidates(raws)
	run.Candidates = int64(len(candidates))

	inserted, updated, err := s.repo.MergeProduction(ctx, candidates, s.opts.UpdateCity)
	if err != nil {
		return nil, s.failRun(ctx, run, fmt.Errorf("merge into production: %w", err))
	}

	now := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.FinishedAt = &now
	run.RowsInserted = inserted
	run.RowsUpdated = updated

	if err := s.journal.CompleteRun(ctx, run); err != nil {
		// The data is merged; only the journal row is stale. Startup
		// recovery will flag it, so report the error without undoing work.
		s.logger.Errorf("Merge run %s finished but could not be journalled: %v", run.ID, err)
		return run, fmt.Errorf("failed to journal merge completion: %w", err)
	}

	duration := time.Since(startTime)
	s.metrics.RecordMergeRun(models.RunStatusCompleted, trigger)
	s.metrics.RecordRowsMerged(inserted, updated)
	s.metrics.ObserveMergeDuration(duration)
	s.updateTableCounts(ctx)

	s.logger.Infof("Merge run %s completed in %v: %d fetched, %d candidates, %d inserted, %d updated",
		run.ID, duration, run.RowsFetched, run.Candidates, inserted, updated)

	return run, nil
}

func (s *MergeService) failRun(ctx context.Context, run *models.MergeRun, cause error) error {
	s.logger.Errorf("Merge run %s failed: %v", run.ID, cause)
	s.metrics.RecordMergeRun(models.RunStatusFailed, run.Trigger)

	if err := s.journal.FailRun(ctx, run.ID, cause.Error()); err != nil {
		s.logger.Errorf("Failed to journal failure of run %s: %v", run.ID, err)
	}

	return cause
}

func (s *MergeService) updateTableCounts(ctx context.Context) {
	if !s.metrics.IsEnabled() {
		return
	}

	rawCount, err := s.repo.CountRaw(ctx)
	if err != nil {
		s.logger.Debugf("Failed to count raw rows: %v", err)
		return
	}
	productionCount, err := s.repo.CountProduction(ctx)
	if err != nil {
		s.logger.Debugf("Failed to count production rows: %v", err)
		return
	}
	s.metrics.SetTableCounts(rawCount, productionCount)
}

// LatestRun exposes the most recent journal entry.
func (s *MergeService) LatestRun(ctx context.Context) (*models.MergeRun, error) {
	return s.journal.LatestRun(ctx)
}

// ListRuns exposes recent journal entries, newest first.
func (s *MergeService) ListRuns(ctx context.Context, limit int) ([]*models.MergeRun, error) {
	return s.journal.ListRuns(ctx, limit)
}

func (s *MergeService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	if err := s.journal.HealthCheck(ctx); err != nil {
		return fmt.Errorf("run journal health check failed: %w", err)
	}
	if err := s.lease.HealthCheck(ctx); err != nil {
		return fmt.Errorf("merge lease health check failed: %w", err)
	}
	return nil
}
