package application

import (
	"context"
	"fmt"
	"time"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/metrics"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

// IngestService runs the extract-and-load half of the pipeline: it turns an
// object-storage notification into rows of the append-only raw store. It
// never touches the production table.
type IngestService struct {
	store   ports.DocumentStore
	repo    ports.ObservationRepository
	parser  *FeedParser
	metrics *metrics.Metrics
	logger  logger.Logger
}

func NewIngestService(store ports.DocumentStore, repo ports.ObservationRepository, m *metrics.Metrics) *IngestService {
	return &IngestService{
		store:   store,
		repo:    repo,
		parser:  NewFeedParser(),
		metrics: m,
		logger:  logger.New("info", "development").WithField("component", "ingest_service"),
	}
}

// ProcessObject downloads one payload object and appends every usable
// observation to the raw store. Returning an error tells the consumer to
// leave the offset unmarked, so the same object is delivered again; the
// append is keyed by a fresh ingest sequence each time, duplicates are
// resolved later by the merge.
func (s *IngestService) ProcessObject(ctx context.Context, objectKey string) error {
	startTime := time.Now()
	s.logger.Infof("Processing payload object %s", objectKey)

	payload, err := s.store.Download(ctx, objectKey)
	if err != nil {
		s.metrics.RecordObjectProcessed("download_failed")
		s.logger.Errorf("Failed to download %s: %v", objectKey, err)
		return fmt.Errorf("download payload object: %w", err)
	}

	result, err := s.parser.Parse(payload, objectKey)
	if err != nil {
		s.metrics.RecordObjectProcessed("parse_failed")
		s.logger.Errorf("Failed to parse %s: %v", objectKey, err)
		return fmt.Errorf("parse payload object: %w", err)
	}

	for reason, count := range result.SkipReasons {
		s.metrics.RecordObservationsSkipped(reason, count)
	}

	if len(result.Observations) == 0 {
		s.metrics.RecordObjectProcessed("empty")
		s.logger.Warnf("Payload object %s produced no usable observations (%d skipped)", objectKey, result.Skipped)
		return nil
	}

	appended, err := s.repo.AppendRaw(ctx, toEntities(result.Observations), objectKey)
	if err != nil {
		s.metrics.RecordObjectProcessed("append_failed")
		s.logger.Errorf("Failed to append observations from %s: %v", objectKey, err)
		return fmt.Errorf("append raw observations: %w", err)
	}

	s.metrics.RecordObjectProcessed("success")
	s.metrics.RecordObservationsAppended(appended)
	s.metrics.ObserveIngestDuration(time.Since(startTime))

	s.logger.Infof("Payload object %s processed in %v: %d appended, %d skipped",
		objectKey, time.Since(startTime), appended, result.Skipped)
	return nil
}

func (s *IngestService) HealthCheck(ctx context.Context) error {
	if err := s.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("document store health check failed: %w", err)
	}
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func toEntities(observations []*entities.Observation) []entities.ObservationEntity {
	out := make([]entities.ObservationEntity, len(observations))
	for i, obs := range observations {
		out[i] = obs
	}
	return out
}
