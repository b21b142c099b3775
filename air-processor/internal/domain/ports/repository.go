package ports

import (
	"context"
	"time"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
)

type ObservationFilter struct {
	StationID int
	From      time.Time
	To        time.Time
	Limit     int
}

type ObservationRepository interface {
	// Raw store: append-only, duplicates allowed, rows never updated or deleted.
	AppendRaw(ctx context.Context, observations []entities.ObservationEntity, sourceObject string) (int, error)
	FetchRaw(ctx context.Context) ([]*entities.RawObservation, error)
	CountRaw(ctx context.Context) (int64, error)

	// Production store: unique on (station_id, timestamp).
	MergeProduction(ctx context.Context, candidates []*entities.Observation, updateCity bool) (inserted int64, updated int64, err error)
	GetObservation(ctx context.Context, stationID int, timestamp time.Time) (*entities.Observation, error)
	FindObservations(ctx context.Context, filter ObservationFilter) ([]*entities.Observation, error)
	CountProduction(ctx context.Context) (int64, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

type RunJournal interface {
	StartRun(ctx context.Context, run *models.MergeRun) error
	CompleteRun(ctx context.Context, run *models.MergeRun) error
	FailRun(ctx context.Context, runID string, message string) error
	LatestRun(ctx context.Context) (*models.MergeRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.MergeRun, error)
	FailStaleRuns(ctx context.Context, olderThan time.Duration) (int64, error)
	HealthCheck(ctx context.Context) error
}
