package testutils

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
)

type MockObservationRepository struct {
	mock.Mock
}

func (m *MockObservationRepository) AppendRaw(ctx context.Context, observations []entities.ObservationEntity, sourceObject string) (int, error) {
	args := m.Called(ctx, observations, sourceObject)
	return args.Int(0), args.Error(1)
}

func (m *MockObservationRepository) FetchRaw(ctx context.Context) ([]*entities.RawObservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RawObservation), args.Error(1)
}

func (m *MockObservationRepository) CountRaw(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockObservationRepository) MergeProduction(ctx context.Context, candidates []*entities.Observation, updateCity bool) (int64, int64, error) {
	args := m.Called(ctx, candidates, updateCity)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockObservationRepository) GetObservation(ctx context.Context, stationID int, timestamp time.Time) (*entities.Observation, error) {
	args := m.Called(ctx, stationID, timestamp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Observation), args.Error(1)
}

func (m *MockObservationRepository) FindObservations(ctx context.Context, filter ports.ObservationFilter) ([]*entities.Observation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Observation), args.Error(1)
}

func (m *MockObservationRepository) CountProduction(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockObservationRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockObservationRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRunJournal struct {
	mock.Mock
}

func (m *MockRunJournal) StartRun(ctx context.Context, run *models.MergeRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunJournal) CompleteRun(ctx context.Context, run *models.MergeRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunJournal) FailRun(ctx context.Context, runID string, message string) error {
	args := m.Called(ctx, runID, message)
	return args.Error(0)
}

func (m *MockRunJournal) LatestRun(ctx context.Context) (*models.MergeRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MergeRun), args.Error(1)
}

func (m *MockRunJournal) ListRuns(ctx context.Context, limit int) ([]*models.MergeRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MergeRun), args.Error(1)
}

func (m *MockRunJournal) FailStaleRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRunJournal) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Download(ctx context.Context, objectKey string) ([]byte, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocumentStore) Exists(ctx context.Context, objectKey string) (bool, error) {
	args := m.Called(ctx, objectKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMergeLease struct {
	mock.Mock
}

func (m *MockMergeLease) Acquire(ctx context.Context, holder string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, holder, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockMergeLease) Release(ctx context.Context, holder string) error {
	args := m.Called(ctx, holder)
	return args.Error(0)
}

func (m *MockMergeLease) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMergeLease) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockConsumer struct {
	mock.Mock
}

func (m *MockConsumer) Consume(ctx context.Context, handler ports.ObjectEventHandler) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

func (m *MockConsumer) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConsumer) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(ctx context.Context, name string, interval time.Duration, task func(ctx context.Context) error) error {
	args := m.Called(ctx, name, interval, task)
	return args.Error(0)
}

func (m *MockScheduler) Stop() {
	m.Called()
}

func (m *MockScheduler) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
