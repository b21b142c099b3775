package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/config"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/entities"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/domain/ports"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

const (
	defaultFindLimit = 100
	maxFindLimit     = 1000
)

type PostgresObservationRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresObservationRepository(cfg config.PostgresConfig) (*PostgresObservationRepository, error) {
	log := logger.New("info", "development").WithField("component", "postgres_observation_repository")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MinConnections)
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectionTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	repo := &PostgresObservationRepository{
		pool:   pool,
		logger: log,
	}

	if err := repo.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("Created observation repository")
	return repo, nil
}

func (r *PostgresObservationRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS raw_observations (
			ingest_seq    BIGSERIAL PRIMARY KEY,
			station_id    INTEGER          NOT NULL,
			city          TEXT             NOT NULL,
			timestamp     TIMESTAMPTZ      NOT NULL,
			aqi           INTEGER          NOT NULL,
			pm25          DOUBLE PRECISION NOT NULL DEFAULT 0,
			pm10          DOUBLE PRECISION NOT NULL DEFAULT 0,
			temperature   DOUBLE PRECISION NOT NULL DEFAULT 0,
			humidity      DOUBLE PRECISION NOT NULL DEFAULT 0,
			latitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
			source_object TEXT             NOT NULL DEFAULT '',
			ingested_at   TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS observations (
			station_id  INTEGER          NOT NULL,
			city        TEXT             NOT NULL,
			timestamp   TIMESTAMPTZ      NOT NULL,
			aqi         INTEGER          NOT NULL,
			pm25        DOUBLE PRECISION NOT NULL DEFAULT 0,
			pm10        DOUBLE PRECISION NOT NULL DEFAULT 0,
			temperature DOUBLE PRECISION NOT NULL DEFAULT 0,
			humidity    DOUBLE PRECISION NOT NULL DEFAULT 0,
			latitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
			longitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			PRIMARY KEY (station_id, timestamp)
		);

		CREATE INDEX IF NOT EXISTS idx_raw_observations_station_time ON raw_observations (station_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_observations_timestamp ON observations (timestamp);
	`)

	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

func (r *PostgresObservationRepository) AppendRaw(ctx context.Context, observations []entities.ObservationEntity, sourceObject string) (int, error) {
	if len(observations) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO raw_observations (
			station_id, city, timestamp, aqi, pm25, pm10,
			temperature, humidity, latitude, longitude, source_object
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, obs := range observations {
		_, err := tx.Exec(ctx, query,
			obs.GetStationID(),
			obs.GetCity(),
			obs.GetTimestamp(),
			obs.GetAQI(),
			obs.GetPM25(),
			obs.GetPM10(),
			obs.GetTemperature(),
			obs.GetHumidity(),
			obs.GetLatitude(),
			obs.GetLongitude(),
			sourceObject,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append raw observation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit append transaction: %w", err)
	}

	return len(observations), nil
}

func (r *PostgresObservationRepository) FetchRaw(ctx context.Context) ([]*entities.RawObservation, error) {
	query := `
		SELECT ingest_seq, station_id, city, timestamp, aqi, pm25, pm10,
			temperature, humidity, latitude, longitude, source_object, ingested_at
		FROM raw_observations
		ORDER BY ingest_seq ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw observations: %w", err)
	}
	defer rows.Close()

	var results []*entities.RawObservation
	for rows.Next() {
		var raw entities.RawObservation
		err := rows.Scan(
			&raw.IngestSeq,
			&raw.StationID,
			&raw.City,
			&raw.Timestamp,
			&raw.AQI,
			&raw.PM25,
			&raw.PM10,
			&raw.Temperature,
			&raw.Humidity,
			&raw.Latitude,
			&raw.Longitude,
			&raw.SourceObject,
			&raw.IngestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raw observation: %w", err)
		}
		results = append(results, &raw)
	}

	return results, nil
}

func (r *PostgresObservationRepository) CountRaw(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM raw_observations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count raw observations: %w", err)
	}
	return count, nil
}

// MergeProduction upserts the deduplicated candidates into the production
// table in one transaction. The insert count is derived from the table size
// delta inside the transaction, so a concurrent reader never sees a
// half-merged batch.
func (r *PostgresObservationRepository) MergeProduction(ctx context.Context, candidates []*entities.Observation, updateCity bool) (int64, int64, error) {
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var before int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM observations`).Scan(&before); err != nil {
		return 0, 0, fmt.Errorf("failed to count observations before merge: %w", err)
	}

	updateSet := `
			aqi = EXCLUDED.aqi,
			pm25 = EXCLUDED.pm25,
			pm10 = EXCLUDED.pm10,
			temperature = EXCLUDED.temperature,
			humidity = EXCLUDED.humidity,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = NOW()`
	if updateCity {
		updateSet = `
			city = EXCLUDED.city,` + updateSet
	}

	query := `
		INSERT INTO observations (
			station_id, city, timestamp, aqi, pm25, pm10,
			temperature, humidity, latitude, longitude
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (station_id, timestamp) DO UPDATE SET` + updateSet

	for _, obs := range candidates {
		_, err := tx.Exec(ctx, query,
			obs.StationID,
			obs.City,
			obs.Timestamp,
			obs.AQI,
			obs.PM25,
			obs.PM10,
			obs.Temperature,
			obs.Humidity,
			obs.Latitude,
			obs.Longitude,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to upsert observation %d/%s: %w",
				obs.StationID, obs.Timestamp.Format(time.RFC3339), err)
		}
	}

	var after int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM observations`).Scan(&after); err != nil {
		return 0, 0, fmt.Errorf("failed to count observations after merge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit merge transaction: %w", err)
	}

	inserted := after - before
	updated := int64(len(candidates)) - inserted
	return inserted, updated, nil
}

func (r *PostgresObservationRepository) GetObservation(ctx context.Context, stationID int, timestamp time.Time) (*entities.Observation, error) {
	query := `
		SELECT station_id, city, timestamp, aqi, pm25, pm10,
			temperature, humidity, latitude, longitude
		FROM observations
		WHERE station_id = $1 AND timestamp = $2
	`

	var obs entities.Observation
	err := r.pool.QueryRow(ctx, query, stationID, timestamp).Scan(
		&obs.StationID,
		&obs.City,
		&obs.Timestamp,
		&obs.AQI,
		&obs.PM25,
		&obs.PM10,
		&obs.Temperature,
		&obs.Humidity,
		&obs.Latitude,
		&obs.Longitude,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}

	return &obs, nil
}

func (r *PostgresObservationRepository) FindObservations(ctx context.Context, filter ports.ObservationFilter) ([]*entities.Observation, error) {
	query := `
		SELECT station_id, city, timestamp, aqi, pm25, pm10,
			temperature, humidity, latitude, longitude
		FROM observations
	`

	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.StationID > 0 {
		conditions = append(conditions, fmt.Sprintf("station_id = $%d", argPos))
		args = append(args, filter.StationID)
		argPos++
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", argPos))
		args = append(args, filter.From)
		argPos++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", argPos))
		args = append(args, filter.To)
		argPos++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	if limit > maxFindLimit {
		limit = maxFindLimit
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT %d", limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var results []*entities.Observation
	for rows.Next() {
		var obs entities.Observation
		err := rows.Scan(
			&obs.StationID,
			&obs.City,
			&obs.Timestamp,
			&obs.AQI,
			&obs.PM25,
			&obs.PM10,
			&obs.Temperature,
			&obs.Humidity,
			&obs.Latitude,
			&obs.Longitude,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		results = append(results, &obs)
	}

	return results, nil
}

func (r *PostgresObservationRepository) CountProduction(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM observations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

func (r *PostgresObservationRepository) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresObservationRepository) Close() error {
	r.pool.Close()
	return nil
}
