package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/config"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/models"
	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
)

const staleRecoveryMessage = "run abandoned without a terminal status, failed during startup recovery"

// PostgresRunJournal records one row per merge run. Journal writes commit
// outside the merge transaction, so a crashed run leaves a visible
// "running" row for FailStaleRuns to reap.
type PostgresRunJournal struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresRunJournal(cfg config.PostgresConfig) (*PostgresRunJournal, error) {
	log := logger.New("info", "development").WithField("component", "postgres_run_journal")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	journal := &PostgresRunJournal{
		pool:   pool,
		logger: log,
	}

	if err := journal.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("Created run journal")
	return journal, nil
}

func (j *PostgresRunJournal) InitSchema(ctx context.Context) error {
	_, err := j.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS merge_runs (
			id            VARCHAR(36) PRIMARY KEY,
			trigger_type  VARCHAR(16) NOT NULL,
			status        VARCHAR(16) NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			finished_at   TIMESTAMPTZ,
			rows_fetched  BIGINT NOT NULL DEFAULT 0,
			candidates    BIGINT NOT NULL DEFAULT 0,
			rows_inserted BIGINT NOT NULL DEFAULT 0,
			rows_updated  BIGINT NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_merge_runs_started_at ON merge_runs (started_at DESC);
	`)

	if err != nil {
		return fmt.Errorf("failed to create merge_runs table: %w", err)
	}

	return nil
}

func (j *PostgresRunJournal) StartRun(ctx context.Context, run *models.MergeRun) error {
	query := `
		INSERT INTO merge_runs (id, trigger_type, status, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := j.pool.Exec(ctx, query,
		run.GetID(),
		run.GetTrigger(),
		run.GetStatus(),
		run.GetStartedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to journal run start: %w", err)
	}

	return nil
}

func (j *PostgresRunJournal) CompleteRun(ctx context.Context, run *models.MergeRun) error {
	query := `
		UPDATE merge_runs SET
			status = $1,
			finished_at = $2,
			rows_fetched = $3,
			candidates = $4,
			rows_inserted = $5,
			rows_updated = $6
		WHERE id = $7
	`

	result, err := j.pool.Exec(ctx, query,
		run.GetStatus(),
		run.GetFinishedAt(),
		run.GetRowsFetched(),
		run.GetCandidates(),
		run.GetRowsInserted(),
		run.GetRowsUpdated(),
		run.GetID(),
	)
	if err != nil {
		return fmt.Errorf("failed to journal run completion: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found in journal", run.GetID())
	}

	return nil
}

func (j *PostgresRunJournal) FailRun(ctx context.Context, runID string, message string) error {
	query := `
		UPDATE merge_runs SET
			status = $1,
			finished_at = NOW(),
			error_message = $2
		WHERE id = $3
	`

	result, err := j.pool.Exec(ctx, query, models.RunStatusFailed, message, runID)
	if err != nil {
		return fmt.Errorf("failed to journal run failure: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found in journal", runID)
	}

	return nil
}

func (j *PostgresRunJournal) LatestRun(ctx context.Context) (*models.MergeRun, error) {
	query := `
		SELECT id, trigger_type, status, started_at, finished_at,
			rows_fetched, candidates, rows_inserted, rows_updated, error_message
		FROM merge_runs
		ORDER BY started_at DESC
		LIMIT 1
	`

	var run models.MergeRun
	err := j.pool.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.Trigger,
		&run.Status,
		&run.StartedAt,
		&run.FinishedAt,
		&run.RowsFetched,
		&run.Candidates,
		&run.RowsInserted,
		&run.RowsUpdated,
		&run.ErrorMessage,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return &run, nil
}

func (j *PostgresRunJournal) ListRuns(ctx context.Context, limit int) ([]*models.MergeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := `
		SELECT id, trigger_type, status, started_at, finished_at,
			rows_fetched, candidates, rows_inserted, rows_updated, error_message
		FROM merge_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := j.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []*models.MergeRun
	for rows.Next() {
		var run models.MergeRun
		err := rows.Scan(
			&run.ID,
			&run.Trigger,
			&run.Status,
			&run.StartedAt,
			&run.FinishedAt,
			&run.RowsFetched,
			&run.Candidates,
			&run.RowsInserted,
			&run.RowsUpdated,
			&run.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, &run)
	}

	return results, nil
}

func (j *PostgresRunJournal) FailStaleRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	query := `
		UPDATE merge_runs SET
			status = $1,
			finished_at = NOW(),
			error_message = $2
		WHERE status = $3 AND started_at < $4
	`

	result, err := j.pool.Exec(ctx, query,
		models.RunStatusFailed,
		staleRecoveryMessage,
		models.RunStatusRunning,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale runs: %w", err)
	}

	reaped := result.RowsAffected()
	if reaped > 0 {
		j.logger.Warnf("Failed %d stale merge run(s) left over from a previous process", reaped)
	}

	return reaped, nil
}

func (j *PostgresRunJournal) HealthCheck(ctx context.Context) error {
	return j.pool.Ping(ctx)
}

func (j *PostgresRunJournal) Close() error {
	j.pool.Close()
	return nil
}
