// File: internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/confstats/regboard/internal/metrics"
	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

// PostgreSQLStorage implements Storage interface using PostgreSQL
type PostgreSQLStorage struct {
	db         *sql.DB
	config     *StorageConfig
	logger     *logrus.Logger
	migrations []*Migration

	metricsManager *metrics.Manager
}

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
func NewPostgreSQLStorage(config *StorageConfig) *PostgreSQLStorage {
	return &PostgreSQLStorage{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetPostgreSQLMigrations(),
	}
}

// SetMetricsManager wires the metrics manager
func (s *PostgreSQLStorage) SetMetricsManager(manager *metrics.Manager) {
	s.metricsManager = manager
}

// Connect establishes database connection
func (s *PostgreSQLStorage) Connect() error {
	db, err := sql.Open("postgres", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to ping PostgreSQL database", err.Error())
	}

	s.db = db
	s.logger.Info("PostgreSQL database connected")

	return nil
}

// Close closes the database connection
func (s *PostgreSQLStorage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("PostgreSQL database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgreSQLStorage) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *PostgreSQLStorage) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	s.logger.Info("Starting database migrations")

	for _, migration := range s.migrations {
		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version),
				err.Error())
		}
	}

	s.logger.Info("Database migrations completed")
	return nil
}

const pgSnapshotInsert = `
	INSERT INTO snapshots
	(` + snapshotColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (season, timestamp) DO UPDATE SET
		total_count = EXCLUDED.total_count,
		status_new = EXCLUDED.status_new,
		status_approved = EXCLUDED.status_approved,
		status_partially_paid = EXCLUDED.status_partially_paid,
		status_paid = EXCLUDED.status_paid,
		status_checked_in = EXCLUDED.status_checked_in,
		sponsor_normal = EXCLUDED.sponsor_normal,
		sponsor_sponsor = EXCLUDED.sponsor_sponsor,
		sponsor_supersponsor = EXCLUDED.sponsor_supersponsor
`

// SaveSnapshot saves a single snapshot
func (s *PostgreSQLStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, pgSnapshotInsert,
		snapshot.ID, snapshot.Season, snapshot.Timestamp, snapshot.TotalCount,
		snapshot.Status.New, snapshot.Status.Approved, snapshot.Status.PartiallyPaid,
		snapshot.Status.Paid, snapshot.Status.CheckedIn,
		snapshot.Sponsor.Normal, snapshot.Sponsor.Sponsor, snapshot.Sponsor.SuperSponsor)

	s.recordOperation("upsert", "snapshots", err, start)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save snapshot", err.Error())
	}

	return nil
}

// SaveSnapshots saves multiple snapshots in a transaction
func (s *PostgreSQLStorage) SaveSnapshots(ctx context.Context, snapshots []*models.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pgSnapshotInsert)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to prepare statement", err.Error())
	}
	defer stmt.Close()

	for _, snapshot := range snapshots {
		_, err = stmt.ExecContext(ctx,
			snapshot.ID, snapshot.Season, snapshot.Timestamp, snapshot.TotalCount,
			snapshot.Status.New, snapshot.Status.Approved, snapshot.Status.PartiallyPaid,
			snapshot.Status.Paid, snapshot.Status.CheckedIn,
			snapshot.Sponsor.Normal, snapshot.Sponsor.Sponsor, snapshot.Sponsor.SuperSponsor)

		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save snapshot in batch", err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit transaction", err.Error())
	}

	s.recordOperation("batch_upsert", "snapshots", nil, start)
	return nil
}

// GetSnapshots retrieves snapshots based on filter
func (s *PostgreSQLStorage) GetSnapshots(ctx context.Context, filter models.SnapshotFilter) ([]*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE 1=1`
	args := []interface{}{}
	arg := 0

	next := func() string {
		arg++
		return fmt.Sprintf("$%d", arg)
	}

	if filter.Season != nil {
		query += " AND season = " + next()
		args = append(args, *filter.Season)
	}
	if filter.FromTime != nil {
		query += " AND timestamp >= " + next()
		args = append(args, *filter.FromTime)
	}
	if filter.ToTime != nil {
		query += " AND timestamp <= " + next()
		args = append(args, *filter.ToTime)
	}

	query += " ORDER BY timestamp ASC"

	if filter.Limit > 0 {
		query += " LIMIT " + next()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + next()
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query snapshots", err.Error())
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// GetSnapshotCount returns the number of snapshots matching the filter
func (s *PostgreSQLStorage) GetSnapshotCount(ctx context.Context, filter models.SnapshotFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM snapshots WHERE 1=1`
	args := []interface{}{}
	arg := 0

	next := func() string {
		arg++
		return fmt.Sprintf("$%d", arg)
	}

	if filter.Season != nil {
		query += " AND season = " + next()
		args = append(args, *filter.Season)
	}
	if filter.FromTime != nil {
		query += " AND timestamp >= " + next()
		args = append(args, *filter.FromTime)
	}
	if filter.ToTime != nil {
		query += " AND timestamp <= " + next()
		args = append(args, *filter.ToTime)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count snapshots", err.Error())
	}

	return count, nil
}

// GetLatestSnapshot returns the most recent snapshot of a season
func (s *PostgreSQLStorage) GetLatestSnapshot(ctx context.Context, season string) (*models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots
		WHERE season = $1 ORDER BY timestamp DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, season)
	snapshot, err := scanSnapshot(row)
	if err == errNoRow {
		return nil, nil
	}
	return snapshot, err
}

// SaveDayAggregates upserts day-wise aggregates
func (s *PostgreSQLStorage) SaveDayAggregates(ctx context.Context, aggregates []*models.DayAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO day_aggregates
		(season, date, day_index, total_count,
		 status_new, status_approved, status_partially_paid, status_paid, status_checked_in,
		 sponsor_normal, sponsor_sponsor, sponsor_supersponsor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (season, date) DO UPDATE SET
			day_index = EXCLUDED.day_index,
			total_count = EXCLUDED.total_count,
			status_new = EXCLUDED.status_new,
			status_approved = EXCLUDED.status_approved,
			status_partially_paid = EXCLUDED.status_partially_paid,
			status_paid = EXCLUDED.status_paid,
			status_checked_in = EXCLUDED.status_checked_in,
			sponsor_normal = EXCLUDED.sponsor_normal,
			sponsor_sponsor = EXCLUDED.sponsor_sponsor,
			sponsor_supersponsor = EXCLUDED.sponsor_supersponsor
	`)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to prepare statement", err.Error())
	}
	defer stmt.Close()

	for _, agg := range aggregates {
		_, err = stmt.ExecContext(ctx,
			agg.Season, agg.Date, agg.DayIndex, agg.TotalCount,
			agg.Status.New, agg.Status.Approved, agg.Status.PartiallyPaid,
			agg.Status.Paid, agg.Status.CheckedIn,
			agg.Sponsor.Normal, agg.Sponsor.Sponsor, agg.Sponsor.SuperSponsor)

		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save day aggregate", err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit transaction", err.Error())
	}

	s.recordOperation("batch_upsert", "day_aggregates", nil, start)
	return nil
}

// GetDayAggregates returns a season's day-wise aggregates ordered by date
func (s *PostgreSQLStorage) GetDayAggregates(ctx context.Context, season string) ([]*models.DayAggregate, error) {
	query := `
		SELECT season, date, day_index, total_count,
		       status_new, status_approved, status_partially_paid, status_paid, status_checked_in,
		       sponsor_normal, sponsor_sponsor, sponsor_supersponsor
		FROM day_aggregates WHERE season = $1 ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, season)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query day aggregates", err.Error())
	}
	defer rows.Close()

	var aggregates []*models.DayAggregate
	for rows.Next() {
		var agg models.DayAggregate
		err := rows.Scan(&agg.Season, &agg.Date, &agg.DayIndex, &agg.TotalCount,
			&agg.Status.New, &agg.Status.Approved, &agg.Status.PartiallyPaid,
			&agg.Status.Paid, &agg.Status.CheckedIn,
			&agg.Sponsor.Normal, &agg.Sponsor.Sponsor, &agg.Sponsor.SuperSponsor)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan day aggregate", err.Error())
		}
		agg.Date = agg.Date.UTC()
		aggregates = append(aggregates, &agg)
	}

	return aggregates, rows.Err()
}

// SaveIngestRun inserts or updates an ingest run record
func (s *PostgreSQLStorage) SaveIngestRun(ctx context.Context, run *models.IngestRun) error {
	query := `
		INSERT INTO ingest_runs
		(id, season, source, lines, snapshots, total_mismatches, status, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			lines = EXCLUDED.lines,
			snapshots = EXCLUDED.snapshots,
			total_mismatches = EXCLUDED.total_mismatches,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			finished_at = EXCLUDED.finished_at
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Season, run.Source, run.Lines, run.Snapshots,
		run.TotalMismatches, run.Status, run.Error, run.StartedAt, run.FinishedAt)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save ingest run", err.Error())
	}

	return nil
}

// GetIngestRuns returns the most recent ingest runs
func (s *PostgreSQLStorage) GetIngestRuns(ctx context.Context, limit int) ([]*models.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, season, source, lines, snapshots, total_mismatches, status, error, started_at, finished_at
		FROM ingest_runs ORDER BY started_at DESC LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query ingest runs", err.Error())
	}
	defer rows.Close()

	var runs []*models.IngestRun
	for rows.Next() {
		var run models.IngestRun
		var errMsg sql.NullString
		var finishedAt sql.NullTime

		err := rows.Scan(&run.ID, &run.Season, &run.Source, &run.Lines, &run.Snapshots,
			&run.TotalMismatches, &run.Status, &errMsg, &run.StartedAt, &finishedAt)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan ingest run", err.Error())
		}

		if errMsg.Valid {
			run.Error = &errMsg.String
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// GetSeasons returns the distinct seasons present in storage
func (s *PostgreSQLStorage) GetSeasons(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT season FROM snapshots ORDER BY season`)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query seasons", err.Error())
	}
	defer rows.Close()

	var seasons []string
	for rows.Next() {
		var season string
		if err := rows.Scan(&season); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan season", err.Error())
		}
		seasons = append(seasons, season)
	}

	return seasons, rows.Err()
}

// GetStorageStats returns storage-level statistics
func (s *PostgreSQLStorage) GetStorageStats() (*StorageStats, error) {
	stats := &StorageStats{}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&stats.SnapshotCount); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count snapshots", err.Error())
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM day_aggregates`).Scan(&stats.DayAggregateCount); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count day aggregates", err.Error())
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ingest_runs`).Scan(&stats.IngestRunCount); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count ingest runs", err.Error())
	}

	seasons, err := s.GetSeasons(context.Background())
	if err != nil {
		return nil, err
	}
	stats.Seasons = seasons

	return stats, nil
}

// Cleanup removes snapshots and ingest runs older than retentionDays
func (s *PostgreSQLStorage) Cleanup(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE timestamp < $1`, cutoff); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to clean up snapshots", err.Error())
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ingest_runs WHERE started_at < $1`, cutoff); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to clean up ingest runs", err.Error())
	}

	return nil
}

// GetHealth returns storage health status
func (s *PostgreSQLStorage) GetHealth() *HealthStatus {
	health := &HealthStatus{
		Healthy:   true,
		CheckedAt: time.Now(),
	}

	if err := s.Ping(); err != nil {
		health.Healthy = false
		health.Message = err.Error()
	}

	return health
}

// recordOperation records a database operation metric when metrics are wired
func (s *PostgreSQLStorage) recordOperation(operation, table string, err error, start time.Time) {
	if s.metricsManager == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metricsManager.GetPrometheusMetrics().RecordDatabaseOperation(
		operation, table, status, time.Since(start))
}
