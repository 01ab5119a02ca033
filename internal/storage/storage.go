// File: internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/confstats/regboard/internal/metrics"
	"github.com/confstats/regboard/internal/models"
)

// Storage defines the interface for snapshot storage operations
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Snapshot operations
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	SaveSnapshots(ctx context.Context, snapshots []*models.Snapshot) error
	GetSnapshots(ctx context.Context, filter models.SnapshotFilter) ([]*models.Snapshot, error)
	GetSnapshotCount(ctx context.Context, filter models.SnapshotFilter) (int64, error)
	GetLatestSnapshot(ctx context.Context, season string) (*models.Snapshot, error)

	// Day-wise aggregate operations
	SaveDayAggregates(ctx context.Context, aggregates []*models.DayAggregate) error
	GetDayAggregates(ctx context.Context, season string) ([]*models.DayAggregate, error)

	// Ingest run bookkeeping
	SaveIngestRun(ctx context.Context, run *models.IngestRun) error
	GetIngestRuns(ctx context.Context, limit int) ([]*models.IngestRun, error)

	// Statistics and maintenance
	GetSeasons(ctx context.Context) ([]string, error)
	GetStorageStats() (*StorageStats, error)
	Cleanup(ctx context.Context, retentionDays int) error
	GetHealth() *HealthStatus

	// SetMetricsManager wires the metrics manager after construction
	SetMetricsManager(manager *metrics.Manager)
}

// StorageConfig holds storage backend configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
	RetentionDays    int           `json:"retention_days"`
}

// StorageStats contains storage-level statistics
type StorageStats struct {
	SnapshotCount     int64    `json:"snapshot_count"`
	DayAggregateCount int64    `json:"day_aggregate_count"`
	IngestRunCount    int64    `json:"ingest_run_count"`
	Seasons           []string `json:"seasons"`
}

// HealthStatus describes storage health
type HealthStatus struct {
	Healthy   bool      `json:"healthy"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
