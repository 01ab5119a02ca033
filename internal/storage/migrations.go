// File: internal/storage/migrations.go
package storage

import (
	"time"
)

// Migration represents a database migration
type Migration struct {
	Version     string
	Description string
	SQL         string
	AppliedAt   time.Time
}

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create snapshots table",
			SQL: `
				CREATE TABLE IF NOT EXISTS snapshots (
					id TEXT PRIMARY KEY,
					season TEXT NOT NULL,
					timestamp DATETIME NOT NULL,
					total_count INTEGER NOT NULL,
					status_new INTEGER NOT NULL DEFAULT 0,
					status_approved INTEGER NOT NULL DEFAULT 0,
					status_partially_paid INTEGER NOT NULL DEFAULT 0,
					status_paid INTEGER NOT NULL DEFAULT 0,
					status_checked_in INTEGER NOT NULL DEFAULT 0,
					sponsor_normal INTEGER NOT NULL DEFAULT 0,
					sponsor_sponsor INTEGER NOT NULL DEFAULT 0,
					sponsor_supersponsor INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_snapshots_season ON snapshots(season);
				CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_unique ON snapshots(season, timestamp);
			`,
		},
		{
			Version:     "002",
			Description: "Create day_aggregates table",
			SQL: `
				CREATE TABLE IF NOT EXISTS day_aggregates (
					season TEXT NOT NULL,
					date DATETIME NOT NULL,
					day_index INTEGER NOT NULL,
					total_count INTEGER NOT NULL,
					status_new INTEGER NOT NULL DEFAULT 0,
					status_approved INTEGER NOT NULL DEFAULT 0,
					status_partially_paid INTEGER NOT NULL DEFAULT 0,
					status_paid INTEGER NOT NULL DEFAULT 0,
					status_checked_in INTEGER NOT NULL DEFAULT 0,
					sponsor_normal INTEGER NOT NULL DEFAULT 0,
					sponsor_sponsor INTEGER NOT NULL DEFAULT 0,
					sponsor_supersponsor INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (season, date)
				);

				CREATE INDEX IF NOT EXISTS idx_day_aggregates_day_index ON day_aggregates(day_index);
			`,
		},
		{
			Version:     "003",
			Description: "Create ingest_runs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS ingest_runs (
					id TEXT PRIMARY KEY,
					season TEXT NOT NULL,
					source TEXT NOT NULL,
					lines INTEGER NOT NULL DEFAULT 0,
					snapshots INTEGER NOT NULL DEFAULT 0,
					total_mismatches INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL,
					error TEXT,
					started_at DATETIME NOT NULL,
					finished_at DATETIME
				);

				CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at);
			`,
		},
	}
}

// GetPostgreSQLMigrations returns PostgreSQL migration scripts
func GetPostgreSQLMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create snapshots table",
			SQL: `
				CREATE TABLE IF NOT EXISTS snapshots (
					id TEXT PRIMARY KEY,
					season TEXT NOT NULL,
					timestamp TIMESTAMPTZ NOT NULL,
					total_count INTEGER NOT NULL,
					status_new INTEGER NOT NULL DEFAULT 0,
					status_approved INTEGER NOT NULL DEFAULT 0,
					status_partially_paid INTEGER NOT NULL DEFAULT 0,
					status_paid INTEGER NOT NULL DEFAULT 0,
					status_checked_in INTEGER NOT NULL DEFAULT 0,
					sponsor_normal INTEGER NOT NULL DEFAULT 0,
					sponsor_sponsor INTEGER NOT NULL DEFAULT 0,
					sponsor_supersponsor INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_snapshots_season ON snapshots(season);
				CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_snapshots_unique ON snapshots(season, timestamp);
			`,
		},
		{
			Version:     "002",
			Description: "Create day_aggregates table",
			SQL: `
				CREATE TABLE IF NOT EXISTS day_aggregates (
					season TEXT NOT NULL,
					date TIMESTAMPTZ NOT NULL,
					day_index INTEGER NOT NULL,
					total_count INTEGER NOT NULL,
					status_new INTEGER NOT NULL DEFAULT 0,
					status_approved INTEGER NOT NULL DEFAULT 0,
					status_partially_paid INTEGER NOT NULL DEFAULT 0,
					status_paid INTEGER NOT NULL DEFAULT 0,
					status_checked_in INTEGER NOT NULL DEFAULT 0,
					sponsor_normal INTEGER NOT NULL DEFAULT 0,
					sponsor_sponsor INTEGER NOT NULL DEFAULT 0,
					sponsor_supersponsor INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ DEFAULT NOW(),
					PRIMARY KEY (season, date)
				);

				CREATE INDEX IF NOT EXISTS idx_day_aggregates_day_index ON day_aggregates(day_index);
			`,
		},
		{
			Version:     "003",
			Description: "Create ingest_runs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS ingest_runs (
					id TEXT PRIMARY KEY,
					season TEXT NOT NULL,
					source TEXT NOT NULL,
					lines INTEGER NOT NULL DEFAULT 0,
					snapshots INTEGER NOT NULL DEFAULT 0,
					total_mismatches INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL,
					error TEXT,
					started_at TIMESTAMPTZ NOT NULL,
					finished_at TIMESTAMPTZ
				);

				CREATE INDEX IF NOT EXISTS idx_ingest_runs_started_at ON ingest_runs(started_at);
			`,
		},
	}
}
