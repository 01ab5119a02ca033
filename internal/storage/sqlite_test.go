package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger("error", "text", "stdout", "")
	os.Exit(m.Run())
}

func newTestStorage(t *testing.T) Storage {
	t.Helper()

	cfg := &StorageConfig{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "test.db"),
		MaxConnections:   10,
		MaxIdleTime:      15 * time.Minute,
	}

	store := NewSQLiteStorage(cfg)
	require.NoError(t, store.Connect(), "Failed to connect to storage")
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(), "Failed to migrate storage")
	require.NoError(t, store.Ping(), "Failed to ping storage")

	return store
}

func testSnapshot(season string, ts time.Time, total int) *models.Snapshot {
	return &models.Snapshot{
		ID:         uuid.NewString(),
		Season:     season,
		Timestamp:  ts,
		TotalCount: total,
		Status:     models.StatusCounts{New: 1, Approved: 2, Paid: total - 3},
		Sponsor:    models.SponsorCounts{Normal: total - 1, Sponsor: 1},
	}
}

func TestSQLiteStorage(t *testing.T) {
	store := newTestStorage(t)

	t.Run("Snapshot Operations", func(t *testing.T) { testSnapshotOperations(t, store) })
	t.Run("Day Aggregate Operations", func(t *testing.T) { testDayAggregateOperations(t, store) })
	t.Run("Ingest Run Operations", func(t *testing.T) { testIngestRunOperations(t, store) })
	t.Run("Statistics", func(t *testing.T) { testStatistics(t, store) })
}

func testSnapshotOperations(t *testing.T, store Storage) {
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	// Save a single snapshot
	snapshot := testSnapshot("2026", base, 10)
	if err := store.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	// Save a batch
	batch := []*models.Snapshot{
		testSnapshot("2026", base.Add(6*time.Hour), 12),
		testSnapshot("2026", base.Add(12*time.Hour), 15),
		testSnapshot("2025", base.AddDate(-1, 0, 0), 8),
	}
	if err := store.SaveSnapshots(ctx, batch); err != nil {
		t.Fatalf("Failed to save snapshot batch: %v", err)
	}

	// Filter by season
	season := "2026"
	snapshots, err := store.GetSnapshots(ctx, models.SnapshotFilter{Season: &season})
	if err != nil {
		t.Fatalf("Failed to get snapshots: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 snapshots for 2026, got %d", len(snapshots))
	}

	// Snapshots come back in timestamp order with fields intact
	if !snapshots[0].Timestamp.Equal(base) {
		t.Errorf("Expected first timestamp %v, got %v", base, snapshots[0].Timestamp)
	}
	if snapshots[0].Status.Approved != 2 {
		t.Errorf("Status counts not round-tripped: %+v", snapshots[0].Status)
	}
	if snapshots[0].Sponsor.Sponsor != 1 {
		t.Errorf("Sponsor counts not round-tripped: %+v", snapshots[0].Sponsor)
	}

	// Count
	count, err := store.GetSnapshotCount(ctx, models.SnapshotFilter{Season: &season})
	if err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}

	// Latest
	latest, err := store.GetLatestSnapshot(ctx, "2026")
	if err != nil {
		t.Fatalf("Failed to get latest snapshot: %v", err)
	}
	if latest == nil || latest.TotalCount != 15 {
		t.Errorf("Expected latest total 15, got %+v", latest)
	}

	// Unknown season yields nil, not an error
	missing, err := store.GetLatestSnapshot(ctx, "1999")
	if err != nil {
		t.Fatalf("Unexpected error for unknown season: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown season, got %+v", missing)
	}

	// Saving the same (season, timestamp) twice keeps one row
	dup := testSnapshot("2026", base, 11)
	if err := store.SaveSnapshot(ctx, dup); err != nil {
		t.Fatalf("Failed to upsert snapshot: %v", err)
	}
	count, err = store.GetSnapshotCount(ctx, models.SnapshotFilter{Season: &season})
	if err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected upsert to keep 3 rows, got %d", count)
	}
}

func testDayAggregateOperations(t *testing.T, store Storage) {
	ctx := context.Background()
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	aggregates := []*models.DayAggregate{
		{Season: "2026", Date: base, DayIndex: -3, TotalCount: 10,
			Status: models.StatusCounts{Paid: 10}, Sponsor: models.SponsorCounts{Normal: 10}},
		{Season: "2026", Date: base.AddDate(0, 0, 1), DayIndex: -2, TotalCount: 25,
			Status: models.StatusCounts{Paid: 25}, Sponsor: models.SponsorCounts{Normal: 20, Sponsor: 5}},
	}

	if err := store.SaveDayAggregates(ctx, aggregates); err != nil {
		t.Fatalf("Failed to save day aggregates: %v", err)
	}

	got, err := store.GetDayAggregates(ctx, "2026")
	if err != nil {
		t.Fatalf("Failed to get day aggregates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 aggregates, got %d", len(got))
	}
	if got[0].DayIndex != -3 || got[1].DayIndex != -2 {
		t.Errorf("Day indices not round-tripped: %d, %d", got[0].DayIndex, got[1].DayIndex)
	}

	// Re-saving the same dates updates in place
	aggregates[1].TotalCount = 30
	if err := store.SaveDayAggregates(ctx, aggregates); err != nil {
		t.Fatalf("Failed to upsert day aggregates: %v", err)
	}
	got, err = store.GetDayAggregates(ctx, "2026")
	if err != nil {
		t.Fatalf("Failed to get day aggregates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected upsert to keep 2 rows, got %d", len(got))
	}
	if got[1].TotalCount != 30 {
		t.Errorf("Expected updated total 30, got %d", got[1].TotalCount)
	}
}

func testIngestRunOperations(t *testing.T, store Storage) {
	ctx := context.Background()

	run := &models.IngestRun{
		ID:        uuid.NewString(),
		Season:    "2026",
		Source:    "./data/log.txt",
		Status:    models.IngestRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	if err := store.SaveIngestRun(ctx, run); err != nil {
		t.Fatalf("Failed to save ingest run: %v", err)
	}

	// Complete the run
	now := time.Now().UTC()
	run.Status = models.IngestRunStatusCompleted
	run.Lines = 100
	run.Snapshots = 98
	run.TotalMismatches = 1
	run.FinishedAt = &now

	if err := store.SaveIngestRun(ctx, run); err != nil {
		t.Fatalf("Failed to update ingest run: %v", err)
	}

	runs, err := store.GetIngestRuns(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to get ingest runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != models.IngestRunStatusCompleted {
		t.Errorf("Expected completed status, got %s", runs[0].Status)
	}
	if runs[0].Snapshots != 98 || runs[0].TotalMismatches != 1 {
		t.Errorf("Run counters not round-tripped: %+v", runs[0])
	}
	if runs[0].FinishedAt == nil {
		t.Error("Expected finished_at to be set")
	}
}

func testStatistics(t *testing.T, store Storage) {
	stats, err := store.GetStorageStats()
	if err != nil {
		t.Fatalf("Failed to get storage stats: %v", err)
	}

	if stats.SnapshotCount == 0 {
		t.Error("Expected snapshots to be counted")
	}
	if stats.DayAggregateCount == 0 {
		t.Error("Expected day aggregates to be counted")
	}
	if len(stats.Seasons) < 2 {
		t.Errorf("Expected at least 2 seasons, got %v", stats.Seasons)
	}

	health := store.GetHealth()
	if !health.Healthy {
		t.Errorf("Expected healthy storage: %+v", health)
	}
}

func TestSQLiteCleanup(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	old := testSnapshot("2024", time.Now().UTC().AddDate(0, 0, -30), 5)
	recent := testSnapshot("2026", time.Now().UTC(), 10)

	if err := store.SaveSnapshots(ctx, []*models.Snapshot{old, recent}); err != nil {
		t.Fatalf("Failed to save snapshots: %v", err)
	}

	if err := store.Cleanup(ctx, 7); err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}

	count, err := store.GetSnapshotCount(ctx, models.SnapshotFilter{})
	if err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected old snapshot to be removed, have %d rows", count)
	}
}
