package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/confstats/regboard/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger("error", "text", "stdout", "")
	os.Exit(m.Run())
}

func TestReadWellFormedLog(t *testing.T) {
	log := strings.Join([]string{
		`{"CurrentDateTimeUtc":"2026-01-10T08:00:00Z","TotalCount":10,"Status":{"new":4,"approved":3,"paid":3},"Sponsor":{"normal":8,"sponsor":2}}`,
		`{"CurrentDateTimeUtc":"2026-01-10T20:00:00Z","TotalCount":15,"Status":{"new":5,"approved":4,"partially paid":1,"paid":5},"Sponsor":{"normal":11,"sponsor":3,"supersponsor":1}}`,
		``,
		`{"CurrentDateTimeUtc":"2026-01-11T08:00:00Z","TotalCount":20,"Status":{"new":6,"approved":5,"paid":8,"checked in":1},"Sponsor":{"normal":15,"sponsor":4,"supersponsor":1}}`,
	}, "\n")

	reader := NewReader(nil)
	snapshots, summary, err := reader.Read(strings.NewReader(log), "2026")
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}

	if len(snapshots) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(snapshots))
	}
	if summary.Snapshots != 3 {
		t.Errorf("Expected summary to count 3 snapshots, got %d", summary.Snapshots)
	}
	if summary.Lines != 4 {
		t.Errorf("Expected 4 lines, got %d", summary.Lines)
	}
	if summary.TotalMismatches != 0 {
		t.Errorf("Expected no total mismatches, got %d", summary.TotalMismatches)
	}

	first := snapshots[0]
	if first.Season != "2026" {
		t.Errorf("Expected season 2026, got %s", first.Season)
	}
	if !first.Timestamp.Equal(time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected timestamp %v", first.Timestamp)
	}

	// Missing statuses read as zero
	if first.Status.PartiallyPaid != 0 || first.Status.CheckedIn != 0 {
		t.Errorf("Expected missing statuses to be zero, got %+v", first.Status)
	}
	if first.Sponsor.SuperSponsor != 0 {
		t.Errorf("Expected missing sponsor tier to be zero, got %+v", first.Sponsor)
	}

	// Total equals the sum of its status sub-counts
	for i, s := range snapshots {
		if s.Status.Sum() != s.TotalCount {
			t.Errorf("Snapshot %d: status sum %d != total %d", i, s.Status.Sum(), s.TotalCount)
		}
	}
}

func TestReadMalformedJSON(t *testing.T) {
	reader := NewReader(nil)

	_, _, err := reader.Read(strings.NewReader(`{"CurrentDateTimeUtc":`), "2026")
	if err == nil {
		t.Fatal("Expected error for malformed JSON")
	}
}

func TestReadUnknownStatusKey(t *testing.T) {
	log := `{"CurrentDateTimeUtc":"2026-01-10T08:00:00Z","TotalCount":1,"Status":{"refunded":1},"Sponsor":{}}`

	reader := NewReader(nil)
	_, _, err := reader.Read(strings.NewReader(log), "2026")
	if err == nil {
		t.Fatal("Expected error for unknown status key")
	}
	if !strings.Contains(err.Error(), "refunded") {
		t.Errorf("Expected error to name the unknown key, got: %v", err)
	}
}

func TestReadUnknownSponsorKey(t *testing.T) {
	log := `{"CurrentDateTimeUtc":"2026-01-10T08:00:00Z","TotalCount":1,"Status":{"new":1},"Sponsor":{"platinum":1}}`

	reader := NewReader(nil)
	_, _, err := reader.Read(strings.NewReader(log), "2026")
	if err == nil {
		t.Fatal("Expected error for unknown sponsor tier")
	}
}

func TestReadBadTimestamp(t *testing.T) {
	log := `{"CurrentDateTimeUtc":"not a time","TotalCount":1,"Status":{"new":1},"Sponsor":{}}`

	reader := NewReader(nil)
	_, _, err := reader.Read(strings.NewReader(log), "2026")
	if err == nil {
		t.Fatal("Expected error for bad timestamp")
	}
}

func TestReadTotalMismatchIsNotFatal(t *testing.T) {
	log := `{"CurrentDateTimeUtc":"2026-01-10T08:00:00Z","TotalCount":99,"Status":{"new":1},"Sponsor":{}}`

	reader := NewReader(nil)
	snapshots, summary, err := reader.Read(strings.NewReader(log), "2026")
	if err != nil {
		t.Fatalf("Mismatch should not fail the read: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(snapshots))
	}
	if summary.TotalMismatches != 1 {
		t.Errorf("Expected 1 total mismatch, got %d", summary.TotalMismatches)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.txt")

	content := `{"CurrentDateTimeUtc":"2026-01-10T08:00:00Z","TotalCount":2,"Status":{"new":2},"Sponsor":{"normal":2}}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test log: %v", err)
	}

	reader := NewReader(nil)
	snapshots, _, err := reader.ReadFile(path, "2026")
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("Expected 1 snapshot, got %d", len(snapshots))
	}

	if _, _, err := reader.ReadFile(filepath.Join(dir, "missing.txt"), "2026"); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	cases := []string{
		"2026-01-10T08:00:00Z",
		"2026-01-10T08:00:00.123456Z",
		"2026-01-10T08:00:00",
		"2026-01-10 08:00:00",
	}

	for _, c := range cases {
		ts, err := parseTimestamp(c)
		if err != nil {
			t.Errorf("Failed to parse %q: %v", c, err)
			continue
		}
		if ts.Location() != time.UTC {
			t.Errorf("Expected UTC for %q, got %v", c, ts.Location())
		}
	}
}
