package aggregate

import (
	"testing"
	"time"

	"github.com/confstats/regboard/internal/models"
)

func snapshotAt(t time.Time, total, checkedIn int) *models.Snapshot {
	return &models.Snapshot{
		Season:     "2026",
		Timestamp:  t,
		TotalCount: total,
		Status:     models.StatusCounts{Paid: total - checkedIn, CheckedIn: checkedIn},
	}
}

func TestDaywiseLastObservationWins(t *testing.T) {
	day1 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	snapshots := []*models.Snapshot{
		snapshotAt(day1.Add(8*time.Hour), 10, 0),
		snapshotAt(day1.Add(20*time.Hour), 15, 0),
		snapshotAt(day2.Add(9*time.Hour), 20, 1),
	}

	aggregates := Daywise(snapshots, 0)

	if len(aggregates) != 2 {
		t.Fatalf("Expected one row per distinct date, got %d", len(aggregates))
	}
	if aggregates[0].TotalCount != 15 {
		t.Errorf("Expected last observation of day 1 (15), got %d", aggregates[0].TotalCount)
	}
	if aggregates[1].TotalCount != 20 {
		t.Errorf("Expected 20 for day 2, got %d", aggregates[1].TotalCount)
	}
	if !aggregates[0].Date.Equal(day1) {
		t.Errorf("Expected date %v, got %v", day1, aggregates[0].Date)
	}
}

func TestDaywiseUnsortedInput(t *testing.T) {
	day1 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	snapshots := []*models.Snapshot{
		snapshotAt(day1.Add(20*time.Hour), 15, 0),
		snapshotAt(day1.Add(8*time.Hour), 10, 0),
	}

	aggregates := Daywise(snapshots, 0)
	if len(aggregates) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(aggregates))
	}
	if aggregates[0].TotalCount != 15 {
		t.Errorf("Expected the chronologically last snapshot to win, got %d", aggregates[0].TotalCount)
	}
}

func TestDaywiseDayIndexOffset(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	var snapshots []*models.Snapshot
	for i := 0; i < 5; i++ {
		snapshots = append(snapshots, snapshotAt(base.AddDate(0, 0, i), 10*(i+1), 0))
	}

	aggregates := Daywise(snapshots, 3)

	if aggregates[0].DayIndex != -3 {
		t.Errorf("Expected first day index -3, got %d", aggregates[0].DayIndex)
	}
	if aggregates[3].DayIndex != 0 {
		t.Errorf("Expected day 0 on the fourth day, got %d", aggregates[3].DayIndex)
	}
	if aggregates[4].DayIndex != 1 {
		t.Errorf("Expected day 1 on the fifth day, got %d", aggregates[4].DayIndex)
	}
}

func TestDaywiseEmpty(t *testing.T) {
	if aggs := Daywise(nil, 3); aggs != nil {
		t.Errorf("Expected nil for empty input, got %v", aggs)
	}
}

func TestTotalGains(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	snapshots := []*models.Snapshot{
		snapshotAt(base, 10, 0),
		snapshotAt(base.AddDate(0, 0, 1), 25, 0),
		snapshotAt(base.AddDate(0, 0, 2), 30, 0),
	}

	gains := TotalGains(Daywise(snapshots, 0))

	if len(gains) != 2 {
		t.Fatalf("Expected 2 deltas, got %d", len(gains))
	}
	if gains[0].Delta != 15 || gains[1].Delta != 5 {
		t.Errorf("Unexpected gains: %+v", gains)
	}
}

func TestCheckinRateWindow(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	var snapshots []*models.Snapshot
	for i := 0; i < 10; i++ {
		snapshots = append(snapshots, snapshotAt(base.AddDate(0, 0, i), 100, i*3))
	}

	rate := CheckinRate(Daywise(snapshots, 0), 7)

	if len(rate) != 7 {
		t.Fatalf("Expected trailing window of 7 days, got %d", len(rate))
	}
	for _, d := range rate {
		if d.Delta != 3 {
			t.Errorf("Expected check-in delta 3 on %v, got %d", d.Date, d.Delta)
		}
	}
}

func TestCheckinRateShortSeries(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	snapshots := []*models.Snapshot{
		snapshotAt(base, 100, 0),
		snapshotAt(base.AddDate(0, 0, 1), 100, 5),
	}

	rate := CheckinRate(Daywise(snapshots, 0), 7)
	if len(rate) != 1 {
		t.Fatalf("Expected 1 delta for 2 days, got %d", len(rate))
	}
	if rate[0].Delta != 5 {
		t.Errorf("Expected delta 5, got %d", rate[0].Delta)
	}
}

func TestCompare(t *testing.T) {
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	current := Daywise([]*models.Snapshot{
		snapshotAt(base, 10, 0),
		snapshotAt(base.AddDate(0, 0, 1), 20, 0),
	}, 0)

	previous := Daywise([]*models.Snapshot{
		snapshotAt(base.AddDate(-1, 0, 0), 5, 0),
		snapshotAt(base.AddDate(-1, 0, 1), 8, 0),
		snapshotAt(base.AddDate(-1, 0, 2), 12, 0),
	}, 0)

	cmp := Compare(current, previous)

	if cmp.MaxDayIndex() != 2 {
		t.Errorf("Expected max day index 2, got %d", cmp.MaxDayIndex())
	}
	if len(cmp.Current) != 2 || len(cmp.Previous) != 3 {
		t.Errorf("Unexpected comparison sizes: %d / %d", len(cmp.Current), len(cmp.Previous))
	}
}
