package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger("error", "text", "stdout", "")
	os.Exit(m.Run())
}

func testAggregates() []*models.DayAggregate {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return []*models.DayAggregate{
		{
			Season: "2026", Date: base, DayIndex: -3, TotalCount: 10,
			Status:  models.StatusCounts{New: 4, Approved: 3, Paid: 3},
			Sponsor: models.SponsorCounts{Normal: 9, Sponsor: 1},
		},
		{
			Season: "2026", Date: base.AddDate(0, 0, 1), DayIndex: -2, TotalCount: 25,
			Status:  models.StatusCounts{New: 5, Approved: 8, PartiallyPaid: 2, Paid: 10},
			Sponsor: models.SponsorCounts{Normal: 20, Sponsor: 4, SuperSponsor: 1},
		},
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "daywise.xlsx")

	if err := NewExporter().ExportXLSX(testAggregates(), path); err != nil {
		t.Fatalf("Failed to export XLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Daywise")
	if err != nil {
		t.Fatalf("Failed to read Daywise sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(rows))
	}

	if rows[0][0] != "Date" || rows[0][2] != "Total" {
		t.Errorf("Unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "2026-01-10" {
		t.Errorf("Expected date 2026-01-10, got %s", rows[1][0])
	}
	if rows[2][2] != "25" {
		t.Errorf("Expected total 25, got %s", rows[2][2])
	}
	if rows[2][10] != "1" {
		t.Errorf("Expected supersponsor 1, got %s", rows[2][10])
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daywise.csv")

	if err := NewExporter().ExportCSV(testAggregates(), path); err != nil {
		t.Fatalf("Failed to export CSV: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 records, got %d", len(records))
	}

	if records[0][1] != "DayIndex" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][1] != "-3" {
		t.Errorf("Expected day index -3, got %s", records[1][1])
	}
	if records[2][6] != "10" {
		t.Errorf("Expected paid 10, got %s", records[2][6])
	}
}

func TestExportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := NewExporter().ExportCSV(nil, path); err != nil {
		t.Fatalf("Failed to export empty table: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen CSV: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected header only, got %d records", len(records))
	}
}
