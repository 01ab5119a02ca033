package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/confstats/regboard/internal/aggregate"
	"github.com/confstats/regboard/internal/config"
	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger("error", "text", "stdout", "")
	os.Exit(m.Run())
}

func testData() *Data {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	var current, previous []*models.DayAggregate
	for i := 0; i < 14; i++ {
		current = append(current, &models.DayAggregate{
			Season:     "2026",
			Date:       base.AddDate(0, 0, i),
			DayIndex:   i - 3,
			TotalCount: 50 * (i + 1),
			Status:     models.StatusCounts{Paid: 40 * (i + 1), CheckedIn: 2 * i},
			Sponsor:    models.SponsorCounts{Normal: 40 * (i + 1), Sponsor: 8 * (i + 1), SuperSponsor: 2 * (i + 1)},
		})
		previous = append(previous, &models.DayAggregate{
			Season:     "2025",
			Date:       base.AddDate(-1, 0, i),
			DayIndex:   i - 3,
			TotalCount: 40 * (i + 1),
		})
	}

	return &Data{
		Current:       current,
		Previous:      previous,
		CheckinRate:   aggregate.CheckinRate(current, 7),
		CurrentLabel:  "2026",
		PreviousLabel: "2025",
	}
}

func testChartConfig(outputPath string) *config.ChartConfig {
	return &config.ChartConfig{
		OutputPath:   outputPath,
		WidthInches:  15,
		HeightInches: 15,
		Annotation:   "For questions, contact the registration team.",
	}
}

func TestRenderTo(t *testing.T) {
	renderer := NewRenderer(testChartConfig("unused.svg"), nil)

	var buf bytes.Buffer
	if err := renderer.RenderTo(testData(), &buf); err != nil {
		t.Fatalf("Failed to render: %v", err)
	}

	svg := buf.String()
	if !strings.Contains(svg, "<svg") {
		t.Error("Output does not look like SVG")
	}
	if len(svg) < 1024 {
		t.Errorf("Suspiciously small SVG: %d bytes", len(svg))
	}
}

func TestRenderWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "Fig1.svg")

	renderer := NewRenderer(testChartConfig(path), nil)
	if err := renderer.Render(testData()); err != nil {
		t.Fatalf("Failed to render: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Output file is empty")
	}
}

func TestRenderEmptyData(t *testing.T) {
	renderer := NewRenderer(testChartConfig("unused.svg"), nil)

	var buf bytes.Buffer
	err := renderer.RenderTo(&Data{CurrentLabel: "2026", PreviousLabel: "2025"}, &buf)
	if err != nil {
		t.Fatalf("Empty data should still render a frame: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("Output does not look like SVG")
	}
}

func TestRenderWithoutPreviousSeason(t *testing.T) {
	data := testData()
	data.Previous = nil

	renderer := NewRenderer(testChartConfig("unused.svg"), nil)

	var buf bytes.Buffer
	if err := renderer.RenderTo(data, &buf); err != nil {
		t.Fatalf("Render without previous season failed: %v", err)
	}
}
