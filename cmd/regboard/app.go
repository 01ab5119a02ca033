// File: cmd/regboard/app.go
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/confstats/regboard/internal/aggregate"
	"github.com/confstats/regboard/internal/chart"
	"github.com/confstats/regboard/internal/config"
	"github.com/confstats/regboard/internal/exporter"
	"github.com/confstats/regboard/internal/ingest"
	"github.com/confstats/regboard/internal/metrics"
	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/internal/scheduler"
	"github.com/confstats/regboard/internal/server"
	"github.com/confstats/regboard/internal/storage"
	"github.com/confstats/regboard/pkg/utils"
)

// season bundles one season's log with its aggregates after a pipeline pass.
type season struct {
	input      config.SeasonInput
	snapshots  []*models.Snapshot
	aggregates []*models.DayAggregate
	summary    *ingest.Summary
}

// loadSeasons reads the configured logs and computes their day-wise
// aggregates. The previous season is optional.
func loadSeasons(cfg *config.Config, metricsManager *metrics.Manager) ([]*season, error) {
	reader := ingest.NewReader(metricsManager)

	inputs := []config.SeasonInput{cfg.Input.Current}
	if cfg.Input.Previous.Path != "" {
		inputs = append(inputs, cfg.Input.Previous)
	}

	var seasons []*season
	for _, input := range inputs {
		start := time.Now()

		snapshots, summary, err := reader.ReadFile(input.Path, input.Label)
		if err != nil {
			return nil, err
		}

		if metricsManager != nil {
			metricsManager.GetPrometheusMetrics().RecordIngestDuration(input.Label, time.Since(start))
		}

		seasons = append(seasons, &season{
			input:      input,
			snapshots:  snapshots,
			aggregates: aggregate.Daywise(snapshots, cfg.Aggregate.DayIndexOffset),
			summary:    summary,
		})
	}

	return seasons, nil
}

// buildChartData assembles the renderer input from loaded seasons.
func buildChartData(cfg *config.Config, seasons []*season) *chart.Data {
	data := &chart.Data{
		Current:       seasons[0].aggregates,
		CurrentLabel:  seasons[0].input.Label,
		PreviousLabel: cfg.Input.Previous.Label,
		CheckinRate:   aggregate.CheckinRate(seasons[0].aggregates, cfg.Aggregate.CheckinWindowDays),
	}

	if len(seasons) > 1 {
		data.Previous = seasons[1].aggregates
	}

	return data
}

// runRender implements the one-shot render command: read logs, aggregate,
// draw, write the SVG.
func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	seasons, err := loadSeasons(cfg, nil)
	if err != nil {
		return err
	}

	renderer := chart.NewRenderer(&cfg.Chart, nil)
	if err := renderer.Render(buildChartData(cfg, seasons)); err != nil {
		return err
	}

	fmt.Printf("Chart written to %s\n", cfg.Chart.OutputPath)
	return nil
}

// runIngest implements the ingest command: read logs and persist snapshots,
// aggregates and a run record.
func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := ingestToStorage(ctx, cfg, store, nil); err != nil {
		return err
	}

	stats, err := store.GetStorageStats()
	if err != nil {
		return err
	}

	fmt.Printf("Ingest complete: %d snapshots, %d day aggregates stored\n",
		stats.SnapshotCount, stats.DayAggregateCount)
	return nil
}

// runExport implements the export command: read the current log, aggregate
// and write the table to the configured format.
func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	seasons, err := loadSeasons(cfg, nil)
	if err != nil {
		return err
	}

	exp := exporter.NewExporter()
	name := fmt.Sprintf("daywise_%s.%s", seasons[0].input.Label, cfg.Export.Format)
	path := filepath.Join(cfg.Export.OutputDir, name)

	switch cfg.Export.Format {
	case "csv":
		err = exp.ExportCSV(seasons[0].aggregates, path)
	default:
		err = exp.ExportXLSX(seasons[0].aggregates, path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Table written to %s\n", path)
	return nil
}

// ingestToStorage runs one full ingest pass over the configured logs and
// persists everything, returning the loaded seasons for further use.
func ingestToStorage(ctx context.Context, cfg *config.Config, store storage.Storage, metricsManager *metrics.Manager) ([]*season, error) {
	seasons, err := loadSeasonsWithRuns(ctx, cfg, store, metricsManager)
	if err != nil {
		return nil, err
	}

	for _, ssn := range seasons {
		if err := store.SaveSnapshots(ctx, ssn.snapshots); err != nil {
			return nil, err
		}
		if err := store.SaveDayAggregates(ctx, ssn.aggregates); err != nil {
			return nil, err
		}
		if metricsManager != nil {
			count, err := store.GetSnapshotCount(ctx, models.SnapshotFilter{Season: &ssn.input.Label})
			if err == nil {
				metricsManager.GetPrometheusMetrics().UpdateSnapshotsStored(ssn.input.Label, count)
			}
		}
	}

	return seasons, nil
}

// loadSeasonsWithRuns wraps loadSeasons with ingest run bookkeeping.
func loadSeasonsWithRuns(ctx context.Context, cfg *config.Config, store storage.Storage, metricsManager *metrics.Manager) ([]*season, error) {
	run := &models.IngestRun{
		ID:        uuid.NewString(),
		Season:    cfg.Input.Current.Label,
		Source:    cfg.Input.Current.Path,
		Status:    models.IngestRunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := store.SaveIngestRun(ctx, run); err != nil {
		return nil, err
	}

	seasons, err := loadSeasons(cfg, metricsManager)

	now := time.Now().UTC()
	run.FinishedAt = &now

	if err != nil {
		msg := err.Error()
		run.Status = models.IngestRunStatusFailed
		run.Error = &msg
	} else {
		run.Status = models.IngestRunStatusCompleted
		run.Lines = seasons[0].summary.Lines
		run.Snapshots = seasons[0].summary.Snapshots
		run.TotalMismatches = seasons[0].summary.TotalMismatches
	}

	if saveErr := store.SaveIngestRun(ctx, run); saveErr != nil {
		utils.GetLogger().WithError(saveErr).Error("Failed to record ingest run")
	}

	return seasons, err
}

// Application wires the serve-mode components together
type Application struct {
	config         *config.Config
	storage        storage.Storage
	metricsManager *metrics.Manager
	renderer       *chart.Renderer
	refresher      *scheduler.RefreshService
	server         *server.HTTPServer
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewApplication creates a new serve-mode application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config:         cfg,
		metricsManager: metrics.NewManager(),
		ctx:            ctx,
		cancel:         cancel,
	}

	store, err := openStorage(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	store.SetMetricsManager(app.metricsManager)
	app.storage = store

	app.renderer = chart.NewRenderer(&cfg.Chart, app.metricsManager)
	app.refresher = scheduler.NewRefreshService(&cfg.Scheduler, app.refreshOnce)

	app.server, err = server.NewHTTPServer(cfg, app.storage, app.refresher, app.metricsManager)
	if err != nil {
		cancel()
		store.Close()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return app, nil
}

// refreshOnce is the scheduled job: re-ingest the logs, persist, re-render.
func (app *Application) refreshOnce(ctx context.Context) error {
	seasons, err := ingestToStorage(ctx, app.config, app.storage, app.metricsManager)
	if err != nil {
		return err
	}

	return app.renderer.Render(buildChartData(app.config, seasons))
}

// Start starts the application
func (app *Application) Start() error {
	logger := utils.GetLogger()
	logger.WithField("version", AppVersion).Info("Starting regboard")

	// Render once at startup so /api/v1/chart has something to serve
	if err := app.refresher.TriggerNow(app.ctx); err != nil {
		logger.WithError(err).Warn("Initial refresh failed, continuing")
	}

	if err := app.server.Start(); err != nil {
		return err
	}

	if err := app.refresher.Start(app.ctx); err != nil {
		return err
	}

	logger.WithField("address", fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port)).
		Info("regboard started")

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	logger := utils.GetLogger()
	logger.Info("Stopping regboard")

	app.cancel()

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop HTTP server")
		}
	}

	if app.refresher != nil {
		app.refresher.Stop()
	}

	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			logger.WithError(err).Error("Failed to close storage")
		}
	}

	logger.Info("regboard stopped")
	return nil
}
