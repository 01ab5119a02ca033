// File: internal/scheduler/refresh.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/confstats/regboard/internal/config"
	"github.com/confstats/regboard/pkg/utils"
)

// Job is the unit of work the scheduler runs: re-ingest the snapshot logs
// and re-render the chart.
type Job func(ctx context.Context) error

// RefreshService periodically re-runs the ingest and render pipeline in
// serve mode
type RefreshService struct {
	scheduler *gocron.Scheduler
	config    *config.SchedulerConfig
	logger    *logrus.Logger
	job       Job

	mu              sync.Mutex
	running         bool
	lastStartedAt   time.Time
	lastCompletedAt time.Time
	lastError       error
	runs            int
}

// NewRefreshService creates a new refresh service
func NewRefreshService(cfg *config.SchedulerConfig, job Job) *RefreshService {
	return &RefreshService{
		scheduler: gocron.NewScheduler(time.UTC),
		config:    cfg,
		logger:    utils.GetLogger(),
		job:       job,
	}
}

// Start schedules the refresh job and runs the scheduler until ctx is done
func (s *RefreshService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduled refresh disabled by configuration")
		return nil
	}

	s.logger.WithField("cron", s.config.CronSchedule).Info("Starting scheduled refresh")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return utils.NewAppError(utils.ErrCodeConfiguration,
			"Failed to schedule refresh job", err.Error())
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		s.logger.Info("Stopping scheduled refresh")
		s.scheduler.Stop()
	}()

	return nil
}

// Stop stops the scheduler
func (s *RefreshService) Stop() {
	s.scheduler.Stop()
}

// TriggerNow runs the refresh job immediately, skipping if one is already
// in flight.
func (s *RefreshService) TriggerNow(ctx context.Context) error {
	return s.runOnce(ctx)
}

// runOnce executes the job with the overlap guard held
func (s *RefreshService) runOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("Refresh already in progress, skipping")
		return nil
	}
	s.running = true
	s.lastStartedAt = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.lastCompletedAt = time.Now()
		s.runs++
		s.mu.Unlock()
	}()

	err := s.job(ctx)

	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).Error("Scheduled refresh failed")
		return err
	}

	s.logger.Info("Scheduled refresh completed")
	return nil
}

// GetStats returns scheduler statistics
func (s *RefreshService) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"enabled":  s.config.Enabled,
		"schedule": s.config.CronSchedule,
		"running":  s.running,
		"runs":     s.runs,
	}

	if !s.lastStartedAt.IsZero() {
		stats["last_started_at"] = s.lastStartedAt
	}
	if !s.lastCompletedAt.IsZero() {
		stats["last_completed_at"] = s.lastCompletedAt
	}
	if s.lastError != nil {
		stats["last_error"] = s.lastError.Error()
	}

	return stats
}

// IsHealthy reports whether the last refresh succeeded
func (s *RefreshService) IsHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError == nil
}
