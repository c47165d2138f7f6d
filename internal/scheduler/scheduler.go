package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/cache"
	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
	"github.com/mariusnicorescu85/uk-property-investment/internal/refresh"
)

// JobType represents different types of scheduled jobs
type JobType int

const (
	JobTypeEconomicWarm JobType = iota
	JobTypeMetricsRefresh
	JobTypeFullRefresh
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeEconomicWarm:
		return "economic_warm"
	case JobTypeMetricsRefresh:
		return "metrics_refresh"
	case JobTypeFullRefresh:
		return "full_refresh"
	default:
		return "unknown"
	}
}

// Refresher is the part of the refresh manager the scheduler drives.
type Refresher interface {
	RefreshAll(ctx context.Context) (*models.RefreshSummary, error)
	WarmEconomic(ctx context.Context)
}

// Schedules holds the cron expressions for the periodic jobs.
type Schedules struct {
	EconomicWarm   string
	MetricsRefresh string
	FullRefresh    string
}

// Scheduler manages periodic execution of the warm and refresh jobs
type Scheduler struct {
	refresher Refresher
	cache     cache.Cache
	logger    *logrus.Logger
	cron      *cron.Cron
	jobMutex  sync.Mutex // Ensures sequential job execution
}

// NewScheduler creates a new scheduler
func NewScheduler(refresher Refresher, c cache.Cache, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		refresher: refresher,
		cache:     c,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start registers the jobs and begins the schedule. The economic warm-up
// also runs once immediately so the first request after boot does not pay
// for four upstream round trips.
func (s *Scheduler) Start(schedules Schedules) error {
	entries := []struct {
		spec string
		job  JobType
		run  func()
	}{
		{schedules.EconomicWarm, JobTypeEconomicWarm, s.runEconomicWarm},
		{schedules.MetricsRefresh, JobTypeMetricsRefresh, s.runMetricsRefresh},
		{schedules.FullRefresh, JobTypeFullRefresh, s.runFullRefresh},
	}

	for _, entry := range entries {
		if _, err := s.cron.AddFunc(entry.spec, entry.run); err != nil {
			return fmt.Errorf("failed to schedule %s job: %v", entry.job, err)
		}
		s.logger.WithFields(logrus.Fields{
			"job_type": entry.job.String(),
			"schedule": entry.spec,
		}).Info("Registered scheduled job")
	}

	s.cron.Start()

	go s.runEconomicWarm()

	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()

	// The startup warm-up runs outside cron, so wait on the job mutex too.
	s.jobMutex.Lock()
	s.jobMutex.Unlock()
}

func (s *Scheduler) runEconomicWarm() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	s.logger.WithField("job_type", JobTypeEconomicWarm.String()).Info("Starting scheduled job")
	s.refresher.WarmEconomic(context.Background())
	s.logger.WithField("job_type", JobTypeEconomicWarm.String()).Info("Scheduled job completed")
}

func (s *Scheduler) runMetricsRefresh() {
	s.runRefresh(JobTypeMetricsRefresh, false)
}

func (s *Scheduler) runFullRefresh() {
	s.runRefresh(JobTypeFullRefresh, true)
}

// runRefresh regenerates the stored metrics for the configured postcodes.
// A full refresh flushes the fetch cache first so every upstream source is
// consulted again instead of answering from recent entries.
func (s *Scheduler) runRefresh(job JobType, flushCache bool) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	s.logger.WithField("job_type", job.String()).Info("Starting scheduled job")

	if flushCache {
		s.cache.Flush()
		s.logger.WithField("job_type", job.String()).Info("Flushed fetch cache")
	}

	summary, err := s.refresher.RefreshAll(context.Background())
	if err != nil {
		if errors.Is(err, refresh.ErrAlreadyRunning) {
			s.logger.WithField("job_type", job.String()).Warn("Skipping scheduled job, a refresh is already running")
			return
		}
		s.logger.WithError(err).WithField("job_type", job.String()).Error("Scheduled job failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"job_type": job.String(),
		"summary":  summary.String(),
	}).Info("Scheduled job completed")
}
