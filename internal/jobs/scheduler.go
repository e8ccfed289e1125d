package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aicharya/aicharya-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Scheduler runs Jobs on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	jobs     *Jobs
	schedule string
}

func NewScheduler(jobs *Jobs, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		jobs:     jobs,
		schedule: schedule,
	}
}

// Start registers the cleanup jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.PurgeVerificationTokens); err != nil {
		return fmt.Errorf("schedule verification token cleanup: %w", err)
	}
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.PurgeRateLimits); err != nil {
		return fmt.Errorf("schedule rate limit cleanup: %w", err)
	}

	logger.Info("Scheduled cleanup jobs", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
