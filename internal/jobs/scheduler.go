package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the process's periodic housekeeping jobs.
type Scheduler struct {
	s      gocron.Scheduler
	logger *slog.Logger
}

func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(slogAdapter{logger: logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{s: s, logger: logger}, nil
}

// Every registers task to run at a fixed interval. A run that overlaps the next tick is
// rescheduled rather than stacked.
func (s *Scheduler) Every(name string, interval time.Duration, task func()) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}
	s.logger.Info("job scheduled", "name", name, "interval", interval.String())
	return nil
}

func (s *Scheduler) Start() { s.s.Start() }

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if err := s.s.Shutdown(); err != nil {
		s.logger.Error("scheduler shutdown failed", "error", err)
	}
}

func (s *Scheduler) JobCount() int { return len(s.s.Jobs()) }

type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debug(msg string, args ...any) { a.logger.Debug(msg, args...) }
func (a slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
