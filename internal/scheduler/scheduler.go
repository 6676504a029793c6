package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/gridmet-summary/internal/summary"
)

// Job is a recurring preset export.
type Job struct {
	Name      string         `koanf:"name"`
	Preset    summary.Preset `koanf:"preset"`
	Cron      string         `koanf:"cron"`
	OutputDir string         `koanf:"output_dir"`
}

// Runner executes a preset.
type Runner interface {
	RunPreset(ctx context.Context, p summary.Preset, outputDir string) (summary.Record, error)
}

// Scheduler runs configured preset exports on cron schedules.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	jobs      []Job
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. Each run is bounded by timeout.
func New(logger *zap.Logger, jobs []Job, timeout time.Duration, runner Runner) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		jobs:      jobs,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start registers every job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		s.logger.Info("scheduler: no jobs configured; nothing to schedule")
		return nil
	}

	for _, job := range s.jobs {
		if _, err := summary.ParsePreset(string(job.Preset)); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		if _, err := s.scheduler.Cron(job.Cron).Tag(job.Name).Do(s.run, job); err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		s.logger.Info("scheduled export job",
			zap.String("job", job.Name),
			zap.String("preset", string(job.Preset)),
			zap.String("cron", job.Cron),
		)
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run(job Job) {
	s.logger.Info("scheduler: running export job", zap.String("job", job.Name))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rec, err := s.runner.RunPreset(ctx, job.Preset, job.OutputDir)
	if err != nil {
		s.logger.Error("scheduler: export job failed",
			zap.String("job", job.Name),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("scheduler: completed export job",
		zap.String("job", job.Name),
		zap.String("record", rec.ID),
	)
}

// Len reports the number of registered jobs.
func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
