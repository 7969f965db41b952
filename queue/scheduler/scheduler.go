package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caasmo/credkeeper/config"
	"github.com/caasmo/credkeeper/db"
	"github.com/caasmo/credkeeper/queue/executor"
)

// jobTimeout bounds a single job execution.
const jobTimeout = 10 * time.Minute

// Scheduler claims due jobs on a fixed interval and runs them through the
// executor with bounded concurrency.
type Scheduler struct {
	cfg          config.Scheduler
	db           db.DbQueue
	executor     executor.JobExecutor
	logger       *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownDone chan struct{}
}

// NewScheduler creates a new scheduler with executor
func NewScheduler(cfg config.Scheduler, dbq db.DbQueue, exec executor.JobExecutor, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:          cfg,
		db:           dbq,
		executor:     exec,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		shutdownDone: make(chan struct{}),
	}
}

// Start begins the job scheduler operation by creating a long running
// goroutine that claims and processes backend jobs on every tick.
func (s *Scheduler) Start() {
	go func() {
		s.logger.Info("starting job scheduler", "interval", s.cfg.Interval.Duration)
		ticker := time.NewTicker(s.cfg.Interval.Duration)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("job scheduler received shutdown signal")
				close(s.shutdownDone)
				return
			case <-ticker.C:
				s.processJobs()
			}
		}
	}()
}

// Stop signals the scheduler to stop and waits for all jobs to complete
// or the context to be canceled, whichever comes first
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping job scheduler")
	s.cancel()

	select {
	case <-s.shutdownDone:
		s.logger.Info("job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Info("job scheduler shutdown timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) processJobs() {
	jobs, err := s.db.Claim(s.cfg.MaxJobsPerTick)
	if err != nil {
		s.logger.Error("failed to claim jobs", "err", err)
		return
	}
	if len(jobs) == 0 {
		return
	}
	s.logger.Info("claimed jobs", "count", len(jobs))

	// The scheduler's context is the parent so running jobs receive the
	// shutdown signal.
	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(runtime.NumCPU() * s.cfg.ConcurrencyMultiplier)

	for _, job := range jobs {
		jobCopy := job
		g.Go(func() error {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()

			err := s.executeJob(jobCtx, *jobCopy)
			s.finishJob(jobCopy, err)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("job batch interrupted due to scheduler shutdown")
		} else {
			s.logger.Error("error executing batch jobs", "err", err)
		}
	}
}

func (s *Scheduler) executeJob(ctx context.Context, job db.Job) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.Info("starting job execution",
		"job_id", job.ID,
		"job_type", job.JobType,
		"attempt", job.Attempts)

	return s.executor.Execute(ctx, job)
}

// finishJob records the job outcome. Successful recurrent jobs queue their
// next run inside the same transaction that completes the current one.
func (s *Scheduler) finishJob(job *db.Job, err error) {
	switch {
	case err == nil && job.Recurrent:
		next := db.Job{
			JobType:      job.JobType,
			Payload:      job.Payload,
			MaxAttempts:  job.MaxAttempts,
			Recurrent:    true,
			Interval:     job.Interval,
			ScheduledFor: time.Now().Add(job.Interval),
		}
		if updateErr := s.db.MarkRecurrentCompleted(job.ID, next); updateErr != nil {
			s.logger.Error("failed to reschedule recurrent job", "job_id", job.ID, "err", updateErr)
		}
	case err == nil:
		if updateErr := s.db.MarkCompleted(job.ID); updateErr != nil {
			s.logger.Error("failed to mark job as completed", "job_id", job.ID, "err", updateErr)
		}
	case errors.Is(err, context.DeadlineExceeded):
		if updateErr := s.db.MarkFailed(job.ID, "job timeout reached: "+err.Error()); updateErr != nil {
			s.logger.Error("failed to mark job as timed out", "job_id", job.ID, "err", updateErr)
		}
	case errors.Is(err, context.Canceled):
		if updateErr := s.db.MarkFailed(job.ID, "scheduler shutting down: "+err.Error()); updateErr != nil {
			s.logger.Error("failed to mark job as interrupted", "job_id", job.ID, "err", updateErr)
		}
		s.logger.Info("job interrupted", "job_id", job.ID)
	default:
		if updateErr := s.db.MarkFailed(job.ID, err.Error()); updateErr != nil {
			s.logger.Error("failed to mark job as failed", "job_id", job.ID, "err", updateErr)
		}
	}
}
