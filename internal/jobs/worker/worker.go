package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
)

// ErrJobTimedOut is the error text recorded for jobs that outlive JOB_TIMEOUT_MINUTES.
var ErrJobTimedOut = runtime.ErrJobTimedOut

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	JobTimeout   time.Duration
	Retention    time.Duration
	ReapInterval time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		Concurrency:  envutil.Int("WORKER_CONCURRENCY", 2),
		PollInterval: time.Duration(envutil.Int("WORKER_POLL_SECONDS", 3)) * time.Second,
		JobTimeout:   envutil.Minutes("JOB_TIMEOUT_MINUTES", 30*time.Minute),
		Retention:    time.Duration(envutil.Int("JOB_RETENTION_HOURS", 168)) * time.Hour,
		ReapInterval: time.Minute,
	}
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 30 * time.Minute
	}
	if c.Retention <= 0 {
		c.Retention = 168 * time.Hour
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = time.Minute
	}
	return c
}

type Worker struct {
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	bus      redis.JobBus
	cfg      Config
	wake     chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, bus redis.JobBus, cfg Config) *Worker {
	return &Worker{
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		bus:      bus,
		cfg:      cfg.withDefaults(),
		wake:     make(chan struct{}, 1),
	}
}

// Start launches the pool and the reaper. Enqueue events on the bus wake idle workers; the
// poll ticker covers missed events.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("Starting job worker pool",
		"concurrency", w.cfg.Concurrency,
		"job_timeout", w.cfg.JobTimeout.String(),
		"retention", w.cfg.Retention.String(),
		"handlers", w.registry.Types(),
	)
	if w.bus != nil {
		if err := w.bus.Subscribe(ctx, func(ev redis.JobEvent) {
			if ev.Status == domainjobs.StatusPending {
				w.Wake()
			}
		}); err != nil {
			w.log.Warn("Job bus subscribe failed; polling only", "error", err)
		}
	}
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.runLoop(ctx, i+1)
	}
	w.wg.Add(1)
	go w.reapLoop(ctx)
}

// Wait blocks until every loop started by Start has returned.
func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-ticker.C:
		case <-w.wake:
		}
		for ctx.Err() == nil {
			ran, err := w.ProcessNext(dbctx.Context{Ctx: ctx})
			if err != nil {
				w.log.Warn("ClaimNextPending failed", "worker_id", workerID, "error", err)
				break
			}
			if !ran {
				break
			}
		}
	}
}

// ProcessNext claims the oldest pending job and runs it to a terminal state. It reports false
// when the queue was empty.
func (w *Worker) ProcessNext(dbc dbctx.Context) (bool, error) {
	job, err := w.repo.ClaimNextPending(dbc)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	w.RunJob(dbc, job)
	return true, nil
}

// RunJob executes one job synchronously. A pending job is moved to running first, which is how
// the CLI drives its own job row through the same lifecycle.
func (w *Worker) RunJob(dbc dbctx.Context, job *types.JobRun) *types.JobRun {
	if job.Status == domainjobs.StatusPending {
		now := time.Now()
		ok, err := w.repo.Transition(dbc, job.ID, domainjobs.StatusRunning, map[string]interface{}{
			"stage":        domainjobs.StatusRunning,
			"started_at":   now,
			"heartbeat_at": now,
		})
		if err != nil || !ok {
			w.log.Warn("Could not start job", "job_id", job.ID, "error", err)
			return job
		}
		job.Status = domainjobs.StatusRunning
		job.Stage = domainjobs.StatusRunning
		job.StartedAt = &now
	}

	jobCtx, cancel := context.WithTimeout(dbc.Ctx, w.cfg.JobTimeout)
	defer cancel()
	jc := runtime.NewContext(jobCtx, dbc.Tx, job, w.repo, w.bus, w.log)

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc.Fail("dispatch", &missingHandlerError{JobType: job.JobType})
		return job
	}

	// Shared transactions are not safe for concurrent use, so heartbeats only run on the
	// connection pool.
	if dbc.Tx == nil {
		stop := w.startHeartbeat(jobCtx, job)
		defer stop()
	}

	runErr := w.safeRun(h, jc)
	if jc.Finished() {
		return job
	}
	switch {
	case errors.Is(jobCtx.Err(), context.DeadlineExceeded):
		jc.Fail(job.Stage, ErrJobTimedOut)
	case runErr != nil:
		jc.Fail(job.Stage, runErr)
	default:
		jc.Fail(job.Stage, fmt.Errorf("handler for %s returned without finishing the job", job.JobType))
	}
	return job
}

func (w *Worker) safeRun(h runtime.Handler, jc *runtime.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic", "job_id", jc.Job.ID, "job_type", jc.Job.JobType, "panic", r)
			err = &panicError{Val: r}
		}
	}()
	return h.Run(jc)
}

func (w *Worker) startHeartbeat(ctx context.Context, job *types.JobRun) func() {
	hbCtx, cancel := context.WithCancel(ctx)
	interval := w.cfg.JobTimeout / 6
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := w.repo.Heartbeat(dbctx.Context{Ctx: hbCtx}, job.ID); err != nil && hbCtx.Err() == nil {
					w.log.Debug("Heartbeat failed", "job_id", job.ID, "error", err)
				}
			}
		}
	}()
	return cancel
}

func (w *Worker) reapLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Reap(dbctx.Context{Ctx: ctx}, time.Now()); err != nil {
				w.log.Warn("Job reaper failed", "error", err)
			}
		}
	}
}

// Reap fails running jobs whose heartbeat stopped (crashed worker) and hard-deletes terminal
// jobs older than the retention window.
func (w *Worker) Reap(dbc dbctx.Context, now time.Time) error {
	stale, err := w.repo.FailStaleRunning(dbc, now.Add(-w.cfg.JobTimeout), ErrJobTimedOut.Error())
	if err != nil {
		return fmt.Errorf("fail stale jobs: %w", err)
	}
	deleted, err := w.repo.DeleteTerminalBefore(dbc, now.Add(-w.cfg.Retention))
	if err != nil {
		return fmt.Errorf("delete expired jobs: %w", err)
	}
	if stale > 0 || deleted > 0 {
		w.log.Info("Job reaper pass", "timed_out", stale, "deleted", deleted)
	}
	return nil
}

type missingHandlerError struct{ JobType string }

func (e *missingHandlerError) Error() string {
	return "no handler registered for job_type=" + e.JobType
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
