package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/app"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

func bootstrap(role string) (context.Context, context.CancelFunc, *logger.Logger, app.Config, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, nil, nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, nil, nil, app.Config{}, err
	}
	if role != "" {
		cfg.Role = role
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, stop, log, cfg, nil
}

// jobStatuser is the part of services.JobService the CLI polls.
type jobStatuser interface {
	Status(dbc dbctx.Context, jobID string) (*types.JobRun, error)
}

// waitForJob polls until the job reaches a terminal state or ctx ends.
func waitForJob(ctx context.Context, jobs jobStatuser, jobID string, every time.Duration) (*types.JobRun, error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		job, err := jobs.Status(dbctx.Context{Ctx: ctx}, jobID)
		if err != nil {
			return nil, err
		}
		if domainjobs.IsTerminal(job.Status) {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-t.C:
		}
	}
}

// finish prints the job outcome and turns a failed job into an error for the exit code.
func finish(job *types.JobRun, result any) error {
	if job.Status != domainjobs.StatusCompleted {
		return fmt.Errorf("job %s %s at stage %s: %s", job.ID, job.Status, job.Stage, job.Error)
	}
	if len(job.Result) > 0 && result != nil {
		if err := json.Unmarshal(job.Result, result); err != nil {
			return fmt.Errorf("decode job result: %w", err)
		}
	}
	return nil
}
