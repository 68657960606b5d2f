package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/observability"
	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
)

/*
Context is the execution handle for one claimed job run. Pipelines never touch job_run
directly: progress and the terminal transition go through Progress/Stage/Fail/Succeed, which
persist the row, keep the in-memory copy in sync and publish a bus event.

Tx is optional. When set (tests, CLI dry runs) every write for the job goes through it.
*/
type Context struct {
	Ctx  context.Context
	Tx   *gorm.DB
	Job  *types.JobRun
	Repo repos.JobRunRepo
	Bus  redis.JobBus
	Log  *logger.Logger

	payload  map[string]any
	finished bool
}

func NewContext(ctx context.Context, tx *gorm.DB, job *types.JobRun, repo repos.JobRunRepo, bus redis.JobBus, log *logger.Logger) *Context {
	if log == nil {
		log = logger.Nop()
	}
	c := &Context{
		Ctx:  ctxutil.Default(ctx),
		Tx:   tx,
		Job:  job,
		Repo: repo,
		Bus:  bus,
		Log:  log,
	}
	if job != nil {
		c.Log = log.With("job_id", job.ID, "job_type", job.JobType)
	}
	_ = c.decodePayload()
	c.applyTraceData()
	return c
}

func (c *Context) DBC() dbctx.Context {
	return dbctx.Context{Ctx: c.Ctx, Tx: c.Tx}
}

// ErrJobTimedOut is the error text recorded for jobs that outlive JOB_TIMEOUT_MINUTES.
var ErrJobTimedOut = errors.New("job timed out")

// writeDBC outlives the job context so a timed-out job can still record its failure.
func (c *Context) writeDBC() (dbctx.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Ctx), 15*time.Second)
	return dbctx.Context{Ctx: ctx, Tx: c.Tx}, cancel
}

// CleanupDBC is for compensating writes (deleting partial artifacts) after a stage failed. It
// keeps the job's values but not its deadline, so cleanup still runs once the job timed out.
func (c *Context) CleanupDBC() (dbctx.Context, context.CancelFunc) {
	return c.writeDBC()
}

func (c *Context) decodePayload() error {
	c.payload = map[string]any{}
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		return err
	}
	c.payload = m
	return nil
}

func (c *Context) applyTraceData() {
	payload := c.Payload()
	traceID, _ := payload["trace_id"].(string)
	reqID, _ := payload["request_id"].(string)
	if strings.TrimSpace(traceID) == "" && strings.TrimSpace(reqID) == "" {
		return
	}
	c.Ctx = ctxutil.WithTraceData(c.Ctx, &ctxutil.TraceData{TraceID: traceID, RequestID: reqID})
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadString(key string) string {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// PayloadInt reads a JSON number, falling back to def when missing or not a number.
func (c *Context) PayloadInt(key string, def int) int {
	switch v := c.Payload()[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func (c *Context) PayloadBool(key string) bool {
	b, _ := c.Payload()[key].(bool)
	return b
}

// DecodePayload unmarshals the raw payload into a typed struct.
func (c *Context) DecodePayload(out any) error {
	if c.Job == nil || len(c.Job.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(c.Job.Payload, out)
}

func (c *Context) Finished() bool { return c.finished }

// Progress records a non-terminal stage. It is ignored once the job is terminal.
func (c *Context) Progress(stage string, pct int, msg string) {
	if c.Job == nil || c.finished {
		return
	}
	now := time.Now()
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		dbc, cancel := c.writeDBC()
		ok, err := c.Repo.UpdateFieldsUnlessStatus(dbc, c.Job.ID,
			[]string{domainjobs.StatusCompleted, domainjobs.StatusFailed},
			map[string]interface{}{
				"stage":        stage,
				"progress":     pct,
				"message":      msg,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		cancel()
		if err != nil {
			c.Log.Warn("Progress update failed", "stage", stage, "error", err)
			return
		}
		if !ok {
			return
		}
	}
	c.Job.Stage = stage
	c.Job.Progress = pct
	c.Job.Message = msg
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
	c.publish()
	c.Log.Info("Job progress", "stage", stage, "progress", pct, "message", msg)
}

// Stage reports progress, runs fn and records its duration. The returned error is fn's.
func (c *Context) Stage(stage string, pct int, msg string, fn func() error) error {
	c.Progress(stage, pct, msg)
	start := time.Now()
	err := fn()
	jobType := ""
	if c.Job != nil {
		jobType = c.Job.JobType
	}
	observability.Current().ObserveStage(jobType, stage, err, time.Since(start))
	return err
}

// Fail moves the job to failed and records the raw error text. Once the job's deadline has
// passed the recorded error is ErrJobTimedOut, whatever the stage returned.
func (c *Context) Fail(stage string, err error) {
	if c.Job == nil || c.finished {
		return
	}
	if errors.Is(c.Ctx.Err(), context.DeadlineExceeded) {
		err = ErrJobTimedOut
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	now := time.Now()
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		dbc, cancel := c.writeDBC()
		ok, terr := c.Repo.Transition(dbc, c.Job.ID, domainjobs.StatusFailed, map[string]interface{}{
			"stage":        stage,
			"message":      "",
			"error":        msg,
			"completed_at": now,
		})
		cancel()
		if terr != nil {
			c.Log.Error("Recording job failure failed", "stage", stage, "error", terr, "job_error", msg)
			return
		}
		if !ok {
			c.finished = true
			return
		}
	}
	c.finished = true
	c.Job.Status = domainjobs.StatusFailed
	c.Job.Stage = stage
	c.Job.Message = ""
	c.Job.Error = msg
	c.Job.CompletedAt = &now
	c.Job.UpdatedAt = now
	c.publish()
	c.observeOutcome()
	c.Log.Warn("Job failed", "stage", stage, "error", msg)
}

// Succeed moves the job to completed with progress 100 and stores result as JSON.
func (c *Context) Succeed(finalStage string, result any) {
	if c.Job == nil || c.finished {
		return
	}
	var res datatypes.JSON
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			c.Fail(finalStage, fmt.Errorf("encode job result: %w", err))
			return
		}
		res = datatypes.JSON(b)
	}
	now := time.Now()
	updates := map[string]interface{}{
		"stage":        finalStage,
		"progress":     100,
		"message":      "",
		"error":        "",
		"result":       res,
		"heartbeat_at": now,
		"completed_at": now,
	}
	if c.Job.OutputFile != "" {
		updates["output_file"] = c.Job.OutputFile
	}
	if c.Repo != nil && c.Job.ID != uuid.Nil {
		dbc, cancel := c.writeDBC()
		ok, err := c.Repo.Transition(dbc, c.Job.ID, domainjobs.StatusCompleted, updates)
		cancel()
		if err != nil {
			c.Log.Error("Recording job success failed", "error", err)
			return
		}
		if !ok {
			c.finished = true
			return
		}
	}
	c.finished = true
	c.Job.Status = domainjobs.StatusCompleted
	c.Job.Stage = finalStage
	c.Job.Progress = 100
	c.Job.Message = ""
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.HeartbeatAt = &now
	c.Job.CompletedAt = &now
	c.Job.UpdatedAt = now
	c.publish()
	c.observeOutcome()
	c.Log.Info("Job completed", "stage", finalStage)
}

func (c *Context) publish() {
	if c.Bus == nil || c.Job == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Ctx), 2*time.Second)
	defer cancel()
	if err := c.Bus.Publish(ctx, redis.JobEvent{
		JobID:    c.Job.ID.String(),
		JobType:  c.Job.JobType,
		Status:   c.Job.Status,
		Stage:    c.Job.Stage,
		Progress: float64(c.Job.Progress),
	}); err != nil {
		c.Log.Debug("Job event publish failed", "error", err)
	}
}

func (c *Context) observeOutcome() {
	var dur time.Duration
	if c.Job.StartedAt != nil {
		dur = time.Since(*c.Job.StartedAt)
	}
	observability.Current().ObserveJob(c.Job.JobType, c.Job.Status, dur)
}
