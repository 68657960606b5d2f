package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
)

// EnqueueRequest describes a job to create. Fields other than JobType are optional.
type EnqueueRequest struct {
	JobType      string
	DedupKey     string
	VideoID      string
	AnalysisType string
	InputFile    string
	OutputFile   string
	Payload      map[string]any
}

// JobService is the queue surface: Enqueue hands work to the worker pool, Status reads it back.
type JobService interface {
	Enqueue(dbc dbctx.Context, req EnqueueRequest) (job *types.JobRun, existed bool, err error)
	Status(dbc dbctx.Context, jobID string) (*types.JobRun, error)
	List(dbc dbctx.Context, jobTypes []string, limit int) ([]*types.JobRun, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.JobRunRepo
	bus  redis.JobBus
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, bus redis.JobBus) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		repo: repo,
		bus:  bus,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, req EnqueueRequest) (*types.JobRun, bool, error) {
	if strings.TrimSpace(req.JobType) == "" {
		return nil, false, fmt.Errorf("missing job_type")
	}
	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if td.TraceID != "" {
			if _, ok := payload["trace_id"]; !ok {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, ok := payload["request_id"]; !ok {
				payload["request_id"] = td.RequestID
			}
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode payload: %w", err)
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = s.db
	}
	now := time.Now()
	job := &types.JobRun{
		ID:           uuid.New(),
		JobType:      req.JobType,
		Status:       domainjobs.StatusPending,
		Stage:        domainjobs.StatusPending,
		Message:      "Queued",
		DedupKey:     req.DedupKey,
		VideoID:      req.VideoID,
		AnalysisType: req.AnalysisType,
		InputFile:    req.InputFile,
		OutputFile:   req.OutputFile,
		Payload:      datatypes.JSON(b),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, existed, err := s.repo.CreateDeduped(dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}, job)
	if err != nil {
		return nil, false, fmt.Errorf("create job: %w", err)
	}
	if existed {
		s.log.Info("Job already active", "job_id", created.ID, "job_type", created.JobType, "dedup_key", req.DedupKey)
		return created, true, nil
	}
	s.log.Info("Job enqueued", "job_id", created.ID, "job_type", created.JobType)

	// Inside an open transaction the row is not visible to workers yet; they pick it up on
	// their next poll after commit.
	if !isDBTransaction(dbc.Tx) {
		s.wake(dbc.Ctx, created)
	}
	return created, false, nil
}

func (s *jobService) wake(ctx context.Context, job *types.JobRun) {
	if s.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctxutil.Default(ctx)), 2*time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, redis.JobEvent{
		JobID:   job.ID.String(),
		JobType: job.JobType,
		Status:  job.Status,
		Stage:   job.Stage,
	}); err != nil {
		s.log.Warn("Job wake-up publish failed; worker will poll", "job_id", job.ID, "error", err)
	}
}

type txCommitter interface {
	Commit() error
	Rollback() error
}

// gorm.DB values are cloned freely, so pointer comparison cannot detect a transaction.
func isDBTransaction(db *gorm.DB) bool {
	if db == nil || db.Statement == nil || db.Statement.ConnPool == nil {
		return false
	}
	_, ok := db.Statement.ConnPool.(txCommitter)
	return ok
}

func (s *jobService) Status(dbc dbctx.Context, jobID string) (*types.JobRun, error) {
	id, err := uuid.Parse(strings.TrimSpace(jobID))
	if err != nil {
		return nil, apierr.New(http.StatusNotFound, "job_not_found", fmt.Errorf("job %s not found", jobID))
	}
	job, err := s.repo.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("job_not_found", "job %s not found", jobID)
	}
	return job, nil
}

func (s *jobService) List(dbc dbctx.Context, jobTypes []string, limit int) ([]*types.JobRun, error) {
	return s.repo.List(dbc, jobTypes, limit)
}
