package jobs

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type JobRunRepo interface {
	Create(dbc dbctx.Context, job *types.JobRun) (*types.JobRun, error)
	CreateDeduped(dbc dbctx.Context, job *types.JobRun) (*types.JobRun, bool, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error)
	GetActiveByDedupKey(dbc dbctx.Context, dedupKey string) (*types.JobRun, error)
	List(dbc dbctx.Context, jobTypes []string, limit int) ([]*types.JobRun, error)
	Transition(dbc dbctx.Context, id uuid.UUID, to string, updates map[string]interface{}) (bool, error)
	ClaimNextPending(dbc dbctx.Context) (*types.JobRun, error)
	UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error)
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	FailStaleRunning(dbc dbctx.Context, heartbeatBefore time.Time, reason string) (int64, error)
	DeleteTerminalBefore(dbc dbctx.Context, before time.Time) (int64, error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

type jobRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return &jobRunRepo{
		db:  db,
		log: baseLog.With("repo", "JobRunRepo"),
	}
}

func (r *jobRunRepo) Create(dbc dbctx.Context, job *types.JobRun) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if job == nil {
		return nil, errors.New("nil job")
	}
	if job.Status == "" {
		job.Status = domainjobs.StatusPending
	}
	if job.Stage == "" {
		job.Stage = domainjobs.StatusPending
	}
	if err := transaction.WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// CreateDeduped inserts job unless an active job already holds the same dedup key, in which case
// the existing job is returned with existed=true. The partial unique index settles races between
// concurrent callers: the loser re-reads the winner.
func (r *jobRunRepo) CreateDeduped(dbc dbctx.Context, job *types.JobRun) (*types.JobRun, bool, error) {
	if job == nil {
		return nil, false, errors.New("nil job")
	}
	key := strings.TrimSpace(job.DedupKey)
	if key == "" {
		created, err := r.Create(dbc, job)
		return created, false, err
	}
	if existing, err := r.GetActiveByDedupKey(dbc, key); err != nil {
		return nil, false, err
	} else if existing != nil {
		return existing, true, nil
	}
	created, err := r.Create(dbc, job)
	if err == nil {
		return created, false, nil
	}
	existing, getErr := r.GetActiveByDedupKey(dbc, key)
	if getErr == nil && existing != nil {
		return existing, true, nil
	}
	return nil, false, err
}

func (r *jobRunRepo) Get(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var job types.JobRun
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *jobRunRepo) GetActiveByDedupKey(dbc dbctx.Context, dedupKey string) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if strings.TrimSpace(dedupKey) == "" {
		return nil, nil
	}
	var job types.JobRun
	err := transaction.WithContext(dbc.Ctx).
		Where("dedup_key = ? AND status IN ?", dedupKey, domainjobs.ActiveStatuses).
		Order("created_at DESC").
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *jobRunRepo) List(dbc dbctx.Context, jobTypes []string, limit int) ([]*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.JobRun{})
	if len(jobTypes) > 0 {
		q = q.Where("job_type IN ?", jobTypes)
	}
	var out []*types.JobRun
	if err := q.Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Transition moves a job to status `to` only from a state that may legally precede it. It
// reports false (no error) when the row was missing or already past that point.
func (r *jobRunRepo) Transition(dbc dbctx.Context, id uuid.UUID, to string, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	from := domainjobs.SourcesFor(to)
	if len(from) == 0 {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	now := time.Now()
	updates["status"] = to
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = now
	}
	if domainjobs.IsTerminal(to) {
		if _, ok := updates["completed_at"]; !ok {
			updates["completed_at"] = now
		}
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClaimNextPending picks the oldest pending job and marks it running. Postgres honours
// SKIP LOCKED; on SQLite the single-connection pool serialises claims and the status guard on
// the update keeps two workers from taking the same row.
func (r *jobRunRepo) ClaimNextPending(dbc dbctx.Context) (*types.JobRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	var claimed *types.JobRun
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var job types.JobRun
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", domainjobs.StatusPending).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		res := txx.Model(&types.JobRun{}).
			Where("id = ? AND status = ?", job.ID, domainjobs.StatusPending).
			Updates(map[string]interface{}{
				"status":       domainjobs.StatusRunning,
				"stage":        domainjobs.StatusRunning,
				"started_at":   now,
				"heartbeat_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		job.Status = domainjobs.StatusRunning
		job.Stage = domainjobs.StatusRunning
		job.StartedAt = &now
		job.HeartbeatAt = &now
		job.UpdatedAt = now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *jobRunRepo) UpdateFieldsUnlessStatus(dbc dbctx.Context, id uuid.UUID, disallowedStatuses []string, updates map[string]interface{}) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}

	q := transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ?", id)
	if len(disallowedStatuses) == 1 {
		q = q.Where("status <> ?", disallowedStatuses[0])
	} else if len(disallowedStatuses) > 1 {
		q = q.Where("status NOT IN ?", disallowedStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRunRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("id = ? AND status = ?", id, domainjobs.StatusRunning).
		Updates(map[string]interface{}{
			"heartbeat_at": now,
			"updated_at":   now,
		}).Error
}

func (r *jobRunRepo) FailStaleRunning(dbc dbctx.Context, heartbeatBefore time.Time, reason string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Where("status = ? AND heartbeat_at IS NOT NULL AND heartbeat_at < ?", domainjobs.StatusRunning, heartbeatBefore).
		Updates(map[string]interface{}{
			"status":       domainjobs.StatusFailed,
			"error":        reason,
			"message":      "",
			"completed_at": now,
			"updated_at":   now,
		})
	return res.RowsAffected, res.Error
}

func (r *jobRunRepo) DeleteTerminalBefore(dbc dbctx.Context, before time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("status IN ? AND completed_at IS NOT NULL AND completed_at < ?",
			[]string{domainjobs.StatusCompleted, domainjobs.StatusFailed}, before).
		Delete(&types.JobRun{})
	return res.RowsAffected, res.Error
}

func (r *jobRunRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.JobRun{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}
