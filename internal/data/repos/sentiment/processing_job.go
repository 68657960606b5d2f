package sentiment

import (
	"time"

	"gorm.io/gorm"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type ProcessingJobRepo interface {
	Create(dbc dbctx.Context, row *types.ProcessingJob) (*types.ProcessingJob, error)
	List(dbc dbctx.Context, limit int) ([]*types.ProcessingJob, error)
}

type processingJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingJobRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingJobRepo {
	return &processingJobRepo{
		db:  db,
		log: baseLog.With("repo", "ProcessingJobRepo"),
	}
}

func (r *processingJobRepo) Create(dbc dbctx.Context, row *types.ProcessingJob) (*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ProcessedAt.IsZero() {
		row.ProcessedAt = time.Now().UTC()
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *processingJobRepo) List(dbc dbctx.Context, limit int) ([]*types.ProcessingJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ProcessingJob
	if err := transaction.WithContext(dbc.Ctx).Order("processed_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
