package dashboard

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type RecordRepo interface {
	Upsert(dbc dbctx.Context, rec *types.DashboardRecord) (*types.DashboardRecord, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DashboardRecord, error)
	GetByVideoIdentifier(dbc dbctx.Context, videoIdentifier string) (*types.DashboardRecord, error)
	List(dbc dbctx.Context) ([]*types.DashboardRecord, error)
	DeleteByVideoIdentifier(dbc dbctx.Context, videoIdentifier string) (bool, error)
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{
		db:  db,
		log: baseLog.With("repo", "DashboardRecordRepo"),
	}
}

// Upsert writes rec keyed on video_identifier. Re-processing a video replaces the artifact
// filenames and metadata but keeps the original id and created_at.
func (r *recordRepo) Upsert(dbc dbctx.Context, rec *types.DashboardRecord) (*types.DashboardRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	rec.VideoIdentifier = strings.TrimSpace(rec.VideoIdentifier)
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "video_identifier"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"transcript_filename",
				"relevance_filename",
				"specificity_filename",
				"metadata",
				"updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return nil, err
	}
	// On conflict the returned id is the freshly generated one, not the stored row's.
	return r.GetByVideoIdentifier(dbc, rec.VideoIdentifier)
}

func (r *recordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.DashboardRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var rec types.DashboardRecord
	if err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&rec).Error; err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *recordRepo) GetByVideoIdentifier(dbc dbctx.Context, videoIdentifier string) (*types.DashboardRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	videoIdentifier = strings.TrimSpace(videoIdentifier)
	if videoIdentifier == "" {
		return nil, nil
	}
	var rec types.DashboardRecord
	if err := transaction.WithContext(dbc.Ctx).Where("video_identifier = ?", videoIdentifier).Limit(1).Find(&rec).Error; err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, nil
	}
	return &rec, nil
}

func (r *recordRepo) List(dbc dbctx.Context) ([]*types.DashboardRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DashboardRecord
	if err := transaction.WithContext(dbc.Ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recordRepo) DeleteByVideoIdentifier(dbc dbctx.Context, videoIdentifier string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	videoIdentifier = strings.TrimSpace(videoIdentifier)
	if videoIdentifier == "" {
		return false, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("video_identifier = ?", videoIdentifier).
		Delete(&types.DashboardRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
