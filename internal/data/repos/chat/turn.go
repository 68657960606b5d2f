package chat

import (
	"strings"

	"gorm.io/gorm"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type TurnRepo interface {
	Create(dbc dbctx.Context, turn *types.ChatTurn) (*types.ChatTurn, error)
	// Recent returns the last n turns for a video, oldest first.
	Recent(dbc dbctx.Context, videoIdentifier string, n int) ([]*types.ChatTurn, error)
	DeleteByVideoIdentifier(dbc dbctx.Context, videoIdentifier string) error
}

type turnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTurnRepo(db *gorm.DB, baseLog *logger.Logger) TurnRepo {
	return &turnRepo{
		db:  db,
		log: baseLog.With("repo", "ChatTurnRepo"),
	}
}

func (r *turnRepo) Create(dbc dbctx.Context, turn *types.ChatTurn) (*types.ChatTurn, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(dbc.Ctx).Create(turn).Error; err != nil {
		return nil, err
	}
	return turn, nil
}

func (r *turnRepo) Recent(dbc dbctx.Context, videoIdentifier string, n int) ([]*types.ChatTurn, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	videoIdentifier = strings.TrimSpace(videoIdentifier)
	if videoIdentifier == "" || n <= 0 {
		return []*types.ChatTurn{}, nil
	}
	var out []*types.ChatTurn
	err := transaction.WithContext(dbc.Ctx).
		Where("video_identifier = ?", videoIdentifier).
		Order("created_at DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *turnRepo) DeleteByVideoIdentifier(dbc dbctx.Context, videoIdentifier string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	videoIdentifier = strings.TrimSpace(videoIdentifier)
	if videoIdentifier == "" {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("video_identifier = ?", videoIdentifier).
		Delete(&types.ChatTurn{}).Error
}
