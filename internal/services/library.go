package services

import (
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type LibraryService interface {
	List(dbc dbctx.Context) ([]*types.DashboardRecord, error)
	// Delete removes the dashboard row, its chat history and its stored artifacts.
	Delete(dbc dbctx.Context, videoIdentifier string) error
}

// IndexInvalidator drops cached retrieval state for a video.
type IndexInvalidator interface {
	Invalidate(videoIdentifier string)
}

type libraryService struct {
	db      *gorm.DB
	log     *logger.Logger
	records repos.DashboardRecordRepo
	turns   repos.ChatTurnRepo
	bucket  gcp.BucketService
	indexes IndexInvalidator
}

func NewLibraryService(db *gorm.DB, baseLog *logger.Logger, records repos.DashboardRecordRepo, turns repos.ChatTurnRepo, bucket gcp.BucketService, indexes IndexInvalidator) LibraryService {
	return &libraryService{
		db:      db,
		log:     baseLog.With("service", "LibraryService"),
		records: records,
		turns:   turns,
		bucket:  bucket,
		indexes: indexes,
	}
}

func (s *libraryService) List(dbc dbctx.Context) ([]*types.DashboardRecord, error) {
	return s.records.List(dbc)
}

func (s *libraryService) Delete(dbc dbctx.Context, videoIdentifier string) error {
	videoIdentifier = strings.TrimSpace(videoIdentifier)
	rec, err := s.records.GetByVideoIdentifier(dbc, videoIdentifier)
	if err != nil {
		return err
	}
	if rec == nil {
		return apierr.NotFound("video_not_found", "video %s not found", videoIdentifier)
	}

	if err := s.inTx(dbc, func(tx dbctx.Context) error {
		if err := s.turns.DeleteByVideoIdentifier(tx, videoIdentifier); err != nil {
			return err
		}
		deleted, err := s.records.DeleteByVideoIdentifier(tx, videoIdentifier)
		if err != nil {
			return err
		}
		if !deleted {
			return apierr.NotFound("video_not_found", "video %s not found", videoIdentifier)
		}
		return nil
	}); err != nil {
		return err
	}
	if s.indexes != nil {
		s.indexes.Invalidate(videoIdentifier)
	}

	// Artifact deletion is best effort once the row is gone.
	g, gctx := errgroup.WithContext(dbc.Ctx)
	for _, a := range []struct {
		category gcp.BucketCategory
		key      string
	}{
		{gcp.BucketCategoryTranscripts, rec.TranscriptFilename},
		{gcp.BucketCategorySentiment, rec.RelevanceFilename},
		{gcp.BucketCategorySentiment, rec.SpecificityFilename},
	} {
		if a.key == "" {
			continue
		}
		g.Go(func() error {
			err := s.bucket.DeleteFile(dbctx.Context{Ctx: gctx}, a.category, a.key)
			if err != nil && !errors.Is(err, gcp.ErrObjectNotFound) {
				s.log.Warn("Failed to delete artifact", "video_identifier", videoIdentifier, "key", a.key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	s.log.Info("Dashboard deleted", "video_identifier", videoIdentifier)
	return nil
}

func (s *libraryService) inTx(dbc dbctx.Context, fn func(tx dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}
