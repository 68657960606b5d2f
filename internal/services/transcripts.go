package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/youtube"
)

// RecordRef names a dashboard the way clients do: by row id, by video identifier or by the
// video's URL.
type RecordRef struct {
	ID       string
	VideoURL string
}

// transcripts resolves dashboard references and loads their transcript text. Chat, summary
// and the sentiment API share it.
type transcripts struct {
	records repos.DashboardRecordRepo
	bucket  gcp.BucketService
}

func (t transcripts) record(dbc dbctx.Context, ref RecordRef) (*types.DashboardRecord, error) {
	id := strings.TrimSpace(ref.ID)
	videoURL := strings.TrimSpace(ref.VideoURL)
	if id == "" && videoURL == "" {
		return nil, apierr.BadRequest("missing_source", "provide id or video_url")
	}
	if id != "" {
		if uid, err := uuid.Parse(id); err == nil {
			rec, err := t.records.GetByID(dbc, uid)
			if err != nil || rec != nil {
				return rec, err
			}
		}
		rec, err := t.records.GetByVideoIdentifier(dbc, id)
		if err != nil {
			return nil, err
		}
		if rec != nil || videoURL == "" {
			if rec == nil {
				return nil, apierr.NotFound("dashboard_not_found", "dashboard %s not found", id)
			}
			return rec, nil
		}
	}
	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return nil, apierr.BadRequest("invalid_video_url", "%s", err.Error())
	}
	rec, err := t.records.GetByVideoIdentifier(dbc, videoID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.NotFound("dashboard_not_found", "no dashboard for video %s", videoID)
	}
	return rec, nil
}

func (t transcripts) text(ctx context.Context, rec *types.DashboardRecord) (string, error) {
	if rec == nil || rec.TranscriptFilename == "" {
		return "", apierr.NotFound("transcript_not_found", "no transcript for this dashboard")
	}
	b, err := gcp.ReadAll(ctx, t.bucket, gcp.BucketCategoryTranscripts, rec.TranscriptFilename)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return "", apierr.NotFound("transcript_not_found", "transcript %s not found", rec.TranscriptFilename)
	}
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", apierr.NotFound("transcript_not_found", "transcript %s is empty", rec.TranscriptFilename)
	}
	return text, nil
}
