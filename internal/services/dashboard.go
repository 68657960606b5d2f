package services

import (
	"encoding/json"
	"errors"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/pipeline/create_dashboard"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/youtube"
	"github.com/simpliearn/simpliearn-backend/internal/ticker"
)

type CreateDashboardResult struct {
	Job               *types.JobRun
	VideoID           string
	TickerProvided    bool
	AlreadyProcessing bool
}

type DashboardService interface {
	CreateDashboard(dbc dbctx.Context, youtubeURL, userTicker string) (*CreateDashboardResult, error)
	JobStatus(dbc dbctx.Context, jobID string) (*types.JobRun, error)
	Jobs(dbc dbctx.Context, limit int) ([]*types.JobRun, error)
}

type dashboardService struct {
	log  *logger.Logger
	jobs JobService
}

func NewDashboardService(baseLog *logger.Logger, jobs JobService) DashboardService {
	return &dashboardService{
		log:  baseLog.With("service", "DashboardService"),
		jobs: jobs,
	}
}

func DashboardDedupKey(videoID string) string { return "dashboard:" + videoID }

func (s *dashboardService) CreateDashboard(dbc dbctx.Context, youtubeURL, userTicker string) (*CreateDashboardResult, error) {
	if youtubeURL == "" {
		return nil, apierr.BadRequest("missing_youtube_url", "youtube_url is required")
	}
	videoID, err := youtube.ExtractVideoID(youtubeURL)
	if err != nil {
		code := "invalid_video_url"
		if errors.Is(err, youtube.ErrNotYouTube) {
			code = "invalid_youtube_url"
		}
		return nil, apierr.BadRequest(code, "%s", err.Error())
	}
	sym := ticker.Normalize(userTicker)
	if sym != "" && !ticker.Valid(sym) {
		return nil, apierr.BadRequest("invalid_ticker", "ticker %q must be 1-10 characters of A-Z, 0-9, '.' or '-'", sym)
	}

	job, existed, err := s.jobs.Enqueue(dbc, EnqueueRequest{
		JobType:  domainjobs.TypeCreateDashboard,
		DedupKey: DashboardDedupKey(videoID),
		VideoID:  videoID,
		Payload: map[string]any{
			"youtube_url": youtubeURL,
			"video_id":    videoID,
			"ticker":      sym,
		},
	})
	if err != nil {
		return nil, err
	}
	provided := sym != ""
	if existed {
		var prev create_dashboard.Payload
		if len(job.Payload) > 0 {
			_ = json.Unmarshal(job.Payload, &prev)
		}
		provided = prev.Ticker != ""
	}
	return &CreateDashboardResult{
		Job:               job,
		VideoID:           videoID,
		TickerProvided:    provided,
		AlreadyProcessing: existed,
	}, nil
}

func (s *dashboardService) JobStatus(dbc dbctx.Context, jobID string) (*types.JobRun, error) {
	return s.jobs.Status(dbc, jobID)
}

func (s *dashboardService) Jobs(dbc dbctx.Context, limit int) ([]*types.JobRun, error) {
	return s.jobs.List(dbc, []string{domainjobs.TypeCreateDashboard}, limit)
}
