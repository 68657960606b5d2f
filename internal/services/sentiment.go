package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/pipeline/analyze"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
)

const StatusProcessingIncomplete = "processing_incomplete"

type FileData struct {
	Filename string           `json:"filename"`
	Columns  []string         `json:"columns"`
	Data     []map[string]any `json:"data"`
	Count    int              `json:"count"`
}

type MetricData struct {
	Filename string           `json:"filename,omitempty"`
	Data     []map[string]any `json:"data"`
}

type VideoSentiment struct {
	Status          string     `json:"status,omitempty"`
	VideoIdentifier string     `json:"video_identifier"`
	RelevanceData   MetricData `json:"relevance_data"`
	SpecificityData MetricData `json:"specificity_data"`
}

type AnalyzeRequest struct {
	InputFile     string `json:"input_file"`
	OutputFile    string `json:"output_file"`
	BatchSize     int    `json:"batch_size"`
	MAWindow      *int   `json:"ma_window"`
	TrackMetadata bool   `json:"track_metadata"`
}

type SentimentService interface {
	ListTranscripts(ctx context.Context) ([]string, error)
	ListFiles(ctx context.Context) ([]string, error)
	OpenFile(ctx context.Context, filename string) (io.ReadCloser, error)
	FileData(ctx context.Context, filename string) (*FileData, error)
	DeleteFile(dbc dbctx.Context, filename string) error
	ProcessingJobs(dbc dbctx.Context, limit int) ([]*types.ProcessingJob, error)
	ByVideo(dbc dbctx.Context, ref RecordRef) (*VideoSentiment, error)

	Analyze(dbc dbctx.Context, analysisType string, req AnalyzeRequest) (*types.JobRun, error)
	AnalyzeStatus(dbc dbctx.Context, jobID string) (*types.JobRun, error)
}

type sentimentService struct {
	log        *logger.Logger
	bucket     gcp.BucketService
	processing repos.ProcessingJobRepo
	jobs       JobService
	src        transcripts
	now        func() time.Time
}

func NewSentimentService(baseLog *logger.Logger, bucket gcp.BucketService, records repos.DashboardRecordRepo, processing repos.ProcessingJobRepo, jobs JobService) SentimentService {
	return &sentimentService{
		log:        baseLog.With("service", "SentimentService"),
		bucket:     bucket,
		processing: processing,
		jobs:       jobs,
		src:        transcripts{records: records, bucket: bucket},
		now:        time.Now,
	}
}

func (s *sentimentService) ListTranscripts(ctx context.Context) ([]string, error) {
	return s.bucket.ListKeys(ctx, gcp.BucketCategoryTranscripts, "")
}

func (s *sentimentService) ListFiles(ctx context.Context) ([]string, error) {
	keys, err := s.bucket.ListKeys(ctx, gcp.BucketCategorySentiment, "")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasSuffix(strings.ToLower(k), ".csv") {
			out = append(out, k)
		}
	}
	return out, nil
}

func validFilename(filename string) (string, error) {
	f := strings.TrimSpace(filename)
	if f == "" || strings.Contains(f, "..") || strings.HasPrefix(f, "/") {
		return "", apierr.BadRequest("invalid_filename", "invalid filename %q", filename)
	}
	return f, nil
}

func (s *sentimentService) OpenFile(ctx context.Context, filename string) (io.ReadCloser, error) {
	f, err := validFilename(filename)
	if err != nil {
		return nil, err
	}
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategorySentiment, f)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return nil, apierr.NotFound("file_not_found", "file %s not found", f)
	}
	return rc, err
}

func (s *sentimentService) readTable(ctx context.Context, filename string) (*sentiment.Table, error) {
	rc, err := s.OpenFile(ctx, filename)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return sentiment.ReadTable(rc)
}

func (s *sentimentService) FileData(ctx context.Context, filename string) (*FileData, error) {
	t, err := s.readTable(ctx, filename)
	if err != nil {
		return nil, err
	}
	return &FileData{Filename: strings.TrimSpace(filename), Columns: t.Columns, Data: t.Data, Count: len(t.Data)}, nil
}

func (s *sentimentService) DeleteFile(dbc dbctx.Context, filename string) error {
	f, err := validFilename(filename)
	if err != nil {
		return err
	}
	ok, err := s.bucket.Exists(dbc.Ctx, gcp.BucketCategorySentiment, f)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("file_not_found", "file %s not found", f)
	}
	if err := s.bucket.DeleteFile(dbc, gcp.BucketCategorySentiment, f); err != nil {
		return err
	}
	s.log.Info("Sentiment file deleted", "filename", f)
	return nil
}

func (s *sentimentService) ProcessingJobs(dbc dbctx.Context, limit int) ([]*types.ProcessingJob, error) {
	return s.processing.List(dbc, limit)
}

// ByVideo loads both metric tables for a dashboard. A dashboard without sentiment artifacts
// answers processing_incomplete with empty data.
func (s *sentimentService) ByVideo(dbc dbctx.Context, ref RecordRef) (*VideoSentiment, error) {
	rec, err := s.src.record(dbc, ref)
	if err != nil {
		return nil, err
	}
	out := &VideoSentiment{
		VideoIdentifier: rec.VideoIdentifier,
		RelevanceData:   MetricData{Filename: rec.RelevanceFilename, Data: []map[string]any{}},
		SpecificityData: MetricData{Filename: rec.SpecificityFilename, Data: []map[string]any{}},
	}
	if !rec.HasSentiment() {
		out.Status = StatusProcessingIncomplete
		return out, nil
	}

	g, gctx := errgroup.WithContext(dbc.Ctx)
	load := func(m sentiment.Metric, filename string, dst *MetricData) {
		g.Go(func() error {
			t, err := s.readTable(gctx, filename)
			if err != nil {
				return fmt.Errorf("load %s data: %w", m, err)
			}
			t.Smoothed(m)
			dst.Data = t.Data
			return nil
		})
	}
	load(sentiment.Relevance, rec.RelevanceFilename, &out.RelevanceData)
	load(sentiment.Specificity, rec.SpecificityFilename, &out.SpecificityData)
	if err := g.Wait(); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.Status == http.StatusNotFound {
			s.log.Warn("Sentiment artifact missing", "video_identifier", rec.VideoIdentifier, "error", err)
			out.Status = StatusProcessingIncomplete
			out.RelevanceData.Data = []map[string]any{}
			out.SpecificityData.Data = []map[string]any{}
			return out, nil
		}
		return nil, err
	}
	return out, nil
}

func (s *sentimentService) Analyze(dbc dbctx.Context, analysisType string, req AnalyzeRequest) (*types.JobRun, error) {
	m, err := sentiment.ParseMetric(analysisType)
	if err != nil {
		return nil, apierr.BadRequest("invalid_analysis_type", "%s", err.Error())
	}
	in, err := analyze.Payload{
		InputFile:     req.InputFile,
		OutputFile:    req.OutputFile,
		BatchSize:     req.BatchSize,
		MAWindow:      req.MAWindow,
		TrackMetadata: req.TrackMetadata,
	}.Normalize(m, s.now())
	if err != nil {
		return nil, apierr.BadRequest("invalid_analysis_request", "%s", err.Error())
	}
	ok, err := s.bucket.Exists(dbc.Ctx, gcp.BucketCategoryTranscripts, in.InputFile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.NotFound("file_not_found", "input file %s not found", in.InputFile)
	}
	job, _, err := s.jobs.Enqueue(dbc, EnqueueRequest{
		JobType:      analyze.JobType(m),
		AnalysisType: string(m),
		InputFile:    in.InputFile,
		OutputFile:   in.OutputFile,
		Payload: map[string]any{
			"input_file":     in.InputFile,
			"output_file":    in.OutputFile,
			"batch_size":     in.BatchSize,
			"ma_window":      *in.MAWindow,
			"track_metadata": in.TrackMetadata,
		},
	})
	return job, err
}

func (s *sentimentService) AnalyzeStatus(dbc dbctx.Context, jobID string) (*types.JobRun, error) {
	job, err := s.jobs.Status(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job.AnalysisType == "" {
		return nil, apierr.NotFound("job_not_found", "analysis job %s not found", jobID)
	}
	return job, nil
}
