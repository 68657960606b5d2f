package analyze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
)

type Scorer interface {
	Score(ctx context.Context, m sentiment.Metric, text string, opts sentiment.Options) ([]sentiment.Row, error)
}

type Deps struct {
	Bucket     gcp.BucketService
	Scorer     Scorer
	Processing repos.ProcessingJobRepo
	Now        func() time.Time
}

// Pipeline scores one transcript from the transcripts bucket for a single metric. One instance
// is registered per metric.
type Pipeline struct {
	log    *logger.Logger
	metric sentiment.Metric
	d      Deps
}

func New(baseLog *logger.Logger, metric sentiment.Metric, d Deps) *Pipeline {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Pipeline{
		log:    baseLog.With("job", JobType(metric)),
		metric: metric,
		d:      d,
	}
}

func JobType(m sentiment.Metric) string { return "analyze_" + string(m) }

func (p *Pipeline) Type() string { return JobType(p.metric) }

const (
	MinBatchSize = 1
	MaxBatchSize = 256
	MinMAWindow  = 0
	MaxMAWindow  = 1000
)

type Payload struct {
	InputFile     string `json:"input_file"`
	OutputFile    string `json:"output_file,omitempty"`
	BatchSize     int    `json:"batch_size,omitempty"`
	MAWindow      *int   `json:"ma_window,omitempty"`
	TrackMetadata bool   `json:"track_metadata,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	TraceID       string `json:"trace_id,omitempty"`
}

type Result struct {
	AnalysisType  string `json:"analysis_type"`
	InputFile     string `json:"input_file"`
	OutputFile    string `json:"output_file"`
	Model         string `json:"model"`
	SentenceCount int    `json:"sentence_count"`
}

// Normalize validates the request and fills defaults. Enqueueing runs the same checks, so a
// job only ever sees a normalized payload.
func (in Payload) Normalize(m sentiment.Metric, now time.Time) (Payload, error) {
	in.InputFile = strings.TrimSpace(in.InputFile)
	in.OutputFile = strings.TrimSpace(in.OutputFile)
	if in.InputFile == "" {
		return in, fmt.Errorf("input_file is required")
	}
	if strings.Contains(in.InputFile, "..") || strings.Contains(in.OutputFile, "..") {
		return in, fmt.Errorf("file names must not contain '..'")
	}
	if in.BatchSize == 0 {
		in.BatchSize = sentiment.DefaultBatchSize
	}
	if in.BatchSize < MinBatchSize || in.BatchSize > MaxBatchSize {
		return in, fmt.Errorf("batch_size must be between %d and %d", MinBatchSize, MaxBatchSize)
	}
	if in.MAWindow == nil {
		w := sentiment.DefaultMAWindow
		in.MAWindow = &w
	}
	if *in.MAWindow < MinMAWindow || *in.MAWindow > MaxMAWindow {
		return in, fmt.Errorf("ma_window must be between %d and %d", MinMAWindow, MaxMAWindow)
	}
	if in.OutputFile == "" {
		in.OutputFile = sentiment.DefaultOutputFile(in.InputFile, m, now)
	}
	return in, nil
}
