package create_dashboard

import (
	"context"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/localmedia"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/youtube"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
	"github.com/simpliearn/simpliearn-backend/internal/ticker"
)

// Scorer is the part of sentiment.Scorer the pipeline needs.
type Scorer interface {
	Score(ctx context.Context, m sentiment.Metric, text string, opts sentiment.Options) ([]sentiment.Row, error)
}

type Deps struct {
	Records  repos.DashboardRecordRepo
	Bucket   gcp.BucketService
	Media    localmedia.Tools
	Metadata youtube.MetadataClient
	Speech   gcp.Speech
	Scorer   Scorer
	Tickers  *ticker.Resolver

	SpeechConfig gcp.SpeechConfig
	ScoreOptions sentiment.Options
	Now          func() time.Time
}

type Pipeline struct {
	log *logger.Logger
	d   Deps
}

func New(baseLog *logger.Logger, d Deps) *Pipeline {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Tickers == nil {
		d.Tickers = ticker.MustResolver()
	}
	if d.SpeechConfig.LanguageCode == "" {
		d.SpeechConfig = gcp.DefaultSpeechConfig()
	}
	return &Pipeline{
		log: baseLog.With("job", domainjobs.TypeCreateDashboard),
		d:   d,
	}
}

func (p *Pipeline) Type() string { return domainjobs.TypeCreateDashboard }

// Payload is what the enqueueing side stores on the job row.
type Payload struct {
	YouTubeURL string `json:"youtube_url"`
	VideoID    string `json:"video_id"`
	Ticker     string `json:"ticker,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

// Result is stored as the completed job's result.
type Result struct {
	VideoID             string `json:"video_id"`
	Identifier          string `json:"identifier"`
	Ticker              string `json:"ticker"`
	TickerProvided      bool   `json:"ticker_provided"`
	Title               string `json:"title"`
	TranscriptFilename  string `json:"transcript_filename"`
	RelevanceFilename   string `json:"relevance_filename"`
	SpecificityFilename string `json:"specificity_filename"`
	SentenceCount       int    `json:"sentence_count"`
}
