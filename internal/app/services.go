package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/jobs/pipeline/analyze"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/pipeline/create_dashboard"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/jobs/worker"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
	"github.com/simpliearn/simpliearn-backend/internal/services"
)

type Services struct {
	Jobs       services.JobService
	Dashboards services.DashboardService
	Library    services.LibraryService
	Sentiment  services.SentimentService
	Chat       services.ChatService
	Summary    services.SummaryService
	// Market is nil when no market data source is configured.
	Market services.MarketService

	Registry  *runtime.Registry
	JobWorker *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")
	s := Services{}
	s.Jobs = services.NewJobService(db, log, r.Jobs, c.Bus)
	s.Dashboards = services.NewDashboardService(log, s.Jobs)
	s.Sentiment = services.NewSentimentService(log, c.Bucket, r.Records, r.Processing, s.Jobs)
	s.Chat = services.NewChatService(log, c.LLM, r.Records, r.Turns, c.Bucket)
	s.Summary = services.NewSummaryService(log, c.LLM, r.Records, c.Bucket)
	s.Library = services.NewLibraryService(db, log, r.Records, r.Turns, c.Bucket, s.Chat)
	if c.Candles != nil {
		market, err := services.NewMarketService(log, c.Candles)
		if err != nil {
			return Services{}, fmt.Errorf("init market service: %w", err)
		}
		s.Market = market
	}

	reg, err := wireRegistry(log, r, c)
	if err != nil {
		return Services{}, err
	}
	s.Registry = reg
	s.JobWorker = worker.NewWorker(log, r.Jobs, reg, c.Bus, cfg.Worker)
	return s, nil
}

// wireRegistry registers one handler per job type. The ingestion pipeline is only registered
// when the media and speech clients exist.
func wireRegistry(log *logger.Logger, r Repos, c Clients) (*runtime.Registry, error) {
	reg := runtime.NewRegistry()
	scorer := sentiment.NewScorer(log, c.Inference)

	if c.Media != nil && c.Speech != nil {
		if err := reg.Register(create_dashboard.New(log, create_dashboard.Deps{
			Records:  r.Records,
			Bucket:   c.Bucket,
			Media:    c.Media,
			Metadata: c.Metadata,
			Speech:   c.Speech,
			Scorer:   scorer,
			Tickers:  c.Tickers,
		})); err != nil {
			return nil, err
		}
	}
	for _, m := range []sentiment.Metric{sentiment.Relevance, sentiment.Specificity} {
		if err := reg.Register(analyze.New(log, m, analyze.Deps{
			Bucket:     c.Bucket,
			Scorer:     scorer,
			Processing: r.Processing,
		})); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
