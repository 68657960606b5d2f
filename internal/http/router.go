package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/simpliearn/simpliearn-backend/internal/http/handlers"
	httpMW "github.com/simpliearn/simpliearn-backend/internal/http/middleware"
	"github.com/simpliearn/simpliearn-backend/internal/observability"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// Tracing wraps every request in an otel server span.
	Tracing     bool
	ServiceName string

	DashboardHandler *httpH.DashboardHandler
	LibraryHandler   *httpH.LibraryHandler
	ChatHandler      *httpH.ChatHandler
	SentimentHandler *httpH.SentimentHandler
	SummaryHandler   *httpH.SummaryHandler
	MarketHandler    *httpH.MarketHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "simpliearn"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Recover(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Dashboard ingestion
	if cfg.DashboardHandler != nil {
		r.POST("/dashboard/create-dashboard", cfg.DashboardHandler.CreateDashboard)
		r.GET("/dashboard/job-status/:job_id", cfg.DashboardHandler.JobStatus)
		r.GET("/dashboard/jobs", cfg.DashboardHandler.ListJobs)
	}

	// Library
	if cfg.LibraryHandler != nil {
		r.GET("/library", cfg.LibraryHandler.List)
		r.DELETE("/library/:video_identifier", cfg.LibraryHandler.Delete)
	}

	if cfg.ChatHandler != nil {
		r.POST("/chat", cfg.ChatHandler.Chat)
	}

	// Sentiment files and standalone analysis
	if cfg.SentimentHandler != nil {
		s := r.Group("/sentiment")
		s.GET("/transcripts", cfg.SentimentHandler.ListTranscripts)
		s.GET("/files", cfg.SentimentHandler.ListFiles)
		s.GET("/files/:filename", cfg.SentimentHandler.Download)
		s.GET("/files/:filename/data", cfg.SentimentHandler.FileData)
		s.DELETE("/files/:filename", cfg.SentimentHandler.DeleteFile)
		s.GET("/processing-jobs", cfg.SentimentHandler.ProcessingJobs)
		s.POST("/get-by-video", cfg.SentimentHandler.ByVideo)

		r.POST("/analyze/:type", cfg.SentimentHandler.Analyze)
		r.GET("/analyze/jobs/:job_id", cfg.SentimentHandler.AnalyzeStatus)
	}

	if cfg.SummaryHandler != nil {
		r.GET("/summary", cfg.SummaryHandler.Get)
		r.POST("/summary", cfg.SummaryHandler.Post)
	}

	// Market data
	if cfg.MarketHandler != nil {
		r.GET("/market/indicators", cfg.MarketHandler.Indicators)
		r.GET("/market/stock/:ticker", cfg.MarketHandler.Stock)
	}

	return r
}
