package app

import (
	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http"
	httpH "github.com/simpliearn/simpliearn-backend/internal/http/handlers"
	"github.com/simpliearn/simpliearn-backend/internal/observability"
	"github.com/simpliearn/simpliearn-backend/internal/platform/envutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Dashboard *httpH.DashboardHandler
	Library   *httpH.LibraryHandler
	Chat      *httpH.ChatHandler
	Sentiment *httpH.SentimentHandler
	Summary   *httpH.SummaryHandler
	Market    *httpH.MarketHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:    httpH.NewHealthHandler(),
		Dashboard: httpH.NewDashboardHandler(log, services.Dashboards),
		Library:   httpH.NewLibraryHandler(services.Library),
		Chat:      httpH.NewChatHandler(services.Chat),
		Sentiment: httpH.NewSentimentHandler(services.Sentiment),
		Summary:   httpH.NewSummaryHandler(services.Summary),
	}
	if services.Market != nil {
		h.Market = httpH.NewMarketHandler(services.Market)
	}
	return h
}

func wireRouter(log *logger.Logger, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		Tracing:          envutil.Bool("OTEL_ENABLED", false),
		ServiceName:      envutil.String("OTEL_SERVICE_NAME", "simpliearn-api"),
		HealthHandler:    handlers.Health,
		DashboardHandler: handlers.Dashboard,
		LibraryHandler:   handlers.Library,
		ChatHandler:      handlers.Chat,
		SentimentHandler: handlers.Sentiment,
		SummaryHandler:   handlers.Summary,
		MarketHandler:    handlers.Market,
	})
}
