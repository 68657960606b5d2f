package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/simpliearn/simpliearn-backend/internal/platform/finnhub"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/inference"
	"github.com/simpliearn/simpliearn-backend/internal/platform/llm"
	"github.com/simpliearn/simpliearn-backend/internal/platform/localmedia"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
	"github.com/simpliearn/simpliearn-backend/internal/platform/youtube"
	"github.com/simpliearn/simpliearn-backend/internal/ticker"
)

// Clients are the upstream integrations. Optional ones stay nil when their credentials are
// absent; the features built on them are then left unwired.
type Clients struct {
	Bus       redis.JobBus
	Bucket    gcp.BucketService
	Speech    gcp.Speech
	Media     localmedia.Tools
	Metadata  youtube.MetadataClient
	Inference inference.Client
	LLM       llm.Client
	Candles   finnhub.CandleSource
	Tickers   *ticker.Resolver
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		bus, err := redis.NewRedisBus(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis job bus: %w", err)
		}
		c.Bus = bus
	} else {
		c.Bus = redis.NewLocalBus()
	}

	// Gcs
	bucket, err := gcp.NewBucketServiceWithConfig(log, cfg.Storage)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}
	c.Bucket = bucket

	tickers, err := ticker.NewResolver()
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("load ticker table: %w", err)
	}
	c.Tickers = tickers

	c.Inference = inference.NewClient(log, cfg.Inference)

	if cfg.RunsWorker() {
		c.Media = localmedia.New(log)
		if err := c.Media.AssertReady(ctx); err != nil {
			log.Warn("Media tools not ready; ingestion jobs will fail", "error", err)
		}
		meta, err := youtube.NewMetadataClient(ctx, log, cfg.YouTubeAPIKey, c.Media)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init youtube metadata client: %w", err)
		}
		c.Metadata = meta

		// Gcp
		speech, err := gcp.NewSpeech(log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init speech client: %w", err)
		}
		c.Speech = speech
	}

	if cfg.RunsAPI() {
		client, err := llm.NewClient(log, cfg.LLM)
		if err != nil {
			log.Warn("LLM client disabled; chat and summary will return errors", "error", err)
		} else {
			c.LLM = client
		}
		candles, err := finnhub.NewClient(log, cfg.FinnhubAPIKey)
		if err != nil {
			log.Warn("Market data disabled", "error", err)
		} else {
			c.Candles = candles
		}
	}
	return c, nil
}

func (c Clients) Close() {
	if c.Speech != nil {
		_ = c.Speech.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
