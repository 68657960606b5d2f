package finnhub

import (
	"context"
	"fmt"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

// Series is one candle close series, oldest first.
type Series struct {
	Timestamps []time.Time
	Values     []float64
}

type CandleSource interface {
	Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (Series, error)
}

type Client struct {
	log    *logger.Logger
	client *finnhub.DefaultApiService
}

func NewClient(log *logger.Logger, apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing FINNHUB_API_KEY")
	}
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	return &Client{
		log:    log.With("service", "FinnhubClient"),
		client: finnhub.NewAPIClient(cfg).DefaultApi,
	}, nil
}

// Candles returns closing prices. A "no_data" answer is an empty series, not an error.
func (c *Client) Candles(ctx context.Context, symbol, resolution string, from, to time.Time) (Series, error) {
	res, _, err := c.client.StockCandles(ctx).
		Symbol(symbol).
		Resolution(resolution).
		From(from.Unix()).
		To(to.Unix()).
		Execute()
	if err != nil {
		return Series{}, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}
	if res.GetS() != "ok" {
		c.log.Debug("No candle data", "symbol", symbol, "status", res.GetS())
		return Series{}, nil
	}
	return toSeries(res.GetT(), res.GetC()), nil
}

func toSeries(ts []int64, closes []float32) Series {
	n := min(len(ts), len(closes))
	out := Series{Timestamps: make([]time.Time, 0, n), Values: make([]float64, 0, n)}
	for i := 0; i < n; i++ {
		out.Timestamps = append(out.Timestamps, time.Unix(ts[i], 0).UTC())
		out.Values = append(out.Values, float64(closes[i]))
	}
	return out
}
