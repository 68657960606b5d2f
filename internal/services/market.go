package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/finnhub"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
	"github.com/simpliearn/simpliearn-backend/internal/ticker"
)

const MarketTZ = "America/New_York"

var IndicatorSymbols = map[string]string{
	"VIX": "^VIX",
	"TNX": "^TNX",
	"DXY": "DX-Y.NYB",
}

var defaultIndicators = []string{"VIX", "TNX", "DXY"}

var intervalResolutions = map[string]string{
	"1m":  "1",
	"5m":  "5",
	"15m": "15",
	"30m": "30",
	"60m": "60",
	"1h":  "60",
	"1d":  "D",
}

// Coarser resolutions tried, in order, when the requested one has no data for the window.
var fallbackResolutions = []string{"60", "15", "30", "D"}

type MarketQuery struct {
	Start      string
	Hours      int
	Interval   string
	Indicators []string
}

type SeriesData struct {
	Timestamps []string  `json:"timestamps"`
	Values     []float64 `json:"values"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Mean       *float64  `json:"mean,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type MarketMeta struct {
	StartLocal string   `json:"start_local"`
	Hours      int      `json:"hours"`
	Interval   string   `json:"interval"`
	TZ         string   `json:"tz"`
	Indicators []string `json:"indicators,omitempty"`
	Ticker     string   `json:"ticker,omitempty"`
}

type MarketResult struct {
	OK    bool                  `json:"ok"`
	Error string                `json:"error,omitempty"`
	Data  map[string]SeriesData `json:"data"`
	Meta  MarketMeta            `json:"meta"`
}

type MarketService interface {
	Indicators(ctx context.Context, q MarketQuery) (*MarketResult, error)
	Stock(ctx context.Context, symbol string, q MarketQuery) (*MarketResult, error)
}

type marketService struct {
	log     *logger.Logger
	candles finnhub.CandleSource
	loc     *time.Location
}

func NewMarketService(baseLog *logger.Logger, candles finnhub.CandleSource) (MarketService, error) {
	loc, err := time.LoadLocation(MarketTZ)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", MarketTZ, err)
	}
	return &marketService{
		log:     baseLog.With("service", "MarketService"),
		candles: candles,
		loc:     loc,
	}, nil
}

type marketWindow struct {
	start, end time.Time
	resolution string
	meta       MarketMeta
}

func (s *marketService) window(q MarketQuery) (*marketWindow, error) {
	raw := strings.TrimSpace(q.Start)
	if raw == "" {
		return nil, apierr.BadRequest("missing_start", "start is required")
	}
	start, err := parseLocalStart(raw, s.loc)
	if err != nil {
		return nil, apierr.BadRequest("invalid_start", "start must be RFC3339 or YYYY-MM-DD HH:MM, got %q", raw)
	}
	hours := q.Hours
	if hours == 0 {
		hours = 48
	}
	if hours < 1 || hours > 24*31 {
		return nil, apierr.BadRequest("invalid_hours", "hours must be between 1 and %d", 24*31)
	}
	interval := strings.ToLower(strings.TrimSpace(q.Interval))
	if interval == "" {
		interval = "5m"
	}
	res, ok := intervalResolutions[interval]
	if !ok {
		return nil, apierr.BadRequest("invalid_interval", "unsupported interval %q", q.Interval)
	}
	return &marketWindow{
		start:      start,
		end:        start.Add(time.Duration(hours) * time.Hour),
		resolution: res,
		meta:       MarketMeta{StartLocal: raw, Hours: hours, Interval: interval, TZ: MarketTZ},
	}, nil
}

func parseLocalStart(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	var lastErr error
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (s *marketService) Indicators(ctx context.Context, q MarketQuery) (*MarketResult, error) {
	names := []string{}
	seen := map[string]bool{}
	req := q.Indicators
	if len(req) == 0 {
		req = defaultIndicators
	}
	for _, n := range req {
		n = strings.ToUpper(strings.TrimSpace(n))
		if _, ok := IndicatorSymbols[n]; ok && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, apierr.BadRequest("invalid_indicators", "no valid indicators (allowed: VIX, TNX, DXY)")
	}
	w, err := s.window(q)
	if err != nil {
		return nil, err
	}
	w.meta.Indicators = names
	symbols := make(map[string]string, len(names))
	for _, n := range names {
		symbols[n] = IndicatorSymbols[n]
	}
	return s.fetch(ctx, w, symbols, "No data available for any indicators. The date might be too far in the future or past, or the market was closed."), nil
}

func (s *marketService) Stock(ctx context.Context, symbol string, q MarketQuery) (*MarketResult, error) {
	sym := ticker.Normalize(symbol)
	if sym == "" {
		return nil, apierr.BadRequest("missing_ticker", "ticker is required")
	}
	w, err := s.window(q)
	if err != nil {
		return nil, err
	}
	w.meta.Ticker = sym
	return s.fetch(ctx, w, map[string]string{sym: sym}, "No data available for "+sym+". The date might be too far in the future or past, or the market was closed."), nil
}

func (s *marketService) fetch(ctx context.Context, w *marketWindow, symbols map[string]string, emptyMsg string) *MarketResult {
	out := &MarketResult{Data: make(map[string]SeriesData, len(symbols)), Meta: w.meta}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for name, sym := range symbols {
		g.Go(func() error {
			sd := s.series(gctx, name, sym, w)
			mu.Lock()
			out.Data[name] = sd
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, sd := range out.Data {
		if len(sd.Values) > 0 {
			out.OK = true
			break
		}
	}
	if !out.OK {
		out.Error = emptyMsg
	}
	return out
}

func (s *marketService) series(ctx context.Context, name, symbol string, w *marketWindow) SeriesData {
	tries := []string{w.resolution}
	for _, r := range fallbackResolutions {
		if r != w.resolution {
			tries = append(tries, r)
		}
	}
	for _, res := range tries {
		ser, err := s.candles.Candles(ctx, symbol, res, w.start, w.end)
		if err != nil {
			s.log.Warn("Candle fetch failed", "symbol", symbol, "resolution", res, "error", err)
			return SeriesData{Timestamps: []string{}, Values: []float64{}, Error: fmt.Sprintf("No data available for %s: %v", name, err)}
		}
		if sd, ok := clipSeries(ser, w.start, w.end, s.loc); ok {
			return sd
		}
	}
	return SeriesData{
		Timestamps: []string{},
		Values:     []float64{},
		Error:      fmt.Sprintf("No data available for %s. Date might be too far in future/past or market was closed.", name),
	}
}

// clipSeries keeps points inside [start, end], renders timestamps in loc and computes summary
// statistics. It reports false when nothing remains.
func clipSeries(ser finnhub.Series, start, end time.Time, loc *time.Location) (SeriesData, bool) {
	sd := SeriesData{Timestamps: []string{}, Values: []float64{}}
	var sum float64
	for i, ts := range ser.Timestamps {
		if i >= len(ser.Values) || ts.Before(start) || ts.After(end) {
			continue
		}
		v := ser.Values[i]
		sd.Timestamps = append(sd.Timestamps, ts.In(loc).Format(time.RFC3339))
		sd.Values = append(sd.Values, v)
		if sd.Min == nil || v < *sd.Min {
			mn := v
			sd.Min = &mn
		}
		if sd.Max == nil || v > *sd.Max {
			mx := v
			sd.Max = &mx
		}
		sum += v
	}
	if len(sd.Values) == 0 {
		return sd, false
	}
	mean := sum / float64(len(sd.Values))
	sd.Mean = &mean
	return sd, true
}
