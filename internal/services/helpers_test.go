package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/domain/dashboard"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/finnhub"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp/gcptest"
	"github.com/simpliearn/simpliearn-backend/internal/platform/llm"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
)

type env struct {
	dbc        dbctx.Context
	jobsRepo   repos.JobRunRepo
	records    repos.DashboardRecordRepo
	turns      repos.ChatTurnRepo
	processing repos.ProcessingJobRepo
	bucket     *gcptest.MemBucket
	bus        *redis.LocalBus
	jobs       JobService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	e := &env{
		dbc:        testutil.DBC(tx),
		jobsRepo:   repos.NewJobRunRepo(db, log),
		records:    repos.NewDashboardRecordRepo(db, log),
		turns:      repos.NewChatTurnRepo(db, log),
		processing: repos.NewProcessingJobRepo(db, log),
		bucket:     gcptest.NewMemBucket(),
		bus:        redis.NewLocalBus(),
	}
	e.jobs = NewJobService(db, log, e.jobsRepo, e.bus)
	return e
}

// seedRecord stores a dashboard row plus its artifacts. Empty content skips that artifact.
func (e *env) seedRecord(t *testing.T, videoID, transcript, relevanceCSV, specificityCSV string) *types.DashboardRecord {
	t.Helper()
	ident := dashboard.Identifier("aapl", videoID, time.Date(2025, 1, 30, 21, 0, 0, 0, time.UTC))
	rec := &types.DashboardRecord{
		VideoIdentifier: videoID,
		Metadata: datatypes.NewJSONType(dashboard.Metadata{
			Title: "Apple Inc. (AAPL) Q1 2025 Earnings Call", Ticker: "AAPL", UploadDate: "2025-01-30",
		}),
	}
	if transcript != "" {
		rec.TranscriptFilename = dashboard.TranscriptFilename(ident)
		e.bucket.Put(gcp.BucketCategoryTranscripts, rec.TranscriptFilename, []byte(transcript))
	}
	if relevanceCSV != "" {
		rec.RelevanceFilename = dashboard.RelevanceFilename(ident)
		e.bucket.Put(gcp.BucketCategorySentiment, rec.RelevanceFilename, []byte(relevanceCSV))
	}
	if specificityCSV != "" {
		rec.SpecificityFilename = dashboard.SpecificityFilename(ident)
		e.bucket.Put(gcp.BucketCategorySentiment, rec.SpecificityFilename, []byte(specificityCSV))
	}
	out, err := e.records.Upsert(e.dbc, rec)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return out
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	if got := apierr.As(err, "internal").Status; got != status {
		t.Fatalf("status: got=%d want=%d (err=%v)", got, status, err)
	}
}

type fakeLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}
func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-1" }

type candleCall struct {
	symbol, resolution string
}

type fakeCandles struct {
	mu    sync.Mutex
	calls []candleCall
	data  func(symbol, resolution string, from, to time.Time) (finnhub.Series, error)
}

func (f *fakeCandles) Candles(_ context.Context, symbol, resolution string, from, to time.Time) (finnhub.Series, error) {
	f.mu.Lock()
	f.calls = append(f.calls, candleCall{symbol, resolution})
	f.mu.Unlock()
	return f.data(symbol, resolution, from, to)
}

const sampleRelevanceCSV = "sentence_index,sentence_text,raw_label,label_id,label_name,score,relevance_0_1,relevance_-1_1,ma_relevance_0_1\n" +
	"0,Revenue grew.,LABEL_2,2,high,0.9,0.967,0.934,\n" +
	"1,Thanks.,LABEL_0,0,low,0.6,0.198,-0.604,\n"

const sampleSpecificityCSV = "sentence_index,sentence_text,raw_label,label_id,label_name,score,specificity_0_1,specificity_-1_1,ma_specificity_0_1\n" +
	"0,Revenue grew.,LABEL_1,1,medium,0.5,0.505,0.01,\n"
