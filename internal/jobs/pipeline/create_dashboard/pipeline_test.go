package create_dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	jobrt "github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp/gcptest"
	"github.com/simpliearn/simpliearn-backend/internal/platform/localmedia"
	"github.com/simpliearn/simpliearn-backend/internal/platform/redis"
	"github.com/simpliearn/simpliearn-backend/internal/platform/youtube"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
)

type fakeMedia struct {
	dir string
}

func (m *fakeMedia) AssertReady(context.Context) error { return nil }
func (m *fakeMedia) DumpJSON(context.Context, string) ([]byte, error) {
	return nil, errors.New("unused")
}
func (m *fakeMedia) WorkDir(string) (string, func(), error) { return m.dir, func() {}, nil }
func (m *fakeMedia) DownloadAudio(_ context.Context, url, outDir string) (string, error) {
	p := filepath.Join(outDir, "audio.webm")
	return p, os.WriteFile(p, []byte("webm:"+url), 0o644)
}
func (m *fakeMedia) TranscodeAudio(_ context.Context, in, out string, opts localmedia.AudioOptions) (string, error) {
	if opts.Format != "flac" || opts.Channels != 1 {
		return "", errors.New("unexpected audio options")
	}
	return out, os.WriteFile(out, []byte("flac"), 0o644)
}

type fakeMeta struct{ md youtube.Metadata }

func (f fakeMeta) Resolve(context.Context, string) youtube.Metadata { return f.md }

type fakeSpeech struct {
	text string
	err  error
	uris []string
}

func (f *fakeSpeech) TranscribeGCS(_ context.Context, uri string, _ gcp.SpeechConfig) (*gcp.SpeechResult, error) {
	f.uris = append(f.uris, uri)
	if f.err != nil {
		return nil, f.err
	}
	return &gcp.SpeechResult{Text: f.text, SourceURI: uri}, nil
}
func (f *fakeSpeech) Close() error { return nil }

type fakeScorer struct {
	failOn sentiment.Metric
}

func (f fakeScorer) Score(_ context.Context, m sentiment.Metric, text string, _ sentiment.Options) ([]sentiment.Row, error) {
	if m == f.failOn {
		return nil, errors.New("inference: 503 model loading")
	}
	sents := sentiment.SplitSentences(text)
	rows := make([]sentiment.Row, 0, len(sents))
	for i, s := range sents {
		rows = append(rows, sentiment.Row{SentenceIndex: i, SentenceText: s, RawLabel: "LABEL_2", LabelID: 2, LabelName: "high", Score: 0.9})
	}
	return rows, nil
}

// blockingScorer waits for the job deadline on one metric.
type blockingScorer struct {
	fakeScorer
	blockOn sentiment.Metric
}

func (b blockingScorer) Score(ctx context.Context, m sentiment.Metric, text string, opts sentiment.Options) ([]sentiment.Row, error) {
	if m == b.blockOn {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.fakeScorer.Score(ctx, m, text, opts)
}

// ctxBucket refuses deletes on a finished context, like the GCS client does.
type ctxBucket struct {
	*gcptest.MemBucket
}

func (b ctxBucket) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	if err := dbc.Ctx.Err(); err != nil {
		return err
	}
	return b.MemBucket.DeleteFile(dbc, category, key)
}

type harness struct {
	dbc     dbctx.Context
	jobs    repos.JobRunRepo
	records repos.DashboardRecordRepo
	bucket  *gcptest.MemBucket
	speech  *fakeSpeech
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	return &harness{
		dbc:     testutil.DBC(tx),
		jobs:    repos.NewJobRunRepo(db, log),
		records: repos.NewDashboardRecordRepo(db, log),
		bucket:  gcptest.NewMemBucket(),
		speech:  &fakeSpeech{text: "Revenue grew eight percent. Margins expanded in the quarter."},
	}
}

func (h *harness) pipeline(t *testing.T, title string, scorer Scorer) *Pipeline {
	return New(testutil.Logger(t), Deps{
		Records:  h.records,
		Bucket:   h.bucket,
		Media:    &fakeMedia{dir: t.TempDir()},
		Metadata: fakeMeta{md: youtube.Metadata{Title: title, UploadDate: "2025-01-30", Source: "api"}},
		Speech:   h.speech,
		Scorer:   scorer,
		Now:      func() time.Time { return time.Date(2025, 1, 30, 21, 0, 0, 0, time.UTC) },
	})
}

func (h *harness) run(t *testing.T, p *Pipeline, in Payload) *types.JobRun {
	t.Helper()
	return h.runCtx(t, context.Background(), p, in)
}

func (h *harness) runCtx(t *testing.T, ctx context.Context, p *Pipeline, in Payload) *types.JobRun {
	t.Helper()
	raw, _ := json.Marshal(in)
	job, err := h.jobs.Create(h.dbc, &types.JobRun{JobType: domainjobs.TypeCreateDashboard, VideoID: in.VideoID, Payload: datatypes.JSON(raw)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.jobs.Transition(h.dbc, job.ID, domainjobs.StatusRunning, nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	job.Status = domainjobs.StatusRunning
	jc := jobrt.NewContext(ctx, h.dbc.Tx, job, h.jobs, redis.NewLocalBus(), testutil.Logger(t))
	if err := p.Run(jc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := h.jobs.Get(h.dbc, job.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	return got
}

func TestRunUserTickerWins(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t, "Tesla Q4 2024 Earnings Call", fakeScorer{})
	job := h.run(t, p, Payload{YouTubeURL: "https://youtu.be/dC9yOuhiNrk", VideoID: "dC9yOuhiNrk", Ticker: " aapl "})

	if job.Status != domainjobs.StatusCompleted || job.Progress != 100 {
		t.Fatalf("status: got=%q/%d want=completed/100 (error=%q)", job.Status, job.Progress, job.Error)
	}
	var res Result
	if err := json.Unmarshal(job.Result, &res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Identifier != "aapl_dC9yOuhiNrk_20250130_210000" || !res.TickerProvided || res.SentenceCount != 2 {
		t.Fatalf("result: got=%+v", res)
	}

	rec, err := h.records.GetByVideoIdentifier(h.dbc, "dC9yOuhiNrk")
	if err != nil || rec == nil {
		t.Fatalf("record: got=%v err=%v", rec, err)
	}
	if rec.Meta().Ticker != "AAPL" || rec.Meta().Title != "Tesla Q4 2024 Earnings Call" {
		t.Fatalf("metadata: got=%+v", rec.Meta())
	}
	if rec.TranscriptFilename != "aapl_dC9yOuhiNrk_20250130_210000_transcript.txt" {
		t.Fatalf("transcript filename: got=%q", rec.TranscriptFilename)
	}
	if _, ok := h.bucket.Get(gcp.BucketCategorySentiment, rec.RelevanceFilename); !ok {
		t.Fatalf("relevance csv missing")
	}
	csv, _ := h.bucket.Get(gcp.BucketCategorySentiment, rec.SpecificityFilename)
	if !strings.HasPrefix(string(csv), "sentence_index,sentence_text,raw_label,label_id,label_name,score,specificity_0_1") {
		t.Fatalf("specificity csv header: got=%q", string(csv))
	}
	if len(h.speech.uris) != 1 || !strings.HasPrefix(h.speech.uris[0], "gs://audio/") {
		t.Fatalf("speech uri: got=%v", h.speech.uris)
	}
	if _, ok := h.bucket.Get(gcp.BucketCategoryAudio, "aapl_dC9yOuhiNrk_20250130_210000.flac"); ok {
		t.Fatalf("staged audio not deleted")
	}
}

func TestRunDetectsTickerFromTitle(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t, "Apple Inc. (AAPL) Q1 2025 Earnings Call", fakeScorer{})
	job := h.run(t, p, Payload{VideoID: "dC9yOuhiNrk"})
	if job.Status != domainjobs.StatusCompleted {
		t.Fatalf("status: got=%q error=%q", job.Status, job.Error)
	}
	rec, _ := h.records.GetByVideoIdentifier(h.dbc, "dC9yOuhiNrk")
	if rec == nil || rec.Meta().Ticker != "AAPL" {
		t.Fatalf("ticker: got=%+v", rec)
	}
}

func TestRunScoringFailureLeavesNothingBehind(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t, "Q4 2024 Financial Results Webcast", fakeScorer{failOn: sentiment.Specificity})
	job := h.run(t, p, Payload{VideoID: "dC9yOuhiNrk"})

	if job.Status != domainjobs.StatusFailed || job.Stage != "specificity" {
		t.Fatalf("status: got=%q stage=%q", job.Status, job.Stage)
	}
	if !strings.Contains(job.Error, "inference: 503 model loading") {
		t.Fatalf("error: got=%q", job.Error)
	}
	if n := h.bucket.Len(); n != 0 {
		t.Fatalf("artifacts left: got=%d want=0", n)
	}
	if rec, _ := h.records.GetByVideoIdentifier(h.dbc, "dC9yOuhiNrk"); rec != nil {
		t.Fatalf("record persisted for failed job")
	}
}

func TestRunEmptyTranscriptFails(t *testing.T) {
	h := newHarness(t)
	h.speech.text = "  "
	job := h.run(t, h.pipeline(t, "Walmart earnings", fakeScorer{}), Payload{VideoID: "dC9yOuhiNrk"})
	if job.Status != domainjobs.StatusFailed || job.Stage != "transcribe" || job.Error != "transcription returned no text" {
		t.Fatalf("got status=%q stage=%q error=%q", job.Status, job.Stage, job.Error)
	}
	if n := h.bucket.Len(); n != 0 {
		t.Fatalf("staged audio left: got=%d objects", n)
	}
}

func TestRunReprocessReplacesArtifacts(t *testing.T) {
	h := newHarness(t)
	now := time.Date(2025, 1, 30, 21, 0, 0, 0, time.UTC)
	p := h.pipeline(t, "Microsoft earnings", fakeScorer{})
	p.d.Now = func() time.Time { return now }
	h.run(t, p, Payload{VideoID: "dC9yOuhiNrk"})
	first, _ := h.records.GetByVideoIdentifier(h.dbc, "dC9yOuhiNrk")

	now = now.Add(time.Hour)
	h.run(t, p, Payload{VideoID: "dC9yOuhiNrk"})
	second, _ := h.records.GetByVideoIdentifier(h.dbc, "dC9yOuhiNrk")

	if first == nil || second == nil || first.ID != second.ID {
		t.Fatalf("upsert changed row identity: first=%v second=%v", first, second)
	}
	if _, ok := h.bucket.Get(gcp.BucketCategoryTranscripts, first.TranscriptFilename); ok {
		t.Fatalf("old transcript still stored")
	}
	if _, ok := h.bucket.Get(gcp.BucketCategoryTranscripts, second.TranscriptFilename); !ok {
		t.Fatalf("new transcript missing")
	}
	if n := h.bucket.Len(); n != 3 {
		t.Fatalf("objects: got=%d want=3", n)
	}
}

func TestRunTimeoutCleansUpArtifacts(t *testing.T) {
	h := newHarness(t)
	p := h.pipeline(t, "Shell Q3 2024 results", blockingScorer{blockOn: sentiment.Specificity})
	p.d.Bucket = ctxBucket{MemBucket: h.bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	job := h.runCtx(t, ctx, p, Payload{VideoID: "dC9yOuhiNrk"})

	if job.Status != domainjobs.StatusFailed || job.Stage != "specificity" {
		t.Fatalf("status: got=%q stage=%q", job.Status, job.Stage)
	}
	if job.Error != jobrt.ErrJobTimedOut.Error() {
		t.Fatalf("error: got=%q want=%q", job.Error, jobrt.ErrJobTimedOut.Error())
	}
	if n := h.bucket.Len(); n != 0 {
		t.Fatalf("artifacts left after timeout: got=%d want=0", n)
	}
	if rec, _ := h.records.GetByVideoIdentifier(h.dbc, "dC9yOuhiNrk"); rec != nil {
		t.Fatalf("record persisted for timed-out job")
	}
}
