package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	domainjobs "github.com/simpliearn/simpliearn-backend/internal/domain/jobs"
	jobrt "github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp/gcptest"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
)

var fixedNow = time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

type fakeScorer struct {
	err  error
	opts sentiment.Options
}

func (f *fakeScorer) Score(_ context.Context, _ sentiment.Metric, text string, opts sentiment.Options) ([]sentiment.Row, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	ma := 0.5
	return []sentiment.Row{
		{SentenceIndex: 0, SentenceText: text, RawLabel: "LABEL_1", LabelID: 1, LabelName: "medium", Score: 0.5, Unit: 0.505, Signed: 0.01, MovingAverage: &ma},
	}, nil
}

func intp(v int) *int { return &v }

func TestNormalize(t *testing.T) {
	got, err := Payload{InputFile: " calls/aapl_transcript.txt "}.Normalize(sentiment.Relevance, fixedNow)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.BatchSize != 32 || got.MAWindow == nil || *got.MAWindow != 20 {
		t.Fatalf("defaults: got batch=%d ma=%v", got.BatchSize, got.MAWindow)
	}
	if got.OutputFile != "aapl_transcript_relevance_20250201_093000.csv" {
		t.Fatalf("output file: got=%q", got.OutputFile)
	}

	cases := []struct {
		name string
		in   Payload
	}{
		{"missing input", Payload{}},
		{"batch too large", Payload{InputFile: "a.txt", BatchSize: 257}},
		{"batch negative", Payload{InputFile: "a.txt", BatchSize: -1}},
		{"window too large", Payload{InputFile: "a.txt", MAWindow: intp(1001)}},
		{"window negative", Payload{InputFile: "a.txt", MAWindow: intp(-1)}},
		{"traversal", Payload{InputFile: "../secrets.txt"}},
	}
	for _, tc := range cases {
		if _, err := tc.in.Normalize(sentiment.Specificity, fixedNow); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
	if got, err := (Payload{InputFile: "a.txt", MAWindow: intp(0)}).Normalize(sentiment.Specificity, fixedNow); err != nil || *got.MAWindow != 0 {
		t.Fatalf("zero window: got=%v err=%v", got.MAWindow, err)
	}
}

func runJob(t *testing.T, p *Pipeline, jobs repos.JobRunRepo, tx *gorm.DB, in Payload) *types.JobRun {
	t.Helper()
	dbc := testutil.DBC(tx)
	raw, _ := json.Marshal(in)
	job, err := jobs.Create(dbc, &types.JobRun{JobType: p.Type(), AnalysisType: string(p.metric), InputFile: in.InputFile, Payload: datatypes.JSON(raw)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := jobs.Transition(dbc, job.ID, domainjobs.StatusRunning, nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	job.Status = domainjobs.StatusRunning
	if err := p.Run(jobrt.NewContext(context.Background(), tx, job, jobs, nil, testutil.Logger(t))); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := jobs.Get(dbc, job.ID)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	return got
}

func TestRunWritesOutputAndTracksMetadata(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	jobs := repos.NewJobRunRepo(db, log)
	processing := repos.NewProcessingJobRepo(db, log)
	bucket := gcptest.NewMemBucket()
	bucket.Put(gcp.BucketCategoryTranscripts, "aapl_transcript.txt", []byte("Revenue grew."))
	scorer := &fakeScorer{}
	p := New(log, sentiment.Specificity, Deps{Bucket: bucket, Scorer: scorer, Processing: processing, Now: func() time.Time { return fixedNow }})

	job := runJob(t, p, jobs, tx, Payload{InputFile: "aapl_transcript.txt", BatchSize: 8, MAWindow: intp(3), TrackMetadata: true})
	if job.Status != domainjobs.StatusCompleted {
		t.Fatalf("status: got=%q error=%q", job.Status, job.Error)
	}
	if job.OutputFile != "aapl_transcript_specificity_20250201_093000.csv" {
		t.Fatalf("output_file: got=%q", job.OutputFile)
	}
	if scorer.opts.BatchSize != 8 || scorer.opts.MAWindow != 3 {
		t.Fatalf("options: got=%+v", scorer.opts)
	}
	csv, ok := bucket.Get(gcp.BucketCategorySentiment, job.OutputFile)
	if !ok || !strings.Contains(string(csv), "ma_specificity_0_1") {
		t.Fatalf("csv: ok=%v body=%q", ok, string(csv))
	}
	rows, err := processing.List(testutil.DBC(tx), 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("processing rows: got=%d err=%v", len(rows), err)
	}
	if rows[0].Model != "gtfintechlab/SubjECTiveQA-SPECIFIC" || rows[0].SentenceCount != 1 || rows[0].Status != "completed" {
		t.Fatalf("processing row: got=%+v", rows[0])
	}
}

func TestRunFailures(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	jobs := repos.NewJobRunRepo(db, log)
	bucket := gcptest.NewMemBucket()
	bucket.Put(gcp.BucketCategoryTranscripts, "t.txt", []byte("Guidance was raised."))

	p := New(log, sentiment.Relevance, Deps{Bucket: bucket, Scorer: &fakeScorer{}})
	job := runJob(t, p, jobs, tx, Payload{InputFile: "missing.txt"})
	if job.Status != domainjobs.StatusFailed || job.Stage != "load" || !strings.Contains(job.Error, "missing.txt not found") {
		t.Fatalf("missing input: status=%q stage=%q error=%q", job.Status, job.Stage, job.Error)
	}

	p = New(log, sentiment.Relevance, Deps{Bucket: bucket, Scorer: &fakeScorer{err: errors.New("inference: 401 unauthorized")}})
	job = runJob(t, p, jobs, tx, Payload{InputFile: "t.txt", OutputFile: "out.csv"})
	if job.Status != domainjobs.StatusFailed || job.Error != "inference: 401 unauthorized" {
		t.Fatalf("scorer error: status=%q error=%q", job.Status, job.Error)
	}
	if _, ok := bucket.Get(gcp.BucketCategorySentiment, "out.csv"); ok {
		t.Fatalf("partial output written")
	}
}
