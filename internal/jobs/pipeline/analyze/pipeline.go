package analyze

import (
	"bytes"
	"errors"
	"fmt"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	jobrt "github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	var raw Payload
	if err := jc.DecodePayload(&raw); err != nil {
		jc.Fail("validate", fmt.Errorf("decode payload: %w", err))
		return nil
	}
	in, err := raw.Normalize(p.metric, p.d.Now())
	if err != nil {
		jc.Fail("validate", err)
		return nil
	}
	jc.Job.OutputFile = in.OutputFile

	var text string
	if err := jc.Stage("load", 10, "Loading transcript", func() error {
		b, err := gcp.ReadAll(jc.Ctx, p.d.Bucket, gcp.BucketCategoryTranscripts, in.InputFile)
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return fmt.Errorf("input file %s not found in transcripts", in.InputFile)
		}
		text = string(b)
		return err
	}); err != nil {
		jc.Fail("load", err)
		return nil
	}

	var rows []sentiment.Row
	if err := jc.Stage("score", 30, "Scoring "+string(p.metric), func() (err error) {
		rows, err = p.d.Scorer.Score(jc.Ctx, p.metric, text, sentiment.Options{
			BatchSize: in.BatchSize,
			MAWindow:  *in.MAWindow,
		})
		return err
	}); err != nil {
		jc.Fail("score", err)
		return nil
	}

	if err := jc.Stage("store", 85, "Writing results", func() error {
		var buf bytes.Buffer
		if err := sentiment.WriteCSV(&buf, p.metric, rows); err != nil {
			return err
		}
		return p.d.Bucket.UploadFile(jc.DBC(), gcp.BucketCategorySentiment, in.OutputFile, &buf)
	}); err != nil {
		jc.Fail("store", err)
		return nil
	}

	if in.TrackMetadata && p.d.Processing != nil {
		if err := jc.Stage("track", 95, "Recording metadata", func() error {
			jobID := jc.Job.ID
			_, err := p.d.Processing.Create(jc.DBC(), &types.ProcessingJob{
				JobID:         &jobID,
				InputFile:     in.InputFile,
				OutputFile:    in.OutputFile,
				Model:         p.metric.Model(),
				SentenceCount: len(rows),
				ProcessedAt:   p.d.Now().UTC(),
				Status:        "completed",
			})
			return err
		}); err != nil {
			dbc, cancel := jc.CleanupDBC()
			if derr := p.d.Bucket.DeleteFile(dbc, gcp.BucketCategorySentiment, in.OutputFile); derr != nil {
				jc.Log.Warn("Failed to delete untracked output", "key", in.OutputFile, "error", derr)
			}
			cancel()
			jc.Fail("track", err)
			return nil
		}
	}

	jc.Succeed("completed", Result{
		AnalysisType:  string(p.metric),
		InputFile:     in.InputFile,
		OutputFile:    in.OutputFile,
		Model:         p.metric.Model(),
		SentenceCount: len(rows),
	})
	return nil
}
