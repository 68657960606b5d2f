package create_dashboard

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/datatypes"

	types "github.com/simpliearn/simpliearn-backend/internal/domain"
	"github.com/simpliearn/simpliearn-backend/internal/domain/dashboard"
	jobrt "github.com/simpliearn/simpliearn-backend/internal/jobs/runtime"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/localmedia"
	"github.com/simpliearn/simpliearn-backend/internal/platform/youtube"
	"github.com/simpliearn/simpliearn-backend/internal/sentiment"
)

type artifact struct {
	category gcp.BucketCategory
	key      string
}

type run struct {
	p  *Pipeline
	jc *jobrt.Context

	videoID    string
	identifier string
	meta       dashboard.Metadata
	provided   bool
	transcript string
	sentences  int

	transcriptFile  string
	relevanceFile   string
	specificityFile string

	uploaded []artifact
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	var in Payload
	if err := jc.DecodePayload(&in); err != nil {
		jc.Fail("validate", fmt.Errorf("decode payload: %w", err))
		return nil
	}
	videoID := strings.TrimSpace(in.VideoID)
	if videoID == "" {
		videoID = jc.Job.VideoID
	}
	if videoID == "" {
		id, err := youtube.ExtractVideoID(in.YouTubeURL)
		if err != nil {
			jc.Fail("validate", err)
			return nil
		}
		videoID = id
	}

	r := &run{p: p, jc: jc, videoID: videoID}
	workDir, cleanup, err := p.d.Media.WorkDir("dashboard-" + videoID)
	if err != nil {
		jc.Fail("download", fmt.Errorf("create work dir: %w", err))
		return nil
	}
	defer cleanup()

	stages := []struct {
		name string
		pct  int
		msg  string
		fn   func() error
	}{
		{"metadata", 5, "Resolving video metadata", func() error { return r.resolveMetadata(in.Ticker) }},
		{"download", 15, "Downloading audio", nil},
		{"transcode", 25, "Converting audio", nil},
		{"transcribe", 40, "Transcribing audio", nil},
		{"store_transcript", 55, "Storing transcript", r.storeTranscript},
		{"relevance", 70, "Scoring relevance", func() error { return r.score(sentiment.Relevance) }},
		{"specificity", 85, "Scoring specificity", func() error { return r.score(sentiment.Specificity) }},
		{"persist", 95, "Saving dashboard", r.persist},
	}
	var downloaded, flac string
	stages[1].fn = func() (err error) {
		downloaded, err = p.d.Media.DownloadAudio(jc.Ctx, youtube.WatchURL(videoID), workDir)
		return err
	}
	stages[2].fn = func() (err error) {
		flac, err = p.d.Media.TranscodeAudio(jc.Ctx, downloaded, filepath.Join(workDir, "audio.flac"), localmedia.AudioOptions{
			SampleRateHz: p.d.SpeechConfig.SampleRateHertz,
			Channels:     1,
			Format:       "flac",
		})
		return err
	}
	stages[3].fn = func() error { return r.transcribe(flac) }

	for _, st := range stages {
		if err := jc.Stage(st.name, st.pct, st.msg, st.fn); err != nil {
			r.discardUploads()
			jc.Fail(st.name, err)
			return nil
		}
	}

	jc.Succeed("completed", Result{
		VideoID:             videoID,
		Identifier:          r.identifier,
		Ticker:              r.meta.Ticker,
		TickerProvided:      r.provided,
		Title:               r.meta.Title,
		TranscriptFilename:  r.transcriptFile,
		RelevanceFilename:   r.relevanceFile,
		SpecificityFilename: r.specificityFile,
		SentenceCount:       r.sentences,
	})
	return nil
}

func (r *run) resolveMetadata(userTicker string) error {
	md := r.p.d.Metadata.Resolve(r.jc.Ctx, r.videoID)
	sym, provided := r.p.d.Tickers.Resolve(userTicker, md.Title)
	r.meta = dashboard.Metadata{
		Title:       md.Title,
		Ticker:      sym,
		UploadDate:  md.UploadDate,
		Description: md.Description,
	}
	r.provided = provided
	r.identifier = dashboard.Identifier(sym, r.videoID, r.p.d.Now())
	r.jc.Log.Info("Metadata resolved",
		"video_id", r.videoID,
		"ticker", sym,
		"ticker_provided", provided,
		"metadata_source", md.Source,
	)
	return nil
}

// transcribe stages the FLAC in the audio bucket for long-running recognition. The staged
// object is removed whether or not recognition succeeds.
func (r *run) transcribe(flacPath string) error {
	f, err := os.Open(flacPath)
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	key := r.identifier + ".flac"
	if err := r.p.d.Bucket.UploadFile(r.jc.DBC(), gcp.BucketCategoryAudio, key, f); err != nil {
		return fmt.Errorf("stage audio: %w", err)
	}
	defer func() {
		dbc, cancel := r.jc.CleanupDBC()
		defer cancel()
		if err := r.p.d.Bucket.DeleteFile(dbc, gcp.BucketCategoryAudio, key); err != nil {
			r.jc.Log.Warn("Failed to delete staged audio", "key", key, "error", err)
		}
	}()

	res, err := r.p.d.Speech.TranscribeGCS(r.jc.Ctx, r.p.d.Bucket.GSURI(gcp.BucketCategoryAudio, key), r.p.d.SpeechConfig)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return fmt.Errorf("transcription returned no text")
	}
	r.transcript = text
	return nil
}

func (r *run) upload(category gcp.BucketCategory, key string, data []byte) error {
	if err := r.p.d.Bucket.UploadFile(r.jc.DBC(), category, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	r.uploaded = append(r.uploaded, artifact{category: category, key: key})
	return nil
}

func (r *run) storeTranscript() error {
	key := dashboard.TranscriptFilename(r.identifier)
	if err := r.upload(gcp.BucketCategoryTranscripts, key, []byte(r.transcript)); err != nil {
		return err
	}
	r.transcriptFile = key
	return nil
}

func (r *run) score(m sentiment.Metric) error {
	rows, err := r.p.d.Scorer.Score(r.jc.Ctx, m, r.transcript, r.p.d.ScoreOptions)
	if err != nil {
		return fmt.Errorf("%s scoring: %w", m, err)
	}
	var buf bytes.Buffer
	if err := sentiment.WriteCSV(&buf, m, rows); err != nil {
		return err
	}
	var key string
	switch m {
	case sentiment.Relevance:
		key = dashboard.RelevanceFilename(r.identifier)
		r.relevanceFile = key
	default:
		key = dashboard.SpecificityFilename(r.identifier)
		r.specificityFile = key
	}
	r.sentences = len(rows)
	return r.upload(gcp.BucketCategorySentiment, key, buf.Bytes())
}

func (r *run) persist() error {
	prev, err := r.p.d.Records.GetByVideoIdentifier(r.jc.DBC(), r.videoID)
	if err != nil {
		return err
	}
	if _, err := r.p.d.Records.Upsert(r.jc.DBC(), &types.DashboardRecord{
		VideoIdentifier:     r.videoID,
		TranscriptFilename:  r.transcriptFile,
		RelevanceFilename:   r.relevanceFile,
		SpecificityFilename: r.specificityFile,
		Metadata:            datatypes.NewJSONType(r.meta),
	}); err != nil {
		return fmt.Errorf("upsert dashboard: %w", err)
	}
	if prev != nil {
		r.dropReplaced(prev)
	}
	return nil
}

// dropReplaced removes artifacts of an earlier run that the new row no longer references.
func (r *run) dropReplaced(prev *types.DashboardRecord) {
	old := []artifact{
		{gcp.BucketCategoryTranscripts, prev.TranscriptFilename},
		{gcp.BucketCategorySentiment, prev.RelevanceFilename},
		{gcp.BucketCategorySentiment, prev.SpecificityFilename},
	}
	current := map[string]bool{r.transcriptFile: true, r.relevanceFile: true, r.specificityFile: true}
	for _, a := range old {
		if a.key == "" || current[a.key] {
			continue
		}
		if err := r.p.d.Bucket.DeleteFile(r.jc.DBC(), a.category, a.key); err != nil {
			r.jc.Log.Warn("Failed to delete replaced artifact", "key", a.key, "error", err)
		}
	}
}

// discardUploads removes this run's artifacts after a failed stage. Best effort.
func (r *run) discardUploads() {
	dbc, cancel := r.jc.CleanupDBC()
	defer cancel()
	for _, a := range r.uploaded {
		if err := r.p.d.Bucket.DeleteFile(dbc, a.category, a.key); err != nil {
			r.jc.Log.Warn("Failed to delete partial artifact", "key", a.key, "error", err)
		}
	}
	r.uploaded = nil
}
