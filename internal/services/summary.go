package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos"
	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
	"github.com/simpliearn/simpliearn-backend/internal/platform/dbctx"
	"github.com/simpliearn/simpliearn-backend/internal/platform/gcp"
	"github.com/simpliearn/simpliearn-backend/internal/platform/llm"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

type SummaryService interface {
	Summarize(dbc dbctx.Context, ref RecordRef) (string, error)
}

type summaryService struct {
	log *logger.Logger
	llm llm.Client
	src transcripts
}

func NewSummaryService(baseLog *logger.Logger, client llm.Client, records repos.DashboardRecordRepo, bucket gcp.BucketService) SummaryService {
	return &summaryService{
		log: baseLog.With("service", "SummaryService"),
		llm: client,
		src: transcripts{records: records, bucket: bucket},
	}
}

const summaryPrompt = `You are a financial analyst assistant. Read the earnings call transcript and write a summary of the key financial results, executive commentary and any forward-looking statements.
Open with one brief paragraph summarizing the whole call, then give the detail.
Bold key terms. Keep it concise and use plain language: assume the reader knows little about finance, and define any jargon you do use.`

// maxSummaryChars keeps very long calls inside the model's context window.
const maxSummaryChars = 120_000

func (s *summaryService) Summarize(dbc dbctx.Context, ref RecordRef) (string, error) {
	if s.llm == nil {
		return "", apierr.New(http.StatusServiceUnavailable, "llm_unavailable", fmt.Errorf("summary is not configured: no LLM client"))
	}
	rec, err := s.src.record(dbc, ref)
	if err != nil {
		return "", err
	}
	text, err := s.src.text(dbc.Ctx, rec)
	if err != nil {
		return "", err
	}
	if r := []rune(text); len(r) > maxSummaryChars {
		s.log.Info("Transcript truncated for summary", "video_identifier", rec.VideoIdentifier, "chars", len(r))
		text = string(r[:maxSummaryChars])
	}
	out, err := s.llm.Complete(dbc.Ctx, llm.Request{
		System:    summaryPrompt,
		User:      "Transcript:\n" + text,
		MaxTokens: 1500,
	})
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}
	return strings.TrimSpace(out), nil
}
