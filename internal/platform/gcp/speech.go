package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

// EarningsCallPhrases bias recognition toward vocabulary that generic models tend to mangle on
// earnings calls.
var EarningsCallPhrases = []string{
	"earnings per share", "EPS", "revenue", "guidance", "fiscal quarter", "fiscal year",
	"year over year", "quarter over quarter", "operating margin", "gross margin", "free cash flow",
	"EBITDA", "basis points", "diluted", "buyback", "dividend", "capex", "headwinds", "tailwinds",
	"forward-looking statements", "non-GAAP", "GAAP",
}

type Speech interface {
	// TranscribeGCS runs long-running recognition over an object already in Cloud Storage.
	TranscribeGCS(ctx context.Context, gcsURI string, cfg SpeechConfig) (*SpeechResult, error)
	Close() error
}

type SpeechConfig struct {
	LanguageCode    string
	SampleRateHertz int
	Phrases         []string
	PhraseBoost     float32
}

func DefaultSpeechConfig() SpeechConfig {
	return SpeechConfig{
		LanguageCode:    "en-US",
		SampleRateHertz: 16000,
		Phrases:         EarningsCallPhrases,
		PhraseBoost:     10,
	}
}

type SpeechResult struct {
	SourceURI       string  `json:"source_uri,omitempty"`
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
	Confidence      float64 `json:"confidence"`
}

type speechService struct {
	log    *logger.Logger
	client *speech.Client
}

func NewSpeech(log *logger.Logger) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := speech.NewClient(context.Background(), ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &speechService{log: log.With("service", "gcp.Speech"), client: c}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) TranscribeGCS(ctx context.Context, gcsURI string, cfg SpeechConfig) (*SpeechResult, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: BuildRecognitionConfig(cfg),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gcsURI}},
	}
	start := time.Now()
	op, err := s.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, describeSpeechError("start recognition", err)
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return nil, describeSpeechError("wait for recognition", err)
	}
	out := ParseRecognizeResponse(gcsURI, resp)
	s.log.Info("Transcription finished",
		"source_uri", gcsURI,
		"chars", len(out.Text),
		"audio_seconds", out.DurationSeconds,
		"elapsed", time.Since(start).String(),
	)
	return out, nil
}

// BuildRecognitionConfig targets the mono 16 kHz FLAC produced by the transcode stage.
func BuildRecognitionConfig(cfg SpeechConfig) *speechpb.RecognitionConfig {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHertz <= 0 {
		cfg.SampleRateHertz = 16000
	}
	rc := &speechpb.RecognitionConfig{
		Encoding:                   speechpb.RecognitionConfig_FLAC,
		SampleRateHertz:            int32(cfg.SampleRateHertz),
		AudioChannelCount:          1,
		LanguageCode:               cfg.LanguageCode,
		EnableAutomaticPunctuation: true,
		EnableWordTimeOffsets:      true,
	}
	if len(cfg.Phrases) > 0 {
		rc.SpeechContexts = []*speechpb.SpeechContext{{
			Phrases: append([]string(nil), cfg.Phrases...),
			Boost:   cfg.PhraseBoost,
		}}
	}
	return rc
}

// ParseRecognizeResponse joins the top alternative of every result. Duration is the latest
// word end offset; confidence is the mean over results that report one.
func ParseRecognizeResponse(sourceURI string, resp *speechpb.LongRunningRecognizeResponse) *SpeechResult {
	out := &SpeechResult{SourceURI: sourceURI}
	if resp == nil {
		return out
	}
	var full strings.Builder
	var confSum float64
	var confN int
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		alt := r.Alternatives[0]
		txt := strings.TrimSpace(alt.Transcript)
		if txt == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(txt)
		if alt.Confidence > 0 {
			confSum += float64(alt.Confidence)
			confN++
		}
		for _, w := range alt.Words {
			if w == nil {
				continue
			}
			if end := durToSec(w.EndTime); end > out.DurationSeconds {
				out.DurationSeconds = end
			}
		}
		if end := durToSec(r.ResultEndTime); end > out.DurationSeconds {
			out.DurationSeconds = end
		}
	}
	out.Text = full.String()
	if confN > 0 {
		out.Confidence = confSum / float64(confN)
	}
	return out
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}

func describeSpeechError(op string, err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return fmt.Errorf("speech %s: audio rejected: %w", op, err)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("speech %s: credentials lack access: %w", op, err)
	case codes.ResourceExhausted:
		return fmt.Errorf("speech %s: quota exhausted: %w", op, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("speech %s: timed out: %w", op, err)
	default:
		return fmt.Errorf("speech %s: %w", op, err)
	}
}
