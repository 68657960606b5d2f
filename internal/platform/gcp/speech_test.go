package gcp

import (
	"errors"
	"strings"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestBuildRecognitionConfig(t *testing.T) {
	rc := BuildRecognitionConfig(DefaultSpeechConfig())
	if rc.Encoding != speechpb.RecognitionConfig_FLAC {
		t.Fatalf("encoding: got=%v want=FLAC", rc.Encoding)
	}
	if rc.SampleRateHertz != 16000 || rc.AudioChannelCount != 1 {
		t.Fatalf("audio: got=%d/%d want=16000/1", rc.SampleRateHertz, rc.AudioChannelCount)
	}
	if !rc.EnableAutomaticPunctuation {
		t.Fatalf("punctuation disabled")
	}
	if len(rc.SpeechContexts) != 1 || len(rc.SpeechContexts[0].Phrases) != len(EarningsCallPhrases) {
		t.Fatalf("speech contexts: got=%v", rc.SpeechContexts)
	}

	bare := BuildRecognitionConfig(SpeechConfig{})
	if bare.LanguageCode != "en-US" || bare.SampleRateHertz != 16000 || len(bare.SpeechContexts) != 0 {
		t.Fatalf("defaults: got=%+v", bare)
	}
}

func TestParseRecognizeResponse(t *testing.T) {
	resp := &speechpb.LongRunningRecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{
			Transcript: " Good afternoon everyone. ",
			Confidence: 0.8,
			Words:      []*speechpb.WordInfo{{Word: "everyone", EndTime: &durationpb.Duration{Seconds: 2, Nanos: 500_000_000}}},
		}}},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: ""}}},
		{
			Alternatives:  []*speechpb.SpeechRecognitionAlternative{{Transcript: "Revenue grew 8%.", Confidence: 0.6}},
			ResultEndTime: &durationpb.Duration{Seconds: 6},
		},
		nil,
	}}
	got := ParseRecognizeResponse("gs://audio/a.flac", resp)
	if got.Text != "Good afternoon everyone. Revenue grew 8%." {
		t.Fatalf("text: got=%q", got.Text)
	}
	if got.DurationSeconds != 6 {
		t.Fatalf("duration: got=%v want=6", got.DurationSeconds)
	}
	if got.Confidence < 0.69 || got.Confidence > 0.71 {
		t.Fatalf("confidence: got=%v want=0.7", got.Confidence)
	}
	if empty := ParseRecognizeResponse("", nil); empty.Text != "" {
		t.Fatalf("nil response: got=%q", empty.Text)
	}
}

func TestDescribeSpeechError(t *testing.T) {
	base := status.Error(codes.PermissionDenied, "denied")
	err := describeSpeechError("start recognition", base)
	if !strings.Contains(err.Error(), "credentials lack access") {
		t.Fatalf("message: got=%q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error lost")
	}
}
