package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" api-key = abc , broken, =x, team=earnings ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "earnings" {
		t.Fatalf("parseHeaders: got=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("parseHeaders empty: want nil")
	}
}

func TestSampleRatioClamped(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	if got := sampleRatio(); got != 1 {
		t.Fatalf("sampleRatio: got=%v want=1", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "nope")
	if got := sampleRatio(); got != 0.1 {
		t.Fatalf("sampleRatio invalid: got=%v want=0.1", got)
	}
}
