package sentiment

import (
	"math"
	"testing"
	"time"
)

func fptr(v float64) *float64 { return &v }

func TestParseLabel(t *testing.T) {
	names := map[int]string{0: "low", 1: "medium", 2: "high"}
	cases := []struct {
		raw      string
		labels   map[int]string
		wantName string
		wantID   int
	}{
		{"LABEL_2", names, "high", 2},
		{"LABEL_1", nil, "LABEL_1", 1},
		{"LABEL_7", names, "LABEL_7", 7},
		{"positive", names, "positive", -1},
		{"LABEL_x", names, "LABEL_x", -1},
	}
	for _, tc := range cases {
		name, id := ParseLabel(tc.raw, tc.labels)
		if name != tc.wantName || id != tc.wantID {
			t.Fatalf("ParseLabel(%q): got=(%q,%d) want=(%q,%d)", tc.raw, name, id, tc.wantName, tc.wantID)
		}
	}
}

func TestToUnit(t *testing.T) {
	cases := []struct {
		id    int
		score float64
		want  float64
	}{
		{0, 0.5, 0.165},
		{1, 1.0, 0.67},
		{2, 1.0, 1.0},
		{-1, 0.9, 0.297},
		{5, 0.0, 0.0},
	}
	for _, tc := range cases {
		if got := Round6(ToUnit(tc.id, tc.score)); got != tc.want {
			t.Fatalf("ToUnit(%d,%v): got=%v want=%v", tc.id, tc.score, got, tc.want)
		}
	}
}

func TestSignedRoundTrip(t *testing.T) {
	if got := UnitToSigned(0.75); got != 0.5 {
		t.Fatalf("UnitToSigned(0.75): got=%v want=0.5", got)
	}
	if got := SignedToUnit(0.5); got != 0.75 {
		t.Fatalf("SignedToUnit(0.5): got=%v want=0.75", got)
	}
	for _, v := range []float64{0, 0.25, 0.5, 1} {
		if got := SignedToUnit(UnitToSigned(v)); got != v {
			t.Fatalf("round trip %v: got=%v", v, got)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	if got[0] != nil {
		t.Fatalf("ma[0]: got=%v want=nil", *got[0])
	}
	want := []float64{1.5, 2.5, 3.5}
	for i, w := range want {
		if got[i+1] == nil || math.Abs(*got[i+1]-w) > 1e-9 {
			t.Fatalf("ma[%d]: got=%v want=%v", i+1, got[i+1], w)
		}
	}
	for _, w := range []int{0, 1} {
		for i, v := range MovingAverage([]float64{1, 2, 3}, w) {
			if v != nil {
				t.Fatalf("window %d ma[%d]: got=%v want=nil", w, i, *v)
			}
		}
	}
	for i, v := range MovingAverage([]float64{1, 2}, 20) {
		if v != nil {
			t.Fatalf("short series ma[%d]: got=%v want=nil", i, *v)
		}
	}
}

func TestSmooth(t *testing.T) {
	in := []*float64{fptr(0.2), nil, fptr(0.6), fptr(0.4), nil}
	got := Smooth(in, 5)
	if got[2] == nil || *got[2] != 0.4 {
		t.Fatalf("smooth[2]: got=%v want=0.4", got[2])
	}
	if got[1] == nil || *got[1] != 0.2 {
		t.Fatalf("smooth[1]: got=%v want=0.2", got[1])
	}
	if got[4] == nil || *got[4] != 0.4 {
		t.Fatalf("smooth[4]: got=%v want=0.4", got[4])
	}

	empty := Smooth([]*float64{nil, nil}, 5)
	if empty[0] != nil || empty[1] != nil {
		t.Fatalf("all-null window: got=%v", empty)
	}
}

func TestDefaultOutputFile(t *testing.T) {
	at := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
	if got := DefaultOutputFile("calls/aapl_q1_transcript.txt", Relevance, at); got != "aapl_q1_transcript_relevance_20250201_093000.csv" {
		t.Fatalf("DefaultOutputFile: got=%q", got)
	}
	if got := DefaultOutputFile("", Specificity, at); got != "transcript_specificity_20250201_093000.csv" {
		t.Fatalf("DefaultOutputFile empty: got=%q", got)
	}
}
