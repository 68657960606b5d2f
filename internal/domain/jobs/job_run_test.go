package jobs

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusRunning, false},
		{StatusFailed, StatusRunning, false},
		{StatusFailed, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s,%s): got=%v want=%v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSourcesFor(t *testing.T) {
	got := SourcesFor(StatusFailed)
	if len(got) != 2 || got[0] != StatusPending || got[1] != StatusRunning {
		t.Fatalf("SourcesFor(failed): got=%v", got)
	}
	if got := SourcesFor(StatusPending); len(got) != 0 {
		t.Fatalf("SourcesFor(pending): got=%v want=[]", got)
	}
}
