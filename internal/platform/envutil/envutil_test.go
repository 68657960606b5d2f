package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "7")
	if got := Int("WORKER_CONCURRENCY", 4); got != 7 {
		t.Fatalf("Int: got=%d want=7", got)
	}
	t.Setenv("WORKER_CONCURRENCY", "seven")
	if got := Int("WORKER_CONCURRENCY", 4); got != 4 {
		t.Fatalf("Int invalid: got=%d want=4", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "yes")
	if !Bool("METRICS_ENABLED", false) {
		t.Fatalf("Bool yes: got=false want=true")
	}
	t.Setenv("METRICS_ENABLED", "maybe")
	if Bool("METRICS_ENABLED", false) {
		t.Fatalf("Bool unknown: got=true want=false")
	}
}

func TestMinutes(t *testing.T) {
	t.Setenv("JOB_TIMEOUT_MINUTES", "")
	if got := Minutes("JOB_TIMEOUT_MINUTES", 30*time.Minute); got != 30*time.Minute {
		t.Fatalf("Minutes default: got=%v", got)
	}
	t.Setenv("JOB_TIMEOUT_MINUTES", "5")
	if got := Minutes("JOB_TIMEOUT_MINUTES", 30*time.Minute); got != 5*time.Minute {
		t.Fatalf("Minutes: got=%v want=5m", got)
	}
}
