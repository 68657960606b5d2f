package dashboard

import (
	"testing"
	"time"
)

func TestIdentifier(t *testing.T) {
	at := time.Date(2025, 1, 30, 17, 4, 5, 0, time.UTC)
	if got := Identifier("AAPL", "dC9yOuhiNrk", at); got != "aapl_dC9yOuhiNrk_20250130_170405" {
		t.Fatalf("Identifier: got=%q", got)
	}
	if got := Identifier("", "dC9yOuhiNrk", at); got != "unknown_dC9yOuhiNrk_20250130_170405" {
		t.Fatalf("Identifier empty ticker: got=%q", got)
	}
	if got := RelevanceFilename("x"); got != "x_relevance.csv" {
		t.Fatalf("RelevanceFilename: got=%q", got)
	}
}
