package search

import (
	"strings"
	"testing"
)

func TestSplitChunks(t *testing.T) {
	text := strings.Repeat("revenue grew strongly this quarter ", 100)
	chunks := SplitChunks(text, 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("chunks: got=%d want>=2", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 200 {
			t.Fatalf("chunk %d too long: %d", i, len(c))
		}
		if strings.HasPrefix(c, " ") || strings.HasSuffix(c, " ") {
			t.Fatalf("chunk %d not trimmed: %q", i, c)
		}
	}
	if got := SplitChunks("   ", 200, 50); len(got) != 0 {
		t.Fatalf("blank: got=%v", got)
	}
	if got := SplitChunks("short text", 200, 50); len(got) != 1 || got[0] != "short text" {
		t.Fatalf("short: got=%v", got)
	}
}

func TestTranscriptIndexTop(t *testing.T) {
	text := "Operator: welcome to the Acme fourth quarter call. " +
		strings.Repeat("We discussed supply chain updates and factory staffing. ", 30) +
		"Our gross margin expanded to 46 percent driven by services mix. " +
		strings.Repeat("Questions followed about store openings in Europe. ", 30)
	ti, err := NewTranscriptIndex(text)
	if err != nil {
		t.Fatalf("NewTranscriptIndex: %v", err)
	}
	defer ti.Close()

	top, err := ti.Top("what happened to gross margin?", 2)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) == 0 || !strings.Contains(top[0].Text, "gross margin") {
		t.Fatalf("top chunk: got=%v", top)
	}

	fallback, err := ti.Top("zzzqqq", 1)
	if err != nil || len(fallback) != 1 || fallback[0].Seq != 0 {
		t.Fatalf("fallback: got=%v err=%v", fallback, err)
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewCache(2)
	loads := 0
	load := func() (string, error) { loads++; return "guidance was raised for the year", nil }
	for _, k := range []string{"a", "b", "a", "c", "a"} {
		if _, err := c.Get(k, load); err != nil {
			t.Fatalf("Get %s: %v", k, err)
		}
	}
	if loads != 3 {
		t.Fatalf("loads: got=%d want=3", loads)
	}
	c.Forget("a")
	if _, err := c.Get("a", load); err != nil || loads != 4 {
		t.Fatalf("after Forget: loads=%d err=%v", loads, err)
	}
}
