package sentiment

import (
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer

	naiveBoundary = regexp.MustCompile(`[.!?]\s+`)
)

// SplitSentences segments transcript text with the English Punkt model, falling back to a
// punctuation split when the tokenizer is unavailable or finds nothing.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}
	tokenizerOnce.Do(func() {
		tokenizer, _ = english.NewSentenceTokenizer(nil)
	})
	if tokenizer != nil {
		var out []string
		for _, s := range tokenizer.Tokenize(text) {
			if t := strings.TrimSpace(s.Text); t != "" {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return naiveSplit(text)
}

// naiveSplit breaks after . ! or ? followed by whitespace, keeping the punctuation.
func naiveSplit(text string) []string {
	var out []string
	start := 0
	for _, loc := range naiveBoundary.FindAllStringIndex(text, -1) {
		if t := strings.TrimSpace(text[start : loc[0]+1]); t != "" {
			out = append(out, t)
		}
		start = loc[1]
	}
	if t := strings.TrimSpace(text[start:]); t != "" {
		out = append(out, t)
	}
	return out
}
