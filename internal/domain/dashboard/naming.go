package dashboard

import (
	"strings"
	"time"
)

const identifierTimeLayout = "20060102_150405"

// Identifier names one processing run's artifacts: <ticker_lower>_<video_id>_<YYYYmmdd_HHMMSS>.
// The dashboard row itself is keyed by the bare video id.
func Identifier(ticker, videoID string, at time.Time) string {
	t := strings.ToLower(strings.TrimSpace(ticker))
	if t == "" {
		t = strings.ToLower(UnknownTicker)
	}
	return t + "_" + videoID + "_" + at.Format(identifierTimeLayout)
}

func TranscriptFilename(identifier string) string  { return identifier + "_transcript.txt" }
func RelevanceFilename(identifier string) string   { return identifier + "_relevance.csv" }
func SpecificityFilename(identifier string) string { return identifier + "_specificity.csv" }
