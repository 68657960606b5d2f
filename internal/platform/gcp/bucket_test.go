package gcp

import "testing"

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"aapl_x_transcript.txt": "text/plain; charset=utf-8",
		"aapl_x_relevance.CSV":  "text/csv; charset=utf-8",
		"audio/job.flac":        "audio/flac",
		"blob":                  "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): got=%q want=%q", key, got, want)
		}
	}
}

func TestGSURI(t *testing.T) {
	bs := &bucketService{cfg: StorageConfig{AudioBucket: "se-audio"}}
	if got := bs.GSURI(BucketCategoryAudio, "/jobs/abc.flac"); got != "gs://se-audio/jobs/abc.flac" {
		t.Fatalf("GSURI: got=%q", got)
	}
	if got := bs.GSURI(BucketCategory("nope"), "x"); got != "" {
		t.Fatalf("GSURI unknown: got=%q want empty", got)
	}
}
