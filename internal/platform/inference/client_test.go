package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

func TestClassifyNestedResponse(t *testing.T) {
	var gotAuth string
	var gotBody classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		if !strings.HasSuffix(r.URL.Path, "/gtfintechlab/SubjECTiveQA-RELEVANT") {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[[{"label":"LABEL_0","score":0.1},{"label":"LABEL_2","score":0.8}],[{"label":"LABEL_1","score":0.6}]]`))
	}))
	defer srv.Close()

	c := NewClient(logger.Nop(), Config{BaseURL: srv.URL, Token: "hf_x"})
	preds, err := c.Classify(context.Background(), "gtfintechlab/SubjECTiveQA-RELEVANT", []string{"a.", "b."}, 512)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(preds) != 2 || preds[0].Label != "LABEL_2" || preds[1].Label != "LABEL_1" {
		t.Fatalf("Classify: got=%+v", preds)
	}
	if gotAuth != "Bearer hf_x" {
		t.Fatalf("auth: got=%q", gotAuth)
	}
	if len(gotBody.Inputs) != 2 || gotBody.Parameters["max_length"] != float64(512) {
		t.Fatalf("body: got=%+v", gotBody)
	}
}

func TestClassifyFlatResponseAndCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"LABEL_1","score":0.5}]`))
	}))
	defer srv.Close()

	c := NewClient(logger.Nop(), Config{BaseURL: srv.URL})
	preds, err := c.Classify(context.Background(), "m", []string{"one"}, 0)
	if err != nil || len(preds) != 1 || preds[0].Score != 0.5 {
		t.Fatalf("flat: got=%+v err=%v", preds, err)
	}
	if _, err := c.Classify(context.Background(), "m", []string{"one", "two"}, 0); err == nil {
		t.Fatalf("mismatch: expected error")
	}
}

func TestClassifyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is loading"}`))
	}))
	defer srv.Close()

	c := NewClient(logger.Nop(), Config{BaseURL: srv.URL})
	_, err := c.Classify(context.Background(), "m", []string{"x"}, 0)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err: got=%v want status 503", err)
	}
}

func TestID2LabelCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/org/model/resolve/main/config.json" {
			t.Errorf("path: got=%s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id2label":{"0":"low","1":"medium","2":"high"}}`))
	}))
	defer srv.Close()

	c := NewClient(logger.Nop(), Config{HubBaseURL: srv.URL})
	for i := 0; i < 2; i++ {
		m, err := c.ID2Label(context.Background(), "org/model")
		if err != nil || m[2] != "high" {
			t.Fatalf("ID2Label: got=%v err=%v", m, err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls: got=%d want=1", calls)
	}
}
