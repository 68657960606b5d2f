package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/platform/apierr"
)

func TestRespondAPIError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", fmt.Errorf("lookup: %w", apierr.NotFound("dashboard_not_found", "dashboard x not found")), http.StatusNotFound, "dashboard_not_found"},
		{"bad request", apierr.BadRequest("invalid_youtube_url", "not a YouTube URL"), http.StatusBadRequest, "invalid_youtube_url"},
		{"plain", errors.New("bucket unavailable"), http.StatusInternalServerError, "list_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Set("request_id", "req-42")
			RespondAPIError(c, tc.err, "list_failed")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got=%d want=%d", rec.Code, tc.wantStatus)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode || env.Error.Message != tc.err.Error() {
				t.Fatalf("envelope: got=%+v want code=%s", env.Error, tc.wantCode)
			}
			if env.Error.RequestID != "req-42" {
				t.Fatalf("request_id: got=%q want=req-42", env.Error.RequestID)
			}
			if len(c.Errors) != 1 {
				t.Fatalf("context errors: got=%d want=1", len(c.Errors))
			}
		})
	}
}
