package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/dashboard/create-dashboard", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func corsRouter() *gin.Engine {
	r := gin.New()
	r.Use(CORS())
	r.OPTIONS("/dashboard/create-dashboard", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestCORSAllowsLocalDevOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := corsRouter()
	for _, origin := range []string{"http://localhost:5173", "http://127.0.0.1:3000"} {
		rec := preflight(r, origin)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNoContent)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Fatalf("unexpected allow-origin header: got=%q want=%q", got, origin)
		}
	}
}

func TestCORSExtraOriginsFromEnv(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.simpliearn.io/, https://staging.simpliearn.io")
	r := corsRouter()
	if got := preflight(r, "https://app.simpliearn.io").Header().Get("Access-Control-Allow-Origin"); got != "https://app.simpliearn.io" {
		t.Fatalf("env origin: got=%q", got)
	}
	if got := preflight(r, "https://evil.example").Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin allowed: got=%q", got)
	}
}
