package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

// Route params worth carrying into the access log so a job or video can be followed across lines.
var loggedParams = []string{"job_id", "video_identifier", "filename", "type", "ticker"}

// RequestLogger writes one access line per request: Error for 5xx, Warn for 4xx, Info otherwise.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		for _, p := range loggedParams {
			if v := c.Param(p); v != "" {
				fields = append(fields, p, v)
			}
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}
