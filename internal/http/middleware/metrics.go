package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/observability"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template. Unmatched paths share the
// "unmatched" label.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		m.ApiInflightInc()
		start := time.Now()
		defer func() {
			m.ApiInflightDec()
			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
		}()
		c.Next()
	}
}
