package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simpliearn/simpliearn-backend/internal/http/response"
	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
	"github.com/simpliearn/simpliearn-backend/internal/platform/logger"
)

// Recover turns handler panics into a 500 error envelope and logs them with the request's
// trace ids.
func Recover(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if log != nil {
				fields := []interface{}{"path", c.Request.URL.Path, "panic", fmt.Sprint(rec)}
				if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
					fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
				}
				log.Error("Handler panic", fields...)
			}
			if !c.Writer.Written() {
				response.RespondError(c, http.StatusInternalServerError, "internal_error", fmt.Errorf("internal error"))
			}
			c.Abort()
		}()
		c.Next()
	}
}
