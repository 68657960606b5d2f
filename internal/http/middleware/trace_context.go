package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/simpliearn/simpliearn-backend/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
)

// AttachTraceContext stores trace and request ids on the request context and echoes them back.
// An inbound X-Trace-Id wins over the otelgin span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := &ctxutil.TraceData{
			RequestID: headerOr(c, HeaderRequestID, uuid.NewString),
			TraceID: headerOr(c, HeaderTraceID, func() string {
				if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
					return sc.TraceID().String()
				}
				return uuid.NewString()
			}),
		}
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(attribute.String("simpliearn.request_id", ids.RequestID))
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), ids))
		c.Set("trace_id", ids.TraceID)
		c.Set("request_id", ids.RequestID)
		h := c.Writer.Header()
		h.Set(HeaderTraceID, ids.TraceID)
		h.Set(HeaderRequestID, ids.RequestID)
		c.Next()
	}
}

func headerOr(c *gin.Context, name string, fallback func() string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return fallback()
}
