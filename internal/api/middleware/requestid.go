package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/railzwaylabs/sagalog/pkg/telemetry/correlation"
)

// RequestID reuses an inbound X-Request-ID or mints one, and attaches it and
// any W3C traceparent to the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := correlation.ContextWithCorrelationID(c.Request.Context(), c.GetHeader(correlation.Header))
		ctx, id := correlation.EnsureCorrelationID(ctx)
		ctx = correlation.ContextWithTraceparent(ctx, c.GetHeader("traceparent"))

		c.Request = c.Request.WithContext(ctx)
		c.Set("request_id", id)
		c.Header(correlation.Header, id)
		c.Next()
	}
}
