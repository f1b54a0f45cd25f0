package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the correlation id on requests and responses.
	CorrelationIDHeader = "X-Correlation-ID"

	// RequestIDHeader is accepted as a fallback for callers that send a
	// generic request id instead of a correlation id.
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDKey stores the correlation id in the gin context.
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with an identifier that log lines and
// error envelopes can be joined on. A caller-supplied id is kept so a
// factory's client can trace a settlement across services.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = c.GetHeader(RequestIDHeader)
		}
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, id)
		c.Set(CorrelationIDKey, id)

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation id, or "" when the
// middleware has not run for this request.
func GetCorrelationID(c *gin.Context) string {
	id, _ := c.Get(CorrelationIDKey)
	s, _ := id.(string)
	return s
}
