package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrovet/internal/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, taken from the incoming header
// when present, and stores a logger carrying it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)

		log := logger.WithRequestID(id)
		c.Request = c.Request.WithContext(log.WithContext(c.Request.Context()))

		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
