package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HitaloNasc/v-lab-tech-lead-test/pkg/response"
)

// RequestIDHeader carries the trace id in both directions.
const RequestIDHeader = "X-Request-ID"

// Longer inbound ids are replaced to keep them out of the logs.
const requestIDMaxLen = 64

// RequestID reuses an inbound X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}

		c.Set(response.RequestIDKey, rid)
		c.Header(RequestIDHeader, rid)

		c.Next()
	}
}
