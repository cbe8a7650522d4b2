package middlewares

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-Id"

const (
	requestIDKey       = "request_id"
	maxRequestIDLength = 128
)

// RequestID tags every request with an id. A caller-supplied X-Request-Id is
// reused when it is short printable text; anything else is replaced by a UUID.
// The id is echoed on the response and kept in the gin context for logs and spans.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, id)
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return r > unicode.MaxASCII || !unicode.IsPrint(r)
	}) < 0
}

// RequestIDFromContext returns the id set by RequestID, or "" outside it.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
