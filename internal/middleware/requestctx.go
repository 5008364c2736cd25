package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID   = "X-Request-ID"
	ContextRequestKey = "request_context"
)

// RequestContext carries per-request correlation metadata through the
// middleware chain instead of hanging fields off the request object.
type RequestContext struct {
	ID    string
	Start time.Time
}

// EnsureRequestID returns existing unchanged when a trusted upstream already
// assigned one, otherwise a fresh UUID.
func EnsureRequestID(existing string) string {
	if existing != "" {
		return existing
	}
	return uuid.New().String()
}

// RequestFrom returns the request context set by RequestLogger, or nil.
func RequestFrom(c *gin.Context) *RequestContext {
	if val, exists := c.Get(ContextRequestKey); exists {
		if rc, ok := val.(*RequestContext); ok {
			return rc
		}
	}
	return nil
}

// RequestIDFrom is a convenience accessor for log fields.
func RequestIDFrom(c *gin.Context) string {
	if rc := RequestFrom(c); rc != nil {
		return rc.ID
	}
	return ""
}
