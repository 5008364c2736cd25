package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/pkg/logger"
)

// RequestLogger observes every request without altering its semantics.
// It assigns the correlation ID, emits a "request started" record before the
// handler chain and a "request completed" record exactly once afterwards,
// including aborted and panicking requests.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := &RequestContext{
			ID:    EnsureRequestID(c.GetHeader(HeaderRequestID)),
			Start: time.Now(),
		}
		c.Set(ContextRequestKey, rc)
		c.Header(HeaderRequestID, rc.ID)

		// Read the body for logging and write it back so binding still works.
		var reqBodyBytes []byte
		if c.Request.Body != nil {
			reqBodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(reqBodyBytes))
		}

		emit(func() {
			logger.Info("request started",
				"request_id", rc.ID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"query", c.Request.URL.Query(),
				"headers", RedactHeaders(c.Request.Header),
				"body", redactedBodyField(reqBodyBytes),
				"ip", c.ClientIP(),
			)
		})

		// The completion record must fire exactly once even when a handler
		// panics past us, so it rides on defer rather than on code after Next.
		defer func() {
			emit(func() {
				logger.Info("request completed",
					"request_id", rc.ID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"status", c.Writer.Status(),
					"duration_ms", time.Since(rc.Start).Milliseconds(),
				)
			})
		}()

		c.Next()
	}
}

// emit shields the request from a failing log sink.
func emit(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

// redactedBodyField parses a JSON object body and masks sensitive fields.
// Non-JSON bodies are summarized by size rather than logged raw.
func redactedBodyField(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return map[string]interface{}{"unparsed_bytes": len(body)}
	}
	return RedactBody(data)
}
