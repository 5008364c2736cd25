package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
	"github.com/taskhive/taskhive/internal/pkg/logger"
)

const ContextAuditExtraKey = "audit_extra"

// AuditRecorder accepts entries without blocking the caller.
type AuditRecorder interface {
	Record(entry *model.AuditEntry)
}

// Resource names what an audited action touched.
type Resource struct {
	Type string
	ID   string
}

// ResourceExtractor runs after the handler chain, so it may read values the
// handler attached to the context (e.g. a freshly created record's ID).
type ResourceExtractor func(c *gin.Context) Resource

// Audit returns middleware that records an audit entry after the wrapped
// chain has produced its response. Anonymous requests are never audited.
// Extraction and recording failures are swallowed; audit is best-effort
// relative to the request/response contract.
func Audit(rec AuditRecorder, action string, extract ResourceExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		p := PrincipalFrom(c)
		if p == nil {
			return
		}

		// This middleware unwinds before the global error handler renders
		// pending errors, so the status for a failed request has to come
		// from the error, not the writer.
		status := c.Writer.Status()
		if !c.Writer.Written() && len(c.Errors) > 0 {
			status = apperrors.Wrap(c.Errors.Last().Err).HTTPStatus
		}

		entry := &model.AuditEntry{
			ID:         uuid.New().String(),
			UserID:     p.ID,
			Action:     action,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: status,
			CreatedAt:  time.Now().UTC(),
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("audit resource extraction failed",
						"request_id", RequestIDFrom(c), "panic", r)
				}
			}()
			if extract != nil {
				res := extract(c)
				entry.ResourceType = res.Type
				entry.ResourceID = res.ID
			}
		}()

		if val, exists := c.Get(ContextAuditExtraKey); exists {
			if extra, ok := val.(map[string]interface{}); ok {
				entry.Context = extra
			}
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("audit record failed",
						"request_id", RequestIDFrom(c), "panic", r)
				}
			}()
			rec.Record(entry)
		}()
	}
}

// Convenience variants binding the canonical actions.

func AuditCreate(rec AuditRecorder, extract ResourceExtractor) gin.HandlerFunc {
	return Audit(rec, model.AuditActionCreate, extract)
}

func AuditUpdate(rec AuditRecorder, extract ResourceExtractor) gin.HandlerFunc {
	return Audit(rec, model.AuditActionUpdate, extract)
}

func AuditDelete(rec AuditRecorder, extract ResourceExtractor) gin.HandlerFunc {
	return Audit(rec, model.AuditActionDelete, extract)
}

func AuditView(rec AuditRecorder, extract ResourceExtractor) gin.HandlerFunc {
	return Audit(rec, model.AuditActionView, extract)
}

// StaticResource is the extractor for fixed targets like the dashboard.
func StaticResource(resourceType, id string) ResourceExtractor {
	return func(*gin.Context) Resource {
		return Resource{Type: resourceType, ID: id}
	}
}

// ParamResource extracts the resource ID from a route parameter.
func ParamResource(resourceType, param string) ResourceExtractor {
	return func(c *gin.Context) Resource {
		return Resource{Type: resourceType, ID: c.Param(param)}
	}
}

// AddAuditContext lets handlers attach business context to the request's
// eventual audit entry.
func AddAuditContext(c *gin.Context, key string, value interface{}) {
	extra := map[string]interface{}{}
	if val, exists := c.Get(ContextAuditExtraKey); exists {
		if m, ok := val.(map[string]interface{}); ok {
			extra = m
		}
	}
	extra[key] = value
	c.Set(ContextAuditExtraKey, extra)
}
