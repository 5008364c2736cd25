package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
	"github.com/taskhive/taskhive/internal/service"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

func (h *AuditHandler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.Error(apperrors.NewValidation("invalid limit",
				apperrors.FieldError{Field: "limit", Message: "must be an integer between 1 and 1000"}))
			return
		}
		limit = parsed
	}

	var fromPtr *time.Time
	var toPtr *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.Error(apperrors.NewValidation(err.Error(),
				apperrors.FieldError{Field: "from", Message: err.Error()}))
			return
		}
		fromPtr = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			c.Error(apperrors.NewValidation(err.Error(),
				apperrors.FieldError{Field: "to", Message: err.Error()}))
			return
		}
		toPtr = &t
	}

	records, err := h.svc.List(c.Request.Context(), c.Query("userId"), limit, fromPtr, toPtr)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	respondOK(c, "audit entries", records)
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
