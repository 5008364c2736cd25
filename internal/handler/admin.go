package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
	"github.com/taskhive/taskhive/internal/service"
)

// HealthChecker reports component health for the admin health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) *model.HealthReport
}

type AdminHandler struct {
	svc    *service.AdminService
	health HealthChecker
}

func NewAdminHandler(svc *service.AdminService, health HealthChecker) *AdminHandler {
	return &AdminHandler{svc: svc, health: health}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	respondOK(c, "dashboard statistics", stats)
}

type listUsersQuery struct {
	Role     *string `form:"role" binding:"omitempty,oneof=USER TASKER ADMIN"`
	Status   *string `form:"status" binding:"omitempty,oneof=ACTIVE SUSPENDED"`
	Verified *bool   `form:"verified"`
	Search   string  `form:"search" binding:"omitempty,max=100"`
	Page     int     `form:"page,default=1" binding:"min=1"`
	Limit    int     `form:"limit,default=50" binding:"min=1,max=100"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(bindError(err))
		return
	}

	filter := model.UserFilter{Verified: q.Verified, Search: q.Search}
	if q.Role != nil {
		role := model.UserRole(*q.Role)
		filter.Role = &role
	}
	if q.Status != nil {
		status := model.UserStatus(*q.Status)
		filter.Status = &status
	}

	users, total, err := h.svc.ListUsers(c.Request.Context(), filter, q.Page, q.Limit)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	respondPage(c, "users", users, q.Page, q.Limit, total)
}

type moderateUserRequest struct {
	Action string `json:"action" binding:"required,oneof=SUSPEND REACTIVATE"`
	Reason string `json:"reason" binding:"required,min=10,max=500"`
}

func (h *AdminHandler) ModerateUser(c *gin.Context) {
	var req moderateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	user, err := h.svc.ModerateUser(c.Request.Context(), c.Param("id"), model.ModerationAction(req.Action), req.Reason)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	middleware.AddAuditContext(c, "moderation_action", req.Action)
	middleware.AddAuditContext(c, "reason", req.Reason)
	respondOK(c, "user moderated", user)
}

type pendingVerificationsQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=50"`
}

func (h *AdminHandler) PendingVerifications(c *gin.Context) {
	var q pendingVerificationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(bindError(err))
		return
	}

	items, total, err := h.svc.PendingVerifications(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	respondPage(c, "pending verifications", items, q.Page, q.Limit, total)
}

type processVerificationRequest struct {
	Action string `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Notes  string `json:"notes" binding:"omitempty,max=500"`
}

func (h *AdminHandler) ProcessVerification(c *gin.Context) {
	var req processVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	adminID := ""
	if p := middleware.PrincipalFrom(c); p != nil {
		adminID = p.ID
	}

	verification, err := h.svc.ProcessVerification(c.Request.Context(), c.Param("id"),
		model.VerificationAction(req.Action), req.Notes, adminID)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	middleware.AddAuditContext(c, "verification_action", req.Action)
	respondOK(c, "verification processed", verification)
}

func (h *AdminHandler) Analytics(c *gin.Context) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.Error(apperrors.NewValidation("invalid startDate",
				apperrors.FieldError{Field: "startDate", Message: err.Error()}))
			return
		}
		start = t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			c.Error(apperrors.NewValidation("invalid endDate",
				apperrors.FieldError{Field: "endDate", Message: err.Error()}))
			return
		}
		end = t
	}

	report, err := h.svc.Analytics(c.Request.Context(), start, end)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	respondOK(c, "analytics report", report)
}

type listDisputesQuery struct {
	Status   *string `form:"status" binding:"omitempty,oneof=OPEN UNDER_REVIEW RESOLVED CLOSED"`
	Priority *string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Page     int     `form:"page,default=1" binding:"min=1"`
	Limit    int     `form:"limit,default=20" binding:"min=1,max=50"`
}

func (h *AdminHandler) ListDisputes(c *gin.Context) {
	var q listDisputesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(bindError(err))
		return
	}

	filter := model.DisputeFilter{}
	if q.Status != nil {
		status := model.DisputeStatus(*q.Status)
		filter.Status = &status
	}
	if q.Priority != nil {
		priority := model.DisputePriority(*q.Priority)
		filter.Priority = &priority
	}

	items, total, err := h.svc.ListDisputes(c.Request.Context(), filter, q.Page, q.Limit)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	respondPage(c, "disputes", items, q.Page, q.Limit, total)
}

func (h *AdminHandler) Health(c *gin.Context) {
	respondOK(c, "health report", h.health.HealthCheck(c.Request.Context()))
}
