package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/apperrors"
	"github.com/taskhive/taskhive/internal/pkg/metrics"
	"github.com/taskhive/taskhive/internal/repository"
)

// AdminRepo is the persistence contract for the moderation plane.
type AdminRepo interface {
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	ListUsers(ctx context.Context, filter model.UserFilter, limit, offset int) ([]*model.User, int64, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateUserStatus(ctx context.Context, id string, status model.UserStatus, reason string) (*model.User, error)
	SetUserVerified(ctx context.Context, id string, verified bool) error
	ListPendingVerifications(ctx context.Context, limit, offset int) ([]*model.Verification, int64, error)
	GetVerification(ctx context.Context, id string) (*model.Verification, error)
	UpdateVerification(ctx context.Context, v *model.Verification) error
	Analytics(ctx context.Context, start, end time.Time) (*model.AnalyticsReport, error)
	ListDisputes(ctx context.Context, filter model.DisputeFilter, limit, offset int) ([]*model.Dispute, int64, error)
	Ping(ctx context.Context) error
}

type AdminService struct {
	repo AdminRepo
}

func NewAdminService(repo AdminRepo) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	return s.repo.DashboardStats(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context, filter model.UserFilter, page, limit int) ([]*model.User, int64, error) {
	return s.repo.ListUsers(ctx, filter, limit, (page-1)*limit)
}

// ModerateUser applies a SUSPEND or REACTIVATE action. Transitions that
// would be no-ops are rejected as conflicts so an admin notices a stale view.
func (s *AdminService) ModerateUser(ctx context.Context, userID string, action model.ModerationAction, reason string) (*model.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user not found")
	}

	var target model.UserStatus
	switch action {
	case model.ModerationSuspend:
		if user.Status == model.UserSuspended {
			return nil, apperrors.New(apperrors.ErrConflict, "user is already suspended", nil)
		}
		target = model.UserSuspended
	case model.ModerationReactivate:
		if user.Status == model.UserActive {
			return nil, apperrors.New(apperrors.ErrConflict, "user is already active", nil)
		}
		target = model.UserActive
		reason = ""
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown moderation action %q", action))
	}

	updated, err := s.repo.UpdateUserStatus(ctx, userID, target, reason)
	if err != nil {
		return nil, mapRepoErr(err, "user not found")
	}
	metrics.ModerationActions.WithLabelValues(string(action)).Inc()
	return updated, nil
}

func (s *AdminService) PendingVerifications(ctx context.Context, page, limit int) ([]*model.Verification, int64, error) {
	return s.repo.ListPendingVerifications(ctx, limit, (page-1)*limit)
}

// ProcessVerification resolves a pending verification. Approval also marks
// the submitting user as verified.
func (s *AdminService) ProcessVerification(ctx context.Context, id string, action model.VerificationAction, notes, adminID string) (*model.Verification, error) {
	verification, err := s.repo.GetVerification(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "verification not found")
	}
	if verification.Status != model.VerificationPending {
		return nil, apperrors.New(apperrors.ErrConflict, "verification already processed", nil)
	}

	switch action {
	case model.VerificationApprove:
		verification.Status = model.VerificationApproved
	case model.VerificationReject:
		verification.Status = model.VerificationRejected
	default:
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown verification action %q", action))
	}

	now := time.Now().UTC()
	verification.Notes = notes
	verification.ProcessedAt = &now
	verification.ProcessedBy = adminID

	if err := s.repo.UpdateVerification(ctx, verification); err != nil {
		return nil, mapRepoErr(err, "verification not found")
	}
	if verification.Status == model.VerificationApproved {
		if err := s.repo.SetUserVerified(ctx, verification.UserID, true); err != nil {
			return nil, mapRepoErr(err, "user not found")
		}
	}
	metrics.VerificationsProcessed.WithLabelValues(string(action)).Inc()
	return verification, nil
}

func (s *AdminService) Analytics(ctx context.Context, start, end time.Time) (*model.AnalyticsReport, error) {
	if end.Before(start) {
		return nil, apperrors.NewValidation("endDate must not be before startDate",
			apperrors.FieldError{Field: "endDate", Message: "must not be before startDate"})
	}
	return s.repo.Analytics(ctx, start, end)
}

func (s *AdminService) ListDisputes(ctx context.Context, filter model.DisputeFilter, page, limit int) ([]*model.Dispute, int64, error) {
	return s.repo.ListDisputes(ctx, filter, limit, (page-1)*limit)
}

func (s *AdminService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func mapRepoErr(err error, notFoundMsg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(notFoundMsg)
	}
	return apperrors.New(apperrors.ErrUpstream, "admin store error", err)
}
