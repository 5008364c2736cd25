package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleUser   UserRole = "USER"
	RoleTasker UserRole = "TASKER"
	RoleAdmin  UserRole = "ADMIN"
)

type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// User is the admin-facing view of a platform account.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Role            UserRole   `json:"role"`
	Status          UserStatus `json:"status"`
	Verified        bool       `json:"verified"`
	TasksPosted     int        `json:"tasks_posted"`
	TasksCompleted  int        `json:"tasks_completed"`
	SuspendedReason string     `json:"suspended_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ModerationAction string

const (
	ModerationSuspend    ModerationAction = "SUSPEND"
	ModerationReactivate ModerationAction = "REACTIVATE"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

type VerificationAction string

const (
	VerificationApprove VerificationAction = "APPROVE"
	VerificationReject  VerificationAction = "REJECT"
)

// Verification is an identity document submitted by a tasker.
type Verification struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	DocumentType string             `json:"document_type"`
	Status       VerificationStatus `json:"status"`
	Notes        string             `json:"notes,omitempty"`
	SubmittedAt  time.Time          `json:"submitted_at"`
	ProcessedAt  *time.Time         `json:"processed_at,omitempty"`
	ProcessedBy  string             `json:"processed_by,omitempty"`
}

type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "OPEN"
	DisputeUnderReview DisputeStatus = "UNDER_REVIEW"
	DisputeResolved    DisputeStatus = "RESOLVED"
	DisputeClosed      DisputeStatus = "CLOSED"
)

type DisputePriority string

const (
	PriorityLow    DisputePriority = "LOW"
	PriorityMedium DisputePriority = "MEDIUM"
	PriorityHigh   DisputePriority = "HIGH"
	PriorityUrgent DisputePriority = "URGENT"
)

type Dispute struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"task_id"`
	RaisedBy    string          `json:"raised_by"`
	AgainstUser string          `json:"against_user"`
	Status      DisputeStatus   `json:"status"`
	Priority    DisputePriority `json:"priority"`
	Reason      string          `json:"reason"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DashboardStats is the at-a-glance counter set for the admin dashboard.
type DashboardStats struct {
	TotalUsers           int             `json:"total_users"`
	ActiveTaskers        int             `json:"active_taskers"`
	SuspendedUsers       int             `json:"suspended_users"`
	PendingVerifications int             `json:"pending_verifications"`
	OpenDisputes         int             `json:"open_disputes"`
	GrossVolume          decimal.Decimal `json:"gross_volume"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

type AnalyticsReport struct {
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	NewUsers       int             `json:"new_users"`
	TasksPosted    int             `json:"tasks_posted"`
	TasksCompleted int             `json:"tasks_completed"`
	GrossVolume    decimal.Decimal `json:"gross_volume"`
	PlatformFees   decimal.Decimal `json:"platform_fees"`
	AvgTaskPrice   decimal.Decimal `json:"avg_task_price"`
	CompletionRate float64         `json:"completion_rate"`
}

type ComponentHealth struct {
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Latency int64  `json:"latency_ms"`
}

type HealthReport struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	Role     *UserRole
	Status   *UserStatus
	Verified *bool
	Search   string
}

type DisputeFilter struct {
	Status   *DisputeStatus
	Priority *DisputePriority
}
