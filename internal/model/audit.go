package model

import (
	"time"
)

// Audit action verbs. The field is free-form but these cover the
// canonical cases.
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
	AuditActionView   = "view"
)

// AuditEntry records who did what to which resource.
type AuditEntry struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id"`

	Method     string `json:"method"`
	Path       string `json:"path"`
	IP         string `json:"ip"`
	UserAgent  string `json:"user_agent"`
	StatusCode int    `json:"status_code"`

	// Extra business context attached by handlers (moderation reason,
	// verification outcome, ...).
	Context map[string]interface{} `json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
