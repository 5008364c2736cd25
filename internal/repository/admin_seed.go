package repository

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taskhive/taskhive/internal/model"
)

// SeedDemoData fills the memory store with a small, deterministic data set
// for DSN-less development runs.
func (r *MemoryAdminRepo) SeedDemoData() {
	now := time.Now().UTC()

	r.AddUser(&model.User{
		ID: "admin-1", Email: "admin@taskhive.dev", DisplayName: "Platform Admin",
		Role: model.RoleAdmin, Status: model.UserActive, Verified: true,
		CreatedAt: now.AddDate(0, -6, 0), UpdatedAt: now,
	})
	for i := 1; i <= 5; i++ {
		r.AddUser(&model.User{
			ID:          fmt.Sprintf("tasker-%d", i),
			Email:       fmt.Sprintf("tasker%d@example.com", i),
			DisplayName: fmt.Sprintf("Tasker %d", i),
			Role:        model.RoleTasker,
			Status:      model.UserActive,
			Verified:    i%2 == 0,
			TasksPosted: 0, TasksCompleted: 3 * i,
			CreatedAt: now.AddDate(0, 0, -10*i), UpdatedAt: now,
		})
		r.AddUser(&model.User{
			ID:          fmt.Sprintf("user-%d", i),
			Email:       fmt.Sprintf("user%d@example.com", i),
			DisplayName: fmt.Sprintf("User %d", i),
			Role:        model.RoleUser,
			Status:      model.UserActive,
			TasksPosted: 2 * i,
			CreatedAt:   now.AddDate(0, 0, -7*i), UpdatedAt: now,
		})
	}

	r.AddVerification(&model.Verification{
		ID: "verif-1", UserID: "tasker-1", DocumentType: "drivers_license",
		Status: model.VerificationPending, SubmittedAt: now.AddDate(0, 0, -2),
	})
	r.AddVerification(&model.Verification{
		ID: "verif-2", UserID: "tasker-3", DocumentType: "passport",
		Status: model.VerificationPending, SubmittedAt: now.AddDate(0, 0, -1),
	})

	r.AddDispute(&model.Dispute{
		ID: "dispute-1", TaskID: "task-42", RaisedBy: "user-1", AgainstUser: "tasker-2",
		Status: model.DisputeOpen, Priority: model.PriorityHigh,
		Reason: "work not completed as described",
		Amount: decimal.NewFromFloat(120.50), CreatedAt: now.AddDate(0, 0, -3),
	})
	r.AddDispute(&model.Dispute{
		ID: "dispute-2", TaskID: "task-57", RaisedBy: "tasker-4", AgainstUser: "user-2",
		Status: model.DisputeResolved, Priority: model.PriorityLow,
		Reason: "payment released late",
		Amount: decimal.NewFromFloat(45), CreatedAt: now.AddDate(0, 0, -20),
	})

	for i := 1; i <= 8; i++ {
		price := decimal.NewFromInt(int64(25 * i))
		fee := price.Mul(decimal.NewFromFloat(0.1)).Round(2)
		r.AddCompletedTask(price, fee, now.AddDate(0, 0, -i))
	}
}
