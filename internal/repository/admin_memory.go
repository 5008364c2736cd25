package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/taskhive/taskhive/internal/model"
)

// task is only tracked for dashboard/analytics aggregates; the task CRUD
// surface itself lives outside the admin plane.
type task struct {
	ID          string
	PostedBy    string
	Status      string
	Price       decimal.Decimal
	Fee         decimal.Decimal
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// MemoryAdminRepo backs tests and DSN-less dev runs.
type MemoryAdminRepo struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	verifications map[string]*model.Verification
	disputes      map[string]*model.Dispute
	tasks         map[string]*task
}

func NewMemoryAdminRepo() *MemoryAdminRepo {
	return &MemoryAdminRepo{
		users:         make(map[string]*model.User),
		verifications: make(map[string]*model.Verification),
		disputes:      make(map[string]*model.Dispute),
		tasks:         make(map[string]*task),
	}
}

func (r *MemoryAdminRepo) AddUser(u *model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
}

func (r *MemoryAdminRepo) AddVerification(v *model.Verification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.verifications[v.ID] = &cp
}

func (r *MemoryAdminRepo) AddDispute(d *model.Dispute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.disputes[d.ID] = &cp
}

func (r *MemoryAdminRepo) AddCompletedTask(price, fee decimal.Decimal, completedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New().String()
	r.tasks[id] = &task{
		ID:          id,
		Status:      "COMPLETED",
		Price:       price,
		Fee:         fee,
		CreatedAt:   completedAt.Add(-24 * time.Hour),
		CompletedAt: &completedAt,
	}
}

func (r *MemoryAdminRepo) ListUsers(ctx context.Context, filter model.UserFilter, limit, offset int) ([]*model.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		if filter.Verified != nil && u.Verified != *filter.Verified {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(u.Email), needle) &&
				!strings.Contains(strings.ToLower(u.DisplayName), needle) {
				continue
			}
		}
		cp := *u
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (r *MemoryAdminRepo) GetUser(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryAdminRepo) UpdateUserStatus(ctx context.Context, id string, status model.UserStatus, reason string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Status = status
	u.SuspendedReason = reason
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

func (r *MemoryAdminRepo) SetUserVerified(ctx context.Context, id string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Verified = verified
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryAdminRepo) ListPendingVerifications(ctx context.Context, limit, offset int) ([]*model.Verification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Verification, 0, len(r.verifications))
	for _, v := range r.verifications {
		if v.Status != model.VerificationPending {
			continue
		}
		cp := *v
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SubmittedAt.Before(matched[j].SubmittedAt)
	})

	total := int64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (r *MemoryAdminRepo) GetVerification(ctx context.Context, id string) (*model.Verification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.verifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *MemoryAdminRepo) UpdateVerification(ctx context.Context, v *model.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.verifications[v.ID]; !ok {
		return ErrNotFound
	}
	cp := *v
	r.verifications[v.ID] = &cp
	return nil
}

func (r *MemoryAdminRepo) ListDisputes(ctx context.Context, filter model.DisputeFilter, limit, offset int) ([]*model.Dispute, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Dispute, 0, len(r.disputes))
	for _, d := range r.disputes {
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && d.Priority != *filter.Priority {
			continue
		}
		cp := *d
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (r *MemoryAdminRepo) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.DashboardStats{
		GrossVolume: decimal.Zero,
		GeneratedAt: time.Now().UTC(),
	}
	for _, u := range r.users {
		stats.TotalUsers++
		if u.Role == model.RoleTasker && u.Status == model.UserActive {
			stats.ActiveTaskers++
		}
		if u.Status == model.UserSuspended {
			stats.SuspendedUsers++
		}
	}
	for _, v := range r.verifications {
		if v.Status == model.VerificationPending {
			stats.PendingVerifications++
		}
	}
	for _, d := range r.disputes {
		if d.Status == model.DisputeOpen || d.Status == model.DisputeUnderReview {
			stats.OpenDisputes++
		}
	}
	for _, t := range r.tasks {
		if t.Status == "COMPLETED" {
			stats.GrossVolume = stats.GrossVolume.Add(t.Price)
		}
	}
	return stats, nil
}

func (r *MemoryAdminRepo) Analytics(ctx context.Context, start, end time.Time) (*model.AnalyticsReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := &model.AnalyticsReport{
		StartDate:    start,
		EndDate:      end,
		GrossVolume:  decimal.Zero,
		PlatformFees: decimal.Zero,
		AvgTaskPrice: decimal.Zero,
	}
	for _, u := range r.users {
		if inRange(u.CreatedAt, start, end) {
			report.NewUsers++
		}
	}
	for _, t := range r.tasks {
		if inRange(t.CreatedAt, start, end) {
			report.TasksPosted++
		}
		if t.Status == "COMPLETED" && t.CompletedAt != nil && inRange(*t.CompletedAt, start, end) {
			report.TasksCompleted++
			report.GrossVolume = report.GrossVolume.Add(t.Price)
			report.PlatformFees = report.PlatformFees.Add(t.Fee)
		}
	}
	if report.TasksCompleted > 0 {
		report.AvgTaskPrice = report.GrossVolume.DivRound(decimal.NewFromInt(int64(report.TasksCompleted)), 2)
	}
	if report.TasksPosted > 0 {
		report.CompletionRate = float64(report.TasksCompleted) / float64(report.TasksPosted)
	}
	return report, nil
}

func (r *MemoryAdminRepo) Ping(ctx context.Context) error {
	return nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
