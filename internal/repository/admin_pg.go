package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/taskhive/taskhive/internal/model"
)

var ErrNotFound = errors.New("record not found")

type PostgresAdminRepo struct {
	db *sqlx.DB
}

func NewPostgresAdminRepo(db *sqlx.DB) *PostgresAdminRepo {
	repo := &PostgresAdminRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

type userDB struct {
	ID              string    `db:"id"`
	Email           string    `db:"email"`
	DisplayName     string    `db:"display_name"`
	Role            string    `db:"role"`
	Status          string    `db:"status"`
	Verified        bool      `db:"verified"`
	TasksPosted     int       `db:"tasks_posted"`
	TasksCompleted  int       `db:"tasks_completed"`
	SuspendedReason string    `db:"suspended_reason"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (u *userDB) toDomain() *model.User {
	return &model.User{
		ID:              u.ID,
		Email:           u.Email,
		DisplayName:     u.DisplayName,
		Role:            model.UserRole(u.Role),
		Status:          model.UserStatus(u.Status),
		Verified:        u.Verified,
		TasksPosted:     u.TasksPosted,
		TasksCompleted:  u.TasksCompleted,
		SuspendedReason: u.SuspendedReason,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

const userColumns = `id, email, display_name, role, status, verified, tasks_posted, tasks_completed, suspended_reason, created_at, updated_at`

func (r *PostgresAdminRepo) ListUsers(ctx context.Context, filter model.UserFilter, limit, offset int) ([]*model.User, int64, error) {
	clauses := []string{}
	args := []interface{}{}
	idx := 1

	if filter.Role != nil {
		clauses = append(clauses, fmt.Sprintf("role = $%d", idx))
		args = append(args, string(*filter.Role))
		idx++
	}
	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", idx))
		args = append(args, string(*filter.Status))
		idx++
	}
	if filter.Verified != nil {
		clauses = append(clauses, fmt.Sprintf("verified = $%d", idx))
		args = append(args, *filter.Verified)
		idx++
	}
	if filter.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(email ILIKE $%d OR display_name ILIKE $%d)", idx, idx))
		args = append(args, "%"+filter.Search+"%")
		idx++
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"+where, args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + userColumns + " FROM users" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*model.User, 0, limit)
	for rows.Next() {
		var u userDB
		if err := rows.StructScan(&u); err != nil {
			return nil, 0, err
		}
		users = append(users, u.toDomain())
	}
	return users, total, rows.Err()
}

func (r *PostgresAdminRepo) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u userDB
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = $1 LIMIT 1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u.toDomain(), nil
}

func (r *PostgresAdminRepo) UpdateUserStatus(ctx context.Context, id string, status model.UserStatus, reason string) (*model.User, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = $1, suspended_reason = $2, updated_at = $3 WHERE id = $4
	`, string(status), reason, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *PostgresAdminRepo) SetUserVerified(ctx context.Context, id string, verified bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET verified = $1, updated_at = $2 WHERE id = $3
	`, verified, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

type verificationDB struct {
	ID           string       `db:"id"`
	UserID       string       `db:"user_id"`
	DocumentType string       `db:"document_type"`
	Status       string       `db:"status"`
	Notes        string       `db:"notes"`
	SubmittedAt  time.Time    `db:"submitted_at"`
	ProcessedAt  sql.NullTime `db:"processed_at"`
	ProcessedBy  string       `db:"processed_by"`
}

func (v *verificationDB) toDomain() *model.Verification {
	out := &model.Verification{
		ID:           v.ID,
		UserID:       v.UserID,
		DocumentType: v.DocumentType,
		Status:       model.VerificationStatus(v.Status),
		Notes:        v.Notes,
		SubmittedAt:  v.SubmittedAt,
		ProcessedBy:  v.ProcessedBy,
	}
	if v.ProcessedAt.Valid {
		t := v.ProcessedAt.Time
		out.ProcessedAt = &t
	}
	return out
}

const verificationColumns = `id, user_id, document_type, status, notes, submitted_at, processed_at, processed_by`

func (r *PostgresAdminRepo) ListPendingVerifications(ctx context.Context, limit, offset int) ([]*model.Verification, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM verifications WHERE status = $1", string(model.VerificationPending)); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryxContext(ctx,
		"SELECT "+verificationColumns+" FROM verifications WHERE status = $1 ORDER BY submitted_at ASC LIMIT $2 OFFSET $3",
		string(model.VerificationPending), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*model.Verification, 0, limit)
	for rows.Next() {
		var v verificationDB
		if err := rows.StructScan(&v); err != nil {
			return nil, 0, err
		}
		items = append(items, v.toDomain())
	}
	return items, total, rows.Err()
}

func (r *PostgresAdminRepo) GetVerification(ctx context.Context, id string) (*model.Verification, error) {
	var v verificationDB
	err := r.db.GetContext(ctx, &v, "SELECT "+verificationColumns+" FROM verifications WHERE id = $1 LIMIT 1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v.toDomain(), nil
}

func (r *PostgresAdminRepo) UpdateVerification(ctx context.Context, v *model.Verification) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE verifications SET status = $1, notes = $2, processed_at = $3, processed_by = $4 WHERE id = $5
	`, string(v.Status), v.Notes, v.ProcessedAt, v.ProcessedBy, v.ID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

type disputeDB struct {
	ID          string          `db:"id"`
	TaskID      string          `db:"task_id"`
	RaisedBy    string          `db:"raised_by"`
	AgainstUser string          `db:"against_user"`
	Status      string          `db:"status"`
	Priority    string          `db:"priority"`
	Reason      string          `db:"reason"`
	Amount      decimal.Decimal `db:"amount"`
	CreatedAt   time.Time       `db:"created_at"`
}

func (d *disputeDB) toDomain() *model.Dispute {
	return &model.Dispute{
		ID:          d.ID,
		TaskID:      d.TaskID,
		RaisedBy:    d.RaisedBy,
		AgainstUser: d.AgainstUser,
		Status:      model.DisputeStatus(d.Status),
		Priority:    model.DisputePriority(d.Priority),
		Reason:      d.Reason,
		Amount:      d.Amount,
		CreatedAt:   d.CreatedAt,
	}
}

func (r *PostgresAdminRepo) ListDisputes(ctx context.Context, filter model.DisputeFilter, limit, offset int) ([]*model.Dispute, int64, error) {
	clauses := []string{}
	args := []interface{}{}
	idx := 1

	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", idx))
		args = append(args, string(*filter.Status))
		idx++
	}
	if filter.Priority != nil {
		clauses = append(clauses, fmt.Sprintf("priority = $%d", idx))
		args = append(args, string(*filter.Priority))
		idx++
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM disputes"+where, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, task_id, raised_by, against_user, status, priority, reason, amount, created_at FROM disputes` +
		where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]*model.Dispute, 0, limit)
	for rows.Next() {
		var d disputeDB
		if err := rows.StructScan(&d); err != nil {
			return nil, 0, err
		}
		items = append(items, d.toDomain())
	}
	return items, total, rows.Err()
}

func (r *PostgresAdminRepo) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{GeneratedAt: time.Now().UTC()}

	row := r.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE role = 'TASKER' AND status = 'ACTIVE'),
			(SELECT COUNT(*) FROM users WHERE status = 'SUSPENDED'),
			(SELECT COUNT(*) FROM verifications WHERE status = 'PENDING'),
			(SELECT COUNT(*) FROM disputes WHERE status IN ('OPEN','UNDER_REVIEW')),
			(SELECT COALESCE(SUM(price), 0) FROM tasks WHERE status = 'COMPLETED')
	`)
	if err := row.Scan(
		&stats.TotalUsers,
		&stats.ActiveTaskers,
		&stats.SuspendedUsers,
		&stats.PendingVerifications,
		&stats.OpenDisputes,
		&stats.GrossVolume,
	); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresAdminRepo) Analytics(ctx context.Context, start, end time.Time) (*model.AnalyticsReport, error) {
	report := &model.AnalyticsReport{StartDate: start, EndDate: end}

	row := r.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE created_at BETWEEN $1 AND $2),
			(SELECT COUNT(*) FROM tasks WHERE created_at BETWEEN $1 AND $2),
			(SELECT COUNT(*) FROM tasks WHERE status = 'COMPLETED' AND completed_at BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(price), 0) FROM tasks WHERE status = 'COMPLETED' AND completed_at BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(fee), 0) FROM tasks WHERE status = 'COMPLETED' AND completed_at BETWEEN $1 AND $2)
	`, start, end)
	if err := row.Scan(
		&report.NewUsers,
		&report.TasksPosted,
		&report.TasksCompleted,
		&report.GrossVolume,
		&report.PlatformFees,
	); err != nil {
		return nil, err
	}

	if report.TasksCompleted > 0 {
		report.AvgTaskPrice = report.GrossVolume.DivRound(decimal.NewFromInt(int64(report.TasksCompleted)), 2)
	}
	if report.TasksPosted > 0 {
		report.CompletionRate = float64(report.TasksCompleted) / float64(report.TasksPosted)
	}
	return report, nil
}

func (r *PostgresAdminRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresAdminRepo) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'USER',
			status TEXT NOT NULL DEFAULT 'ACTIVE',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			tasks_posted INTEGER NOT NULL DEFAULT 0,
			tasks_completed INTEGER NOT NULL DEFAULT 0,
			suspended_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			notes TEXT NOT NULL DEFAULT '',
			submitted_at TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ,
			processed_by TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS disputes (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL,
			raised_by TEXT NOT NULL,
			against_user TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'OPEN',
			priority TEXT NOT NULL DEFAULT 'MEDIUM',
			reason TEXT NOT NULL DEFAULT '',
			amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			posted_by TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'OPEN',
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			fee NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_status ON users(status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_status ON verifications(status, submitted_at ASC)`,
		`CREATE INDEX IF NOT EXISTS idx_disputes_status ON disputes(status, priority)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
