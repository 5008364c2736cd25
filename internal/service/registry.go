package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/logger"
	"github.com/taskhive/taskhive/internal/repository"
)

// Registry is the explicitly constructed service table: everything the
// handlers need is built once here and passed by reference. No hidden
// globals, no lazy init.
type Registry struct {
	Cfg    *config.Config
	DB     *sqlx.DB
	Redis  *repository.RedisClient
	Admin  *AdminService
	Audit  *AuditService
	Stream *EventStream

	cleanupStop chan struct{}
}

func NewRegistry(cfg *config.Config) (*Registry, error) {
	reg := &Registry{Cfg: cfg, cleanupStop: make(chan struct{})}

	// Persistence fallback chain: Postgres > Redis (audit only) > memory.
	var adminRepo AdminRepo
	var auditRepo AuditRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to connect to postgres, falling back to memory stores", "error", err)
		} else {
			logger.Info("connected to postgres")
			reg.DB = db
			adminRepo = repository.NewPostgresAdminRepo(db)
			auditRepo = repository.NewPostgresAuditRepo(db)
		}
	}
	if auditRepo == nil && cfg.Redis.Addr != "" {
		rc, err := repository.NewRedisClient(cfg)
		if err != nil {
			logger.Error("failed to connect to redis, audit history will be memory-only", "error", err)
		} else {
			logger.Info("connected to redis")
			reg.Redis = rc
			auditRepo = repository.NewRedisAuditRepo(rc, cfg.Redis.AuditListKey, cfg.Redis.AuditListMax)
		}
	}
	if adminRepo == nil {
		mem := repository.NewMemoryAdminRepo()
		mem.SeedDemoData()
		adminRepo = mem
	}

	reg.Stream = NewEventStream()

	audit, err := NewAuditService(cfg.Audit.LogDir, cfg.Audit.BufferSize, auditRepo, reg.Stream)
	if err != nil {
		return nil, err
	}
	reg.Audit = audit
	reg.Admin = NewAdminService(adminRepo)

	if pg, ok := auditRepo.(*repository.PostgresAuditRepo); ok {
		go reg.cleanupLoop(pg)
	}

	return reg, nil
}

// cleanupLoop prunes expired audit rows on the configured interval.
func (r *Registry) cleanupLoop(repo *repository.PostgresAuditRepo) {
	interval := time.Duration(r.Cfg.Database.CleanupIntervalMin) * time.Minute
	if interval <= 0 {
		return
	}
	retention := time.Duration(r.Cfg.Database.AuditRetentionDays) * 24 * time.Hour

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := repo.Cleanup(context.Background(), retention); err != nil {
				logger.Error("audit cleanup failed", "error", err)
			}
		case <-r.cleanupStop:
			return
		}
	}
}

// HealthCheck probes each wired component and rolls the results up into a
// single status.
func (r *Registry) HealthCheck(ctx context.Context) *model.HealthReport {
	report := &model.HealthReport{
		Status:     "ok",
		Components: make(map[string]model.ComponentHealth),
		CheckedAt:  time.Now().UTC(),
	}

	probe := func(name string, fn func(context.Context) error) {
		start := time.Now()
		err := fn(ctx)
		health := model.ComponentHealth{
			Status:  "ok",
			Latency: time.Since(start).Milliseconds(),
		}
		if err != nil {
			health.Status = "down"
			health.Detail = err.Error()
			report.Status = "degraded"
		}
		report.Components[name] = health
	}

	probe("admin_store", r.Admin.Ping)
	if r.Redis != nil {
		probe("redis", func(ctx context.Context) error {
			return r.Redis.Client.Ping(ctx).Err()
		})
	}

	depth := r.Audit.QueueDepth()
	pipeline := model.ComponentHealth{Status: "ok"}
	if depth > r.Cfg.Audit.BufferSize*9/10 {
		pipeline.Status = "saturated"
		report.Status = "degraded"
	}
	report.Components["audit_pipeline"] = pipeline

	return report
}

func (r *Registry) Close() {
	close(r.cleanupStop)
	r.Stream.Close()
	r.Audit.Close()
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if r.DB != nil {
		_ = r.DB.Close()
	}
}
