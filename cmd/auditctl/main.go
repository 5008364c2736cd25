// auditctl prints recent audit entries from the configured store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/repository"
)

func main() {
	var (
		limit  = flag.Int("limit", 50, "max entries to print")
		userID = flag.String("user", "", "filter by acting user id")
		since  = flag.Duration("since", 0, "only entries newer than this (e.g. 24h)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	repo, err := openAuditRepo(cfg)
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}

	var from *time.Time
	if *since > 0 {
		t := time.Now().UTC().Add(-*since)
		from = &t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := repo.List(ctx, *userID, *limit, from, nil)
	if err != nil {
		log.Fatalf("Failed to list audit entries: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			log.Fatalf("Failed to encode entry: %v", err)
		}
	}
}

type auditLister interface {
	List(ctx context.Context, userID string, limit int, from, to *time.Time) ([]*model.AuditEntry, error)
}

func openAuditRepo(cfg *config.Config) (auditLister, error) {
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresAuditRepo(db), nil
	}
	if cfg.Redis.Addr != "" {
		rc, err := repository.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisAuditRepo(rc, cfg.Redis.AuditListKey, cfg.Redis.AuditListMax), nil
	}
	return nil, fmt.Errorf("no audit store configured (set database.dsn or redis.addr)")
}
