package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/model"
)

func newTestAuditRepo(t *testing.T, listMax int) *RedisAuditRepo {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { client.Close() })
	return NewRedisAuditRepo(client, "audit_test", listMax)
}

func auditEntry(id, userID string, at time.Time) *model.AuditEntry {
	return &model.AuditEntry{
		ID:        id,
		UserID:    userID,
		Action:    model.AuditActionUpdate,
		Method:    "POST",
		Path:      "/admin/v1/users/u-1/moderate",
		CreatedAt: at,
	}
}

func TestRedisAuditInsertAndList(t *testing.T) {
	repo := newTestAuditRepo(t, 100)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Insert(ctx, auditEntry("e-1", "admin-1", now.Add(-2*time.Minute))))
	require.NoError(t, repo.Insert(ctx, auditEntry("e-2", "admin-2", now.Add(-time.Minute))))
	require.NoError(t, repo.Insert(ctx, auditEntry("e-3", "admin-1", now)))

	all, err := repo.List(ctx, "", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// LPush order: newest first.
	assert.Equal(t, "e-3", all[0].ID)
	assert.Equal(t, "e-1", all[2].ID)
}

func TestRedisAuditListFiltersByUser(t *testing.T) {
	repo := newTestAuditRepo(t, 100)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, auditEntry("e-1", "admin-1", now)))
	require.NoError(t, repo.Insert(ctx, auditEntry("e-2", "admin-2", now)))

	got, err := repo.List(ctx, "admin-2", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e-2", got[0].ID)
}

func TestRedisAuditListFiltersByTimeRange(t *testing.T) {
	repo := newTestAuditRepo(t, 100)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Insert(ctx, auditEntry("old", "admin-1", now.Add(-time.Hour))))
	require.NoError(t, repo.Insert(ctx, auditEntry("recent", "admin-1", now)))

	from := now.Add(-10 * time.Minute)
	got, err := repo.List(ctx, "", 10, &from, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)

	to := now.Add(-30 * time.Minute)
	got, err = repo.List(ctx, "", 10, nil, &to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].ID)
}

func TestRedisAuditListCapTrimsOldest(t *testing.T) {
	repo := newTestAuditRepo(t, 5)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 8; i++ {
		require.NoError(t, repo.Insert(ctx, auditEntry("e-"+strconv.Itoa(i), "admin-1", now)))
	}

	got, err := repo.List(ctx, "", 100, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "e-7", got[0].ID)
	assert.Equal(t, "e-3", got[4].ID)
}

func TestRedisAuditSkipsCorruptPayloads(t *testing.T) {
	mr := miniredis.RunT(t)
	client := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { client.Close() })
	repo := NewRedisAuditRepo(client, "audit_test", 100)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, auditEntry("good", "admin-1", time.Now().UTC())))
	_, err := mr.Lpush("audit_test", "{not json")
	require.NoError(t, err)

	got, err := repo.List(ctx, "", 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
}
