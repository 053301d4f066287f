package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/fiberq/fiberq-web/internal/domain/auth"
	"github.com/fiberq/fiberq-web/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func newRecord(id string) domainauth.SessionRecord {
	now := time.Now()
	return domainauth.SessionRecord{
		ID:               id,
		UserID:           "user-123",
		Email:            "user@example.com",
		Name:             "Test User",
		AccessToken:      "raw-access",
		RefreshToken:     "raw-refresh",
		IDToken:          "raw-id",
		ExpiresAt:        now.Add(5 * time.Minute).Unix(),
		Roles:            []string{"engineer"},
		CreatedAt:        now,
		SessionExpiresAt: now.Add(30 * time.Minute),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := newRecord("test-session-1")
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.UserID, got.UserID)
	assert.Equal(t, rec.AccessToken, got.AccessToken)
	assert.Equal(t, rec.RefreshToken, got.RefreshToken)
	assert.Equal(t, rec.ExpiresAt, got.ExpiresAt)
	assert.Equal(t, rec.Roles, got.Roles)
	assert.Empty(t, got.Error)
	assert.WithinDuration(t, rec.SessionExpiresAt, got.SessionExpiresAt, time.Second)
}

func TestSessionStore_StaleAccessTokenIsKept(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := newRecord("stale")
	rec.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	rec.Error = domainauth.RefreshTokenError
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, domainauth.StateStale, got.State(time.Now()))
	assert.Equal(t, domainauth.RefreshTokenError, got.Error)
	assert.Equal(t, "raw-access", got.AccessToken)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "non-existent")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newRecord("test-session-delete")))
	_, err := store.Get(ctx, "test-session-delete")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "test-session-delete"))

	_, err = store.Get(ctx, "test-session-delete")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := newRecord("test-session-ttl")
	rec.SessionExpiresAt = time.Now().Add(100 * time.Millisecond)
	require.NoError(t, store.Save(ctx, rec))

	time.Sleep(200 * time.Millisecond)

	_, err := store.Get(ctx, "test-session-ttl")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_TTLFollowsSessionLifetime(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	rec := newRecord("ttl-check")
	require.NoError(t, store.Save(ctx, rec))

	ttl := client.TTL(ctx, defaultKeyPrefix+"ttl-check").Val()
	assert.Greater(t, ttl, 25*time.Minute)
	assert.LessOrEqual(t, ttl, 30*time.Minute)
}

func TestSessionStore_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStoreWithPrefix(client, "test-prefix:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newRecord("prefix-test")))

	exists := client.Exists(ctx, "test-prefix:prefix-test").Val()
	assert.Equal(t, int64(1), exists)

	got, err := store.Get(ctx, "prefix-test")
	require.NoError(t, err)
	assert.Equal(t, "prefix-test", got.ID)
}

func TestSessionStore_SaveValidation(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	noID := newRecord("")
	err := store.Save(ctx, noID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")

	noLifetime := newRecord("no-lifetime")
	noLifetime.SessionExpiresAt = time.Time{}
	require.Error(t, store.Save(ctx, noLifetime))

	ended := newRecord("ended")
	ended.SessionExpiresAt = time.Now().Add(-time.Hour)
	assert.ErrorIs(t, store.Save(ctx, ended), ErrExpired)
}

func TestSessionStore_GetEmptyID(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "")
	assert.Equal(t, ErrNotFound, err)
}
