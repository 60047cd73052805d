package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
)

func setupTestRedis(t *testing.T) (*RevocationLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRevocationLedger(client), mr
}

func sampleRevoked(ttl time.Duration) *domain.RevokedToken {
	return &domain.RevokedToken{
		Token:     "header.payload.signature",
		UserID:    "user-001",
		ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second),
	}
}

func TestRevocationLedger_RevokeAndLookup(t *testing.T) {
	ledger, mr := setupTestRedis(t)
	ctx := context.Background()
	rt := sampleRevoked(time.Hour)

	revoked, err := ledger.IsRevoked(ctx, rt.Token)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, ledger.Revoke(ctx, rt))

	revoked, err = ledger.IsRevoked(ctx, rt.Token)
	require.NoError(t, err)
	assert.True(t, revoked)

	k := key(rt.Token)
	assert.True(t, mr.Exists(k))
	assert.Contains(t, k, keyPrefix)
	assert.NotContains(t, k, rt.Token)
	ttl := mr.TTL(k)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 2)
}

func TestRevocationLedger_StoredRecord(t *testing.T) {
	ledger, _ := setupTestRedis(t)
	ctx := context.Background()
	rt := sampleRevoked(time.Hour)

	require.NoError(t, ledger.Revoke(ctx, rt))

	got, err := ledger.Get(ctx, rt.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rt.Token, got.Token)
	assert.Equal(t, "user-001", got.UserID)
	assert.True(t, rt.ExpiresAt.Equal(got.ExpiresAt))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRevocationLedger_Idempotent(t *testing.T) {
	ledger, mr := setupTestRedis(t)
	ctx := context.Background()
	rt := sampleRevoked(time.Hour)

	require.NoError(t, ledger.Revoke(ctx, rt))
	first, err := ledger.Get(ctx, rt.Token)
	require.NoError(t, err)

	mr.FastForward(10 * time.Minute)
	again := *rt
	again.CreatedAt = time.Time{}
	require.NoError(t, ledger.Revoke(ctx, &again))

	second, err := ledger.Get(ctx, rt.Token)
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "first record is kept")
	assert.Len(t, mr.Keys(), 1)

	revoked, err := ledger.IsRevoked(ctx, rt.Token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationLedger_EntryExpiresWithToken(t *testing.T) {
	ledger, mr := setupTestRedis(t)
	ctx := context.Background()
	rt := sampleRevoked(time.Hour)

	require.NoError(t, ledger.Revoke(ctx, rt))
	mr.FastForward(time.Hour + time.Second)

	revoked, err := ledger.IsRevoked(ctx, rt.Token)
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, mr.Keys())
}

func TestRevocationLedger_AlreadyExpiredIsNoop(t *testing.T) {
	ledger, mr := setupTestRedis(t)
	rt := sampleRevoked(-time.Minute)

	require.NoError(t, ledger.Revoke(context.Background(), rt))
	assert.Empty(t, mr.Keys())
}

func TestRevocationLedger_GetMissing(t *testing.T) {
	ledger, _ := setupTestRedis(t)

	got, err := ledger.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRevocationLedger_RedisDown(t *testing.T) {
	ledger, mr := setupTestRedis(t)
	mr.Close()
	ctx := context.Background()

	_, err := ledger.IsRevoked(ctx, "tok")
	assert.Error(t, err)
	assert.Error(t, ledger.Revoke(ctx, sampleRevoked(time.Hour)))
	assert.Error(t, ledger.Ping(ctx))
}
