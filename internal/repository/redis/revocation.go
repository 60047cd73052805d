package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
)

const keyPrefix = "revoked_token:"

// RevocationLedger implements repository.RevocationLedger on Redis. Each
// entry carries a TTL equal to the token's remaining lifetime, so Redis
// purges it once the token would have expired anyway.
type RevocationLedger struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationLedger creates a Redis-backed revocation ledger.
func NewRevocationLedger(client *redis.Client) *RevocationLedger {
	return &RevocationLedger{client: client, now: time.Now}
}

// key hashes the raw token so keys stay short and tokens do not appear in
// KEYS output.
func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Revoke records t. Revoking an already revoked or already expired token
// succeeds without changing anything.
func (l *RevocationLedger) Revoke(ctx context.Context, t *domain.RevokedToken) error {
	now := l.now()
	if t.Expired(now) {
		return nil
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC()
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal revoked token: %w", err)
	}

	// SETNX keeps the first record and its TTL on repeated logouts.
	if err := l.client.SetNX(ctx, key(t.Token), data, t.ExpiresAt.Sub(now)).Err(); err != nil {
		return fmt.Errorf("redis setnx revoked token: %w", err)
	}
	return nil
}

// IsRevoked reports whether token has a live ledger entry.
func (l *RevocationLedger) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.client.Exists(ctx, key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked token: %w", err)
	}
	return n > 0, nil
}

// Get returns the ledger entry for token, or nil when there is none.
func (l *RevocationLedger) Get(ctx context.Context, token string) (*domain.RevokedToken, error) {
	data, err := l.client.Get(ctx, key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get revoked token: %w", err)
	}

	var t domain.RevokedToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal revoked token: %w", err)
	}
	return &t, nil
}

// Ping checks connectivity for readiness probes.
func (l *RevocationLedger) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
