package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/kartvelo/kartvelo-backend/pkg/redis"
)

// IdempotencyGuard deduplicates webhook deliveries. The key is a digest of
// the raw payload, so the same delivery replayed by the gateway is detected
// regardless of header jitter.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

// NewIdempotencyGuard builds the guard over a namespaced redis store.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// PayloadDigest returns the dedupe key for a raw webhook body.
func PayloadDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// CheckAndMark marks the digest as seen and reports whether it already was.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, digest string) (bool, error) {
	if digest == "" {
		return false, errors.New("digest is required")
	}
	key := g.store.IdempotencyKey(g.scope, digest)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete unmarks the digest so the gateway's redelivery is processed again.
func (g *IdempotencyGuard) Delete(ctx context.Context, digest string) error {
	if digest == "" {
		return errors.New("digest is required")
	}
	key := g.store.IdempotencyKey(g.scope, digest)
	return g.store.Del(ctx, key)
}
