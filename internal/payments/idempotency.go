package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	claimKeyPrefix = "portal:payments:event:" // portal:payments:event:{event_id}
	ClaimTTL       = 72 * time.Hour
)

// Claims records which webhook deliveries were already processed.
type Claims interface {
	// Claim returns false when eventID was claimed before.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claim so a retried delivery is processed again.
	Release(ctx context.Context, eventID string) error
}

type RedisClaims struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClaims(client *redis.Client) *RedisClaims {
	return &RedisClaims{client: client, ttl: ClaimTTL}
}

func (r *RedisClaims) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, claimKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim event: %w", err)
	}
	return ok, nil
}

func (r *RedisClaims) Release(ctx context.Context, eventID string) error {
	return r.client.Del(ctx, claimKeyPrefix+eventID).Err()
}

// MemoryClaims is the demo-mode Claims. Entries never expire.
type MemoryClaims struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryClaims() *MemoryClaims {
	return &MemoryClaims{seen: make(map[string]struct{})}
}

func (m *MemoryClaims) Claim(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[eventID]; ok {
		return false, nil
	}
	m.seen[eventID] = struct{}{}
	return true, nil
}

func (m *MemoryClaims) Release(_ context.Context, eventID string) error {
	m.mu.Lock()
	delete(m.seen, eventID)
	m.mu.Unlock()
	return nil
}
