package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/predictarb/predictarb/internal/domain"
)

// Cooldown implements domain.CooldownGuard using Redis SETNX with a TTL.
// The key expires on its own, so no release path is needed, and the state
// is shared across replicas.
type Cooldown struct {
	rdb *redis.Client
}

// NewCooldown creates a Cooldown backed by the given Client.
func NewCooldown(c *Client) *Cooldown {
	return &Cooldown{rdb: c.rdb}
}

// Acquire sets the key if absent. It returns true when this caller won the
// window and false when the key is still cooling down.
func (cd *Cooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := cd.rdb.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire cooldown %s: %w", key, err)
	}
	return ok, nil
}

var _ domain.CooldownGuard = (*Cooldown)(nil)
