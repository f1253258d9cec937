package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const snapshotKeyPrefix = "ticket:snapshot:"

// RedisSnapshotCache stores JSON-encoded ticket snapshots in Redis
// with a TTL bounding worst-case staleness.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotCache wraps a redis client.
func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSnapshotCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot when present.
func (c *RedisSnapshotCache) Get(ctx context.Context, ticketID string) (domain.Ticket, bool, error) {
	raw, err := c.client.Get(ctx, snapshotKeyPrefix+ticketID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Ticket{}, false, nil
		}
		return domain.Ticket{}, false, err
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return domain.Ticket{}, false, err
	}
	return ticket, true, nil
}

// Set stores the snapshot.
func (c *RedisSnapshotCache) Set(ctx context.Context, ticket domain.Ticket) error {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKeyPrefix+ticket.ID, raw, c.ttl).Err()
}

// Invalidate drops the cached snapshot for a ticket.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, ticketID string) error {
	return c.client.Del(ctx, snapshotKeyPrefix+ticketID).Err()
}
