package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/schoolink-dev/schoolink/internal/domain"
)

// RedisNotifier publishes message events to a per-tenant Redis channel.
// Real-time delivery instances subscribe to schoolink:{tenant}:message_events
// and push to their connected clients.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(opts *redis.Options) *RedisNotifier {
	return &RedisNotifier{rdb: redis.NewClient(opts)}
}

// Close closes the Redis connection. Implements io.Closer.
func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.rdb.Ping(ctx).Err()
}

func channelName(tenantId domain.TenantId) string {
	return fmt.Sprintf("schoolink:%s:message_events", tenantId)
}

func (n *RedisNotifier) MessageCreated(ctx context.Context, event MessageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	if err := n.rdb.Publish(ctx, channelName(event.TenantId), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish message event: %w", err)
	}
	return nil
}
