package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// OutboxKey is the Redis list backing the notification queue.
const OutboxKey = "helpdesk:notifications:outbox"

// RedisOutbox queues notifications on a Redis list. Producers LPUSH, the
// notification worker BRPOPs, so delivery survives a process restart.
type RedisOutbox struct {
	client *redis.Client
}

// NewRedisOutbox creates the outbox sink.
func NewRedisOutbox(client *redis.Client) *RedisOutbox {
	return &RedisOutbox{client: client}
}

// Enqueue pushes the notification onto the outbox list.
func (o *RedisOutbox) Enqueue(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return o.client.LPush(ctx, OutboxKey, payload).Err()
}

// Dequeue blocks up to timeout waiting for the next notification. A nil
// result with nil error means the wait timed out.
func (o *RedisOutbox) Dequeue(ctx context.Context, timeout time.Duration) (*domain.Notification, error) {
	res, err := o.client.BRPop(ctx, timeout, OutboxKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	var n domain.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return nil, err
	}
	return &n, nil
}
