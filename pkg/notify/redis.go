package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

const DefaultRedisQueue = "vms:notifications"

// RedisQueue pushes notifications onto a Redis list for other workers to BRPOP
type RedisQueue struct {
	client  redis.Cmdable
	key     string
	logger  *zap.Logger
	timeout time.Duration
}

// NewRedisQueue builds a notifier using LPUSH semantics
func NewRedisQueue(client redis.Cmdable, key string, logger *zap.Logger) *RedisQueue {
	if key == "" {
		key = DefaultRedisQueue
	}
	return &RedisQueue{client: client, key: key, logger: logger, timeout: 2 * time.Second}
}

func (q *RedisQueue) Notify(ctx context.Context, n model.Notification) {
	payload, err := encode(n)
	if err != nil {
		q.logger.Warn("Failed to encode notification", zap.String("kind", n.Kind), zap.Error(err))
		return
	}

	ctx, cancel := detach(ctx, q.timeout)
	defer cancel()

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.Warn("Failed to queue notification",
			zap.String("kind", n.Kind),
			zap.String("queue", q.key),
			zap.Error(err))
	}
}
