package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/metrics"
)

// RedisNoticeQueue публикует уведомления владельцам в Redis list.
type RedisNoticeQueue struct {
	client *redis.Client
	key    string
}

var _ domain.Notifier = (*RedisNoticeQueue)(nil)

// NewRedisNoticeQueue создаёт очередь по указанному ключу.
func NewRedisNoticeQueue(client *redis.Client, key string) *RedisNoticeQueue {
	return &RedisNoticeQueue{client: client, key: key}
}

// Publish кладёт уведомление в очередь.
func (q *RedisNoticeQueue) Publish(ctx context.Context, notice domain.ListingNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "notice_push", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push notice: %w", err)
	}
	return nil
}
