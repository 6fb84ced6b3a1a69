package queue

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"classifieds-engine/internal/domain"
)

func TestRedisNoticeQueuePublish(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR не задан, пропускаем интеграционный тест")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	key := "test:notices:" + t.Name()
	defer client.Del(ctx, key)

	q := NewRedisNoticeQueue(client, key)
	notice := domain.ListingNotice{
		RunID:      "run-1",
		ListingID:  7,
		OwnerID:    42,
		Kind:       domain.ListingNoticeInactivated,
		OccurredAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := q.Publish(ctx, notice); err != nil {
		t.Fatalf("publish: %v", err)
	}

	raw, err := client.RPop(ctx, key).Result()
	if err != nil {
		t.Fatalf("rpop: %v", err)
	}
	var got domain.ListingNotice
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ListingID != 7 || got.Kind != domain.ListingNoticeInactivated || !got.OccurredAt.Equal(notice.OccurredAt) {
		t.Fatalf("неожиданное уведомление: %+v", got)
	}
}
