package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR не задан, пропускаем интеграционный тест")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLockerExclusive(t *testing.T) {
	client := newTestClient(t)
	locker := NewRedisLocker(client, zerolog.Nop())
	ctx := context.Background()
	key := "test:" + t.Name()

	release, ok, err := locker.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("ожидали захват блокировки: ok=%v err=%v", ok, err)
	}

	_, ok, err = locker.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if ok {
		t.Fatalf("повторный захват не должен проходить")
	}

	release()
	release2, ok, err := locker.Acquire(ctx, key, time.Minute)
	if err != nil || !ok {
		t.Fatalf("после release блокировка должна быть свободна: ok=%v err=%v", ok, err)
	}
	release2()
}

func TestRedisLockerRejectsZeroTTL(t *testing.T) {
	locker := NewRedisLocker(nil, zerolog.Nop())
	if _, _, err := locker.Acquire(context.Background(), "k", 0); err == nil {
		t.Fatalf("ожидали ошибку для нулевого TTL")
	}
}
