package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/metrics"
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу токена.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker реализует domain.Locker через SET NX PX.
type RedisLocker struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

var _ domain.Locker = (*RedisLocker)(nil)

// NewRedisLocker создаёт блокировку поверх клиента Redis.
func NewRedisLocker(client *redis.Client, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{client: client, prefix: "lock:", log: logger}
}

// Acquire пытается занять ключ на ttl. Занятый ключ не считается ошибкой.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if ttl <= 0 {
		return nil, false, errors.New("redis lock: ttl должен быть положительным")
	}
	token := uuid.NewString()
	fullKey := l.prefix + key

	start := time.Now()
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	metrics.ObserveNetworkRequest("redis", "lock_acquire", key, start, err)
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis lock: %w", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Исходный ctx может быть уже отменён, а ключ нужно отпустить.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		start := time.Now()
		err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
		if errors.Is(err, redis.Nil) {
			err = nil
		}
		metrics.ObserveNetworkRequest("redis", "lock_release", key, start, err)
		if err != nil {
			l.log.Warn().Err(err).Str("key", fullKey).Msg("redis lock: не удалось снять блокировку, истечёт по TTL")
		}
	}
	return release, true, nil
}
