package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"classifieds-engine/internal/adapters/memstore"
	"classifieds-engine/internal/adapters/repo"
	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/cache"
	"classifieds-engine/internal/infra/config"
	"classifieds-engine/internal/infra/db"
	"classifieds-engine/internal/infra/queue"
	"classifieds-engine/internal/usecase/lifecycle"
)

// Stores собирает реализации репозиториев выбранного драйвера.
type Stores struct {
	Events   domain.EventRepo
	Listings domain.ListingRepo
	Settings domain.SettingsRepo
}

// OpenStores открывает хранилище по STORE_DRIVER. close освобождает ресурсы.
func OpenStores(cfg config.AppConfig, logger zerolog.Logger) (Stores, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		store, err := memstore.Load(cfg.Store.Fixture)
		if err != nil {
			return Stores{}, nil, err
		}
		logger.Warn().Str("fixture", cfg.Store.Fixture).Msg("bootstrap: используется хранилище в памяти")
		return Stores{Events: store, Listings: store, Settings: store}, func() {}, nil
	case "postgres", "":
		pool, err := db.Connect(cfg.PGDSN, int32(cfg.Sweep.Workers+4))
		if err != nil {
			return Stores{}, nil, fmt.Errorf("подключение к БД: %w", err)
		}
		pg := repo.NewPostgres(pool)
		return Stores{Events: pg, Listings: pg, Settings: pg}, pool.Close, nil
	default:
		return Stores{}, nil, fmt.Errorf("неизвестный STORE_DRIVER %q", cfg.Store.Driver)
	}
}

// OpenRedis подключается к Redis, если задан REDIS_ADDR. Без адреса возвращает nil.
func OpenRedis(cfg config.AppConfig) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("подключение к redis: %w", err)
	}
	return client, nil
}

// NewSweeper собирает проход с блокировкой и уведомлениями, если доступен Redis.
func NewSweeper(cfg config.AppConfig, stores Stores, client *redis.Client, logger zerolog.Logger) *lifecycle.Sweeper {
	opts := []lifecycle.Option{lifecycle.WithWorkers(cfg.Sweep.Workers)}
	if client != nil {
		opts = append(opts,
			lifecycle.WithLocker(cache.NewRedisLocker(client, logger), cfg.Sweep.LockTTL),
			lifecycle.WithNotifier(queue.NewRedisNoticeQueue(client, cfg.Queues.Notices)),
		)
	}
	return lifecycle.NewSweeper(stores.Listings, stores.Settings, logger, opts...)
}
