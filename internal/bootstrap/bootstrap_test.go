package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"classifieds-engine/internal/infra/config"
)

func TestOpenStoresMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	fixture := []byte(`
listings:
  - id: 1
    title: Велосипед
    status: active
    created_at: 2020-01-01T00:00:00Z
    created_by: 3
`)
	if err := os.WriteFile(path, fixture, 0o600); err != nil {
		t.Fatalf("запись фикстуры: %v", err)
	}
	var cfg config.AppConfig
	cfg.Store.Driver = "memory"
	cfg.Store.Fixture = path
	cfg.Sweep.Workers = 2

	stores, closeFn, err := OpenStores(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	defer closeFn()

	report, err := NewSweeper(cfg, stores, nil, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if report.Scanned != 1 || report.Inactivated != 1 {
		t.Fatalf("неожиданный отчёт: %+v", report)
	}
}

func TestOpenStoresUnknownDriver(t *testing.T) {
	var cfg config.AppConfig
	cfg.Store.Driver = "mongo"
	if _, _, err := OpenStores(cfg, zerolog.Nop()); err == nil {
		t.Fatalf("ожидали ошибку для неизвестного драйвера")
	}
}

func TestOpenRedisDisabled(t *testing.T) {
	client, err := OpenRedis(config.AppConfig{})
	if err != nil || client != nil {
		t.Fatalf("без адреса redis не должен подключаться: %v", err)
	}
}
