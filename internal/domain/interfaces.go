package domain

import (
	"context"
	"time"
)

// EventRepo управляет событиями.
type EventRepo interface {
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id int64) (Event, error)
	UpdateEventStatus(ctx context.Context, id int64, status EventStatus) (Event, error)
	// CreateEvent сохраняет новое событие и возвращает его с присвоенным ID.
	CreateEvent(ctx context.Context, ev Event) (Event, error)
}

// ListingRepo управляет объявлениями.
type ListingRepo interface {
	ListListings(ctx context.Context) ([]Listing, error)
	// FindListing возвращает ErrNotFound, если объявления нет.
	FindListing(ctx context.Context, id int64) (Listing, error)
	// UpdateListing записывает только заполненные поля патча и возвращает актуальную запись.
	UpdateListing(ctx context.Context, id int64, patch ListingPatch) (Listing, error)
}

// SettingsRepo хранит настройки площадки.
type SettingsRepo interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// Locker даёт взаимное исключение между процессами.
type Locker interface {
	// Acquire возвращает false без ошибки, если блокировка занята.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Clock возвращает текущее время. Нужен, чтобы тесты могли зафиксировать now.
type Clock func() time.Time
