package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"classifieds-engine/internal/adapters/memstore"
	"classifieds-engine/internal/domain"
)

var (
	admin  = domain.Identity{UserID: 1, Role: domain.UserRoleAdmin}
	member = domain.Identity{UserID: 2, Role: domain.UserRoleMember}
)

func newService() (*Service, *memstore.Store) {
	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := memstore.New(memstore.Fixture{
		Events: []domain.Event{
			{ID: 1, Title: "Ярмарка", StartAt: created, Status: domain.EventStatusPending},
			{ID: 2, Title: "Концерт", StartAt: created, Status: domain.EventStatusApproved},
		},
		Listings: []domain.Listing{
			{ID: 10, Status: domain.ListingStatusPending, CreatedAt: created, CreatedBy: 5},
			{ID: 11, Status: domain.ListingStatusInactive, CreatedAt: created, CreatedBy: 5},
		},
	})
	return NewService(store, store, store, zerolog.Nop()), store
}

func TestApproveListing(t *testing.T) {
	service, _ := newService()
	got, err := service.ApproveListing(context.Background(), admin, 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Status != domain.ListingStatusActive {
		t.Fatalf("ожидали active, получили %v", got.Status)
	}
	if _, err := service.RejectListing(context.Background(), admin, 10); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("повторная модерация: ожидали ErrInvalidTransition, получили %v", err)
	}
	if _, err := service.ApproveListing(context.Background(), admin, 11); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("неактивное объявление не реактивируется модерацией: %v", err)
	}
}

func TestModerationRequiresAdmin(t *testing.T) {
	service, _ := newService()
	if _, err := service.ApproveListing(context.Background(), member, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	if _, err := service.ApproveEvent(context.Background(), member, 1); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
	if _, err := service.UpdateSettings(context.Background(), member, domain.DefaultSettings()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("ожидали ErrForbidden, получили %v", err)
	}
}

func TestModerateEvent(t *testing.T) {
	service, _ := newService()
	got, err := service.RejectEvent(context.Background(), admin, 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Status != domain.EventStatusRejected {
		t.Fatalf("ожидали rejected, получили %v", got.Status)
	}
	if _, err := service.ApproveEvent(context.Background(), admin, 2); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ожидали ErrInvalidTransition, получили %v", err)
	}
	if _, err := service.ApproveEvent(context.Background(), admin, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	service, store := newService()
	got, err := service.UpdateSettings(context.Background(), admin, domain.Settings{AutoInactiveMonths: 2, HighlightOptions: []int{14, 3}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.AutoInactiveMonths != 2 || got.HighlightOptions[0] != 3 {
		t.Fatalf("неожиданные настройки: %+v", got)
	}
	saved, _ := store.GetSettings(context.Background())
	if saved.AutoInactiveMonths != 2 {
		t.Fatalf("настройки не сохранены: %+v", saved)
	}
	if _, err := service.UpdateSettings(context.Background(), admin, domain.Settings{HighlightOptions: []int{0}}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ожидали ErrValidation, получили %v", err)
	}
}
