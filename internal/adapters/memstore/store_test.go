package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"classifieds-engine/internal/domain"
)

const fixtureYAML = `
settings:
  auto_inactive_months: 6
  highlight_options: [30, 7]
events:
  - id: 1
    title: Ярмарка выходного дня
    start_at: 2024-01-15T10:00:00Z
    status: approved
    recurrence:
      frequency: monthly
      until: 2024-06-30T00:00:00Z
listings:
  - id: 10
    title: Диван
    status: active
    created_at: 2024-02-01T00:00:00Z
    featured: true
    featured_until: 2024-03-01T00:00:00Z
    created_by: 7
`

func TestParseFixture(t *testing.T) {
	fx, err := ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	store := New(fx)
	ctx := context.Background()

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if settings.AutoInactiveMonths != 6 || len(settings.HighlightOptions) != 2 || settings.HighlightOptions[0] != 7 {
		t.Fatalf("неожиданные настройки: %+v", settings)
	}

	ev, err := store.GetEvent(ctx, 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ev.Recurrence == nil || ev.Recurrence.Frequency != domain.FrequencyMonthly || ev.Recurrence.Until == nil {
		t.Fatalf("правило повторения не разобрано: %+v", ev.Recurrence)
	}
	if !ev.StartAt.Equal(time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("неожиданное начало: %v", ev.StartAt)
	}

	l, err := store.FindListing(ctx, 10)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !l.Featured || l.FeaturedUntil == nil || l.CreatedBy != 7 {
		t.Fatalf("объявление разобрано неверно: %+v", l)
	}
}

func TestParseFixtureRejectsUnknownStatus(t *testing.T) {
	_, err := ParseFixture([]byte("listings:\n  - id: 1\n    status: archived\n"))
	if err == nil {
		t.Fatalf("ожидали ошибку для неизвестного статуса")
	}
}

func TestUpdateListingAppliesPatch(t *testing.T) {
	until := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := New(Fixture{Listings: []domain.Listing{{ID: 1, Status: domain.ListingStatusActive, Featured: true, FeaturedUntil: &until}}})
	off := false
	got, err := store.UpdateListing(context.Background(), 1, domain.ListingPatch{Featured: &off, SetFeaturedUntil: true})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got.Featured || got.FeaturedUntil != nil || got.Status != domain.ListingStatusActive {
		t.Fatalf("патч применён неверно: %+v", got)
	}
	if _, err := store.UpdateListing(context.Background(), 2, domain.ListingPatch{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ожидали ErrNotFound, получили %v", err)
	}
}

func TestCanceledContextIsStoreUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Fixture{}).ListListings(ctx); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("ожидали ErrStoreUnavailable, получили %v", err)
	}
}

func TestCreateEventAssignsID(t *testing.T) {
	store := New(Fixture{Events: []domain.Event{{ID: 5, Title: "Старое", Status: domain.EventStatusApproved}}})
	ev, err := store.CreateEvent(context.Background(), domain.Event{Title: "Новое", Status: domain.EventStatusPending})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if ev.ID != 6 {
		t.Fatalf("ожидали ID 6, получили %d", ev.ID)
	}
	events, _ := store.ListEvents(context.Background())
	if len(events) != 2 || events[1].Title != "Новое" {
		t.Fatalf("событие не сохранено: %+v", events)
	}
}
