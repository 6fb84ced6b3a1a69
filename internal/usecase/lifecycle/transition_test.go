package lifecycle

import (
	"errors"
	"testing"
	"time"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/usecase/recurrence"
)

var now = time.Date(2024, time.August, 20, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestTransitionAutoInactivation(t *testing.T) {
	settings := domain.Settings{AutoInactiveMonths: 4, HighlightOptions: domain.DefaultHighlightOptions()}
	tests := []struct {
		name      string
		listing   domain.Listing
		want      domain.ListingStatus
		inactived bool
	}{
		{name: "active five months old", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: recurrence.AddMonthsClamped(now, -5)}, want: domain.ListingStatusInactive, inactived: true},
		{name: "active three months old", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: recurrence.AddMonthsClamped(now, -3)}, want: domain.ListingStatusActive},
		{name: "active exactly at cutoff", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: recurrence.AddMonthsClamped(now, -4)}, want: domain.ListingStatusActive},
		{name: "pending never inactivated", listing: domain.Listing{Status: domain.ListingStatusPending, CreatedAt: recurrence.AddMonthsClamped(now, -12)}, want: domain.ListingStatusPending},
		{name: "rejected never inactivated", listing: domain.Listing{Status: domain.ListingStatusRejected, CreatedAt: recurrence.AddMonthsClamped(now, -12)}, want: domain.ListingStatusRejected},
		{name: "inactive stays inactive", listing: domain.Listing{Status: domain.ListingStatusInactive, CreatedAt: recurrence.AddMonthsClamped(now, -12)}, want: domain.ListingStatusInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.listing, now, settings)
			if got.Listing.Status != tt.want {
				t.Fatalf("статус = %v, want %v", got.Listing.Status, tt.want)
			}
			if got.Inactivated != tt.inactived {
				t.Fatalf("Inactivated = %v, want %v", got.Inactivated, tt.inactived)
			}
		})
	}
}

func TestTransitionClearsExpiredFeatureRegardlessOfStatus(t *testing.T) {
	settings := domain.DefaultSettings()
	old := recurrence.AddMonthsClamped(now, -6)
	listing := domain.Listing{ID: 1, Status: domain.ListingStatusActive, CreatedAt: old, Featured: true, FeaturedUntil: ptr(now.Add(-time.Hour))}

	got := Transition(listing, now, settings)
	if !got.FeatureCleared || !got.Inactivated {
		t.Fatalf("ожидали снятие выделения и деактивацию в одном проходе: %+v", got)
	}
	if got.Listing.Featured || got.Listing.FeaturedUntil != nil {
		t.Fatalf("выделение должно быть очищено: %+v", got.Listing)
	}

	inactive := domain.Listing{Status: domain.ListingStatusInactive, Featured: true, FeaturedUntil: ptr(now)}
	if got := Transition(inactive, now, settings); !got.FeatureCleared {
		t.Fatalf("устаревший флаг на неактивном объявлении тоже снимается")
	}
}

func TestTransitionFeatureBoundaries(t *testing.T) {
	settings := domain.DefaultSettings()
	fresh := now.AddDate(0, 0, -1)
	tests := []struct {
		name    string
		listing domain.Listing
		cleared bool
	}{
		{name: "expires exactly now", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: fresh, Featured: true, FeaturedUntil: ptr(now)}, cleared: true},
		{name: "still running", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: fresh, Featured: true, FeaturedUntil: ptr(now.Add(time.Second))}},
		{name: "flag without deadline", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: fresh, Featured: true}, cleared: true},
		{name: "not featured", listing: domain.Listing{Status: domain.ListingStatusActive, CreatedAt: fresh}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.listing, now, settings)
			if got.FeatureCleared != tt.cleared {
				t.Fatalf("FeatureCleared = %v, want %v", got.FeatureCleared, tt.cleared)
			}
			if got.Changed() != tt.cleared {
				t.Fatalf("Changed = %v, want %v", got.Changed(), tt.cleared)
			}
		})
	}
}

func TestTransitionNoOpKeepsListing(t *testing.T) {
	listing := domain.Listing{ID: 9, Title: "Велосипед", Status: domain.ListingStatusActive, CreatedAt: now.AddDate(0, -1, 0), CreatedBy: 3}
	got := Transition(listing, now, domain.DefaultSettings())
	if got.Changed() || got.Listing != listing {
		t.Fatalf("ожидали неизменное объявление, получили %+v", got)
	}
}

func TestCutoffUsesCalendarMonths(t *testing.T) {
	june30 := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	got := Cutoff(june30, domain.Settings{AutoInactiveMonths: 4})
	want := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Cutoff = %v, want %v", got, want)
	}
	if got := Cutoff(june30, domain.Settings{}); !got.Equal(want) {
		t.Fatalf("нулевые настройки должны давать 4 месяца, получили %v", got)
	}
}

func TestModeration(t *testing.T) {
	pending := domain.Listing{Status: domain.ListingStatusPending}
	approved, err := Approve(pending)
	if err != nil || approved.Status != domain.ListingStatusActive {
		t.Fatalf("Approve: %v, %v", approved.Status, err)
	}
	rejected, err := Reject(pending)
	if err != nil || rejected.Status != domain.ListingStatusRejected {
		t.Fatalf("Reject: %v, %v", rejected.Status, err)
	}
	for _, status := range []domain.ListingStatus{domain.ListingStatusActive, domain.ListingStatusRejected, domain.ListingStatusInactive, "archived"} {
		if _, err := Approve(domain.Listing{Status: status}); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("Approve из %v: ожидали ErrInvalidTransition, получили %v", status, err)
		}
	}
}
