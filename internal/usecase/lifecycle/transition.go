package lifecycle

import (
	"fmt"
	"time"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/usecase/recurrence"
)

// Outcome описывает результат применения правил жизненного цикла к объявлению.
type Outcome struct {
	Listing        domain.Listing
	FeatureCleared bool
	Inactivated    bool
}

// Changed сообщает, изменилось ли объявление.
func (o Outcome) Changed() bool {
	return o.FeatureCleared || o.Inactivated
}

// Cutoff возвращает границу автоматического снятия: now минус AutoInactiveMonths календарных месяцев.
func Cutoff(now time.Time, settings domain.Settings) time.Time {
	months := settings.Normalize().AutoInactiveMonths
	return recurrence.AddMonthsClamped(now, -months)
}

// Transition применяет временные правила к объявлению. Функция чистая: результат
// зависит только от объявления, now и настроек.
func Transition(listing domain.Listing, now time.Time, settings domain.Settings) Outcome {
	out := Outcome{Listing: listing}

	if featureExpired(listing, now) {
		out.Listing.Featured = false
		out.Listing.FeaturedUntil = nil
		out.FeatureCleared = true
	}

	switch listing.Status {
	case domain.ListingStatusActive:
		if listing.CreatedAt.Before(Cutoff(now, settings)) {
			out.Listing.Status = domain.ListingStatusInactive
			out.Inactivated = true
		}
	case domain.ListingStatusPending, domain.ListingStatusRejected, domain.ListingStatusInactive:
	}
	return out
}

func featureExpired(listing domain.Listing, now time.Time) bool {
	if !listing.Featured {
		return false
	}
	// флаг без срока считается устаревшей записью
	if listing.FeaturedUntil == nil {
		return true
	}
	return !listing.FeaturedUntil.After(now)
}

// Approve переводит объявление из pending в active.
func Approve(listing domain.Listing) (domain.Listing, error) {
	return moderate(listing, domain.ListingStatusActive)
}

// Reject переводит объявление из pending в rejected.
func Reject(listing domain.Listing) (domain.Listing, error) {
	return moderate(listing, domain.ListingStatusRejected)
}

func moderate(listing domain.Listing, target domain.ListingStatus) (domain.Listing, error) {
	switch listing.Status {
	case domain.ListingStatusPending:
		listing.Status = target
		return listing, nil
	case domain.ListingStatusActive, domain.ListingStatusRejected, domain.ListingStatusInactive:
		return listing, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, listing.Status, target)
	default:
		return listing, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, listing.Status)
	}
}
