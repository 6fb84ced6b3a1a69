package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/metrics"
)

// ApplyFeature проверяет запрос на выделение и возвращает объявление с новым окном.
// Повторный запрос не продлевает окно, а начинает его заново от now.
func ApplyFeature(listing domain.Listing, requesterID int64, days int, settings domain.Settings, now time.Time) (domain.Listing, error) {
	if days <= 0 {
		return listing, fmt.Errorf("%w: days must be a positive integer", domain.ErrValidation)
	}
	if !settings.AllowsHighlight(days) {
		return listing, fmt.Errorf("%w: %d days is not one of %v", domain.ErrValidation, days, settings.HighlightOptions)
	}
	if requesterID != listing.CreatedBy {
		return listing, fmt.Errorf("%w: listing %d belongs to another user", domain.ErrForbidden, listing.ID)
	}
	until := now.Add(time.Duration(days) * 24 * time.Hour)
	listing.Featured = true
	listing.FeaturedUntil = &until
	return listing, nil
}

// Service обрабатывает запросы владельцев на выделение объявлений.
type Service struct {
	listings domain.ListingRepo
	settings domain.SettingsRepo
	now      domain.Clock
	log      zerolog.Logger
}

// NewService создаёт сервис выделения.
func NewService(listings domain.ListingRepo, settings domain.SettingsRepo, logger zerolog.Logger) *Service {
	return &Service{listings: listings, settings: settings, now: time.Now, log: logger}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(clock domain.Clock) *Service {
	s.now = clock
	return s
}

// RequestFeature выделяет объявление на days дней от текущего момента.
func (s *Service) RequestFeature(ctx context.Context, listingID, requesterID int64, days int) (domain.Listing, error) {
	listing, err := s.listings.FindListing(ctx, listingID)
	if err != nil {
		metrics.FeatureRequests.WithLabelValues("error").Inc()
		return domain.Listing{}, fmt.Errorf("получение объявления: %w", err)
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		metrics.FeatureRequests.WithLabelValues("error").Inc()
		return domain.Listing{}, fmt.Errorf("получение настроек: %w", err)
	}
	updated, err := ApplyFeature(listing, requesterID, days, settings.Normalize(), s.now())
	if err != nil {
		metrics.FeatureRequests.WithLabelValues("rejected").Inc()
		s.log.Info().Err(err).Int64("listing", listingID).Int64("requester", requesterID).Int("days", days).Msg("feature: запрос отклонён")
		return domain.Listing{}, err
	}
	saved, err := s.listings.UpdateListing(ctx, listingID, domain.DiffListing(listing, updated))
	if err != nil {
		metrics.FeatureRequests.WithLabelValues("error").Inc()
		return domain.Listing{}, fmt.Errorf("сохранение выделения: %w", err)
	}
	metrics.FeatureRequests.WithLabelValues("accepted").Inc()
	s.log.Info().Int64("listing", listingID).Int("days", days).Time("featured_until", *updated.FeaturedUntil).Msg("feature: объявление выделено")
	return saved, nil
}

// Options возвращает разрешённые сроки выделения в днях.
func (s *Service) Options(ctx context.Context) ([]int, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение настроек: %w", err)
	}
	return settings.Normalize().HighlightOptions, nil
}
