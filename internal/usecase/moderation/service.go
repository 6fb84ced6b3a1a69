package moderation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/usecase/lifecycle"
)

// Service выполняет действия администратора: модерацию и смену настроек.
type Service struct {
	listings domain.ListingRepo
	events   domain.EventRepo
	settings domain.SettingsRepo
	log      zerolog.Logger
}

// NewService создаёт сервис модерации.
func NewService(listings domain.ListingRepo, events domain.EventRepo, settings domain.SettingsRepo, logger zerolog.Logger) *Service {
	return &Service{listings: listings, events: events, settings: settings, log: logger}
}

// ApproveListing публикует объявление, ожидающее модерации.
func (s *Service) ApproveListing(ctx context.Context, who domain.Identity, id int64) (domain.Listing, error) {
	return s.moderateListing(ctx, who, id, lifecycle.Approve)
}

// RejectListing отклоняет объявление, ожидающее модерации.
func (s *Service) RejectListing(ctx context.Context, who domain.Identity, id int64) (domain.Listing, error) {
	return s.moderateListing(ctx, who, id, lifecycle.Reject)
}

func (s *Service) moderateListing(ctx context.Context, who domain.Identity, id int64, transition func(domain.Listing) (domain.Listing, error)) (domain.Listing, error) {
	if !who.IsAdmin() {
		return domain.Listing{}, domain.ErrForbidden
	}
	current, err := s.listings.FindListing(ctx, id)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("получение объявления: %w", err)
	}
	next, err := transition(current)
	if err != nil {
		return domain.Listing{}, err
	}
	saved, err := s.listings.UpdateListing(ctx, id, domain.DiffListing(current, next))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("сохранение статуса: %w", err)
	}
	s.log.Info().Int64("listing", id).Int64("admin", who.UserID).Str("status", string(saved.Status)).Msg("moderation: статус объявления изменён")
	return saved, nil
}

// ApproveEvent одобряет событие, после чего оно попадает в календарь.
func (s *Service) ApproveEvent(ctx context.Context, who domain.Identity, id int64) (domain.Event, error) {
	return s.moderateEvent(ctx, who, id, domain.EventStatusApproved)
}

// RejectEvent отклоняет событие.
func (s *Service) RejectEvent(ctx context.Context, who domain.Identity, id int64) (domain.Event, error) {
	return s.moderateEvent(ctx, who, id, domain.EventStatusRejected)
}

func (s *Service) moderateEvent(ctx context.Context, who domain.Identity, id int64, target domain.EventStatus) (domain.Event, error) {
	if !who.IsAdmin() {
		return domain.Event{}, domain.ErrForbidden
	}
	current, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("получение события: %w", err)
	}
	if current.Status != domain.EventStatusPending {
		return domain.Event{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, target)
	}
	saved, err := s.events.UpdateEventStatus(ctx, id, target)
	if err != nil {
		return domain.Event{}, fmt.Errorf("сохранение статуса: %w", err)
	}
	s.log.Info().Int64("event", id).Int64("admin", who.UserID).Str("status", string(saved.Status)).Msg("moderation: статус события изменён")
	return saved, nil
}

// Settings возвращает текущие настройки.
func (s *Service) Settings(ctx context.Context, who domain.Identity) (domain.Settings, error) {
	if !who.IsAdmin() {
		return domain.Settings{}, domain.ErrForbidden
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("получение настроек: %w", err)
	}
	return settings.Normalize(), nil
}

// UpdateSettings сохраняет новые настройки. Следующий проход и запросы выделения увидят их сразу.
func (s *Service) UpdateSettings(ctx context.Context, who domain.Identity, settings domain.Settings) (domain.Settings, error) {
	if !who.IsAdmin() {
		return domain.Settings{}, domain.ErrForbidden
	}
	if settings.AutoInactiveMonths < 0 {
		return domain.Settings{}, fmt.Errorf("%w: auto_inactive_months must not be negative", domain.ErrValidation)
	}
	for _, days := range settings.HighlightOptions {
		if days <= 0 {
			return domain.Settings{}, fmt.Errorf("%w: highlight options must be positive", domain.ErrValidation)
		}
	}
	normalized := settings.Normalize()
	if err := s.settings.SaveSettings(ctx, normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("сохранение настроек: %w", err)
	}
	s.log.Info().Int64("admin", who.UserID).Int("auto_inactive_months", normalized.AutoInactiveMonths).Ints("highlight_options", normalized.HighlightOptions).Msg("moderation: настройки обновлены")
	return normalized, nil
}
