package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"classifieds-engine/internal/domain"
)

// Service отдаёт календарь одобренных событий.
type Service struct {
	events domain.EventRepo
	loc    *time.Location
	now    domain.Clock
	log    zerolog.Logger
}

// NewService создаёт сервис календаря. loc задаёт часовой пояс фильтра по месяцам.
func NewService(events domain.EventRepo, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{events: events, loc: loc, now: time.Now, log: logger}
}

// WithClock подменяет источник времени.
func (s *Service) WithClock(clock domain.Clock) *Service {
	s.now = clock
	return s
}

// Calendar возвращает одобренные события и их вхождения за указанный год/месяц.
func (s *Service) Calendar(ctx context.Context, filter Filter) ([]EventOccurrences, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Location == nil {
		filter.Location = s.loc
	}
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение событий: %w", err)
	}
	result := Aggregate(events, filter)
	s.log.Debug().Int("events", len(events)).Int("approved", len(result)).Int("year", filter.Year).Int("month", filter.Month).Msg("calendar: календарь собран")
	return result, nil
}

// ICS возвращает календарь в формате iCalendar.
func (s *Service) ICS(ctx context.Context, filter Filter) (string, error) {
	items, err := s.Calendar(ctx, filter)
	if err != nil {
		return "", err
	}
	return RenderICS(items, s.now()), nil
}
