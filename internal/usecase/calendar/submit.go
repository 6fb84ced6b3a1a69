package calendar

import (
	"context"
	"fmt"
	"strings"

	"classifieds-engine/internal/domain"
)

// ValidateDraft проверяет событие, предложенное пользователем.
func ValidateDraft(ev domain.Event) error {
	if strings.TrimSpace(ev.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if ev.StartAt.IsZero() {
		return fmt.Errorf("%w: start_at is required", domain.ErrValidation)
	}
	if ev.EndAt != nil && ev.EndAt.Before(ev.StartAt) {
		return fmt.Errorf("%w: end_at must not precede start_at", domain.ErrValidation)
	}
	if ev.Recurrence != nil {
		if !ev.Recurrence.Frequency.Known() {
			return fmt.Errorf("%w: unknown frequency %q", domain.ErrValidation, ev.Recurrence.Frequency)
		}
		if ev.Recurrence.Until != nil && ev.Recurrence.Until.Before(ev.StartAt) {
			return fmt.Errorf("%w: until must not precede start_at", domain.ErrValidation)
		}
	}
	return nil
}

// Submit сохраняет новое событие от имени вызывающего. Событие попадает
// в календарь только после одобрения администратором.
func (s *Service) Submit(ctx context.Context, who domain.Identity, draft domain.Event) (domain.Event, error) {
	if who.UserID == 0 {
		return domain.Event{}, fmt.Errorf("%w: anonymous callers cannot submit events", domain.ErrForbidden)
	}
	if err := ValidateDraft(draft); err != nil {
		return domain.Event{}, err
	}
	draft.ID = 0
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Status = domain.EventStatusPending
	draft.CreatedBy = who.UserID
	if draft.Recurrence != nil && draft.Recurrence.Frequency == domain.FrequencyNone {
		draft.Recurrence = nil
	}
	saved, err := s.events.CreateEvent(ctx, draft)
	if err != nil {
		return domain.Event{}, fmt.Errorf("сохранение события: %w", err)
	}
	s.log.Info().Int64("event", saved.ID).Int64("author", who.UserID).Msg("calendar: событие отправлено на модерацию")
	return saved, nil
}
