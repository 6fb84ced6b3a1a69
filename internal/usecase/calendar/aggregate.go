package calendar

import (
	"fmt"
	"sort"
	"time"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/usecase/recurrence"
)

// Filter ограничивает вхождения календарным годом и/или месяцем (1–12). Ноль означает отсутствие ограничения.
type Filter struct {
	Year  int
	Month int
	// Location задаёт часовой пояс, в котором определяются год и месяц. По умолчанию UTC.
	Location *time.Location
}

// Validate проверяет границы фильтра.
func (f Filter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return fmt.Errorf("%w: month must be within 1..12", domain.ErrValidation)
	}
	if f.Year < 0 || f.Year > 9999 {
		return fmt.Errorf("%w: year must be a 4-digit number", domain.ErrValidation)
	}
	return nil
}

func (f Filter) location() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

func (f Filter) matches(t time.Time) bool {
	local := t.In(f.location())
	if f.Year != 0 && local.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(local.Month()) != f.Month {
		return false
	}
	return true
}

// EventOccurrences связывает событие с его вхождениями после фильтрации.
type EventOccurrences struct {
	Event       domain.Event            `json:"event"`
	Occurrences []recurrence.Occurrence `json:"occurrences"`
}

// Aggregate разворачивает одобренные события и фильтрует вхождения.
// События с другим статусом пропускаются. Одобренное событие без вхождений
// в запрошенном окне остаётся в результате с пустым списком.
// Шаги по месяцам и фильтр считаются в одной зоне filter.Location, иначе
// обрезка до конца месяца зависела бы от зоны, в которой хранилище вернуло время.
func Aggregate(events []domain.Event, filter Filter) []EventOccurrences {
	loc := filter.location()
	result := make([]EventOccurrences, 0, len(events))
	for _, ev := range events {
		if ev.Status != domain.EventStatusApproved {
			continue
		}
		matched := make([]recurrence.Occurrence, 0)
		var endAt *time.Time
		if ev.EndAt != nil {
			end := ev.EndAt.In(loc)
			endAt = &end
		}
		for _, occ := range recurrence.Expand(ev.StartAt.In(loc), ev.Recurrence, endAt) {
			if filter.matches(occ.Start) {
				matched = append(matched, occ)
			}
		}
		result = append(result, EventOccurrences{Event: ev, Occurrences: matched})
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Event, result[j].Event
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		return a.ID < b.ID
	})
	return result
}
