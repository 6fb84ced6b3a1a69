package recurrence

import (
	"time"

	"github.com/rs/zerolog/log"

	"classifieds-engine/internal/domain"
	"classifieds-engine/internal/infra/metrics"
)

// HorizonMonths ограничивает развёртку правил без until.
const HorizonMonths = 24

// Occurrence описывает одно вхождение события. End сдвигается вместе с началом.
type Occurrence struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// Expand разворачивает правило повторения в упорядоченный список вхождений.
// Первое вхождение всегда равно startAt. Правило без until ограничивается горизонтом
// в HorizonMonths месяцев от startAt. Неизвестная частота даёт одно вхождение.
func Expand(startAt time.Time, rule *domain.RecurrenceRule, endAt *time.Time) []Occurrence {
	out, truncated := expand(startAt, rule, endAt)
	if truncated {
		metrics.RecurrenceTruncated.Inc()
	}
	return out
}

// expand сообщает, был ли ряд обрезан горизонтом, а не until.
func expand(startAt time.Time, rule *domain.RecurrenceRule, endAt *time.Time) ([]Occurrence, bool) {
	var duration time.Duration
	hasEnd := endAt != nil && !endAt.Before(startAt)
	if hasEnd {
		duration = endAt.Sub(startAt)
	}
	build := func(start time.Time) Occurrence {
		occ := Occurrence{Start: start}
		if hasEnd {
			end := start.Add(duration)
			occ.End = &end
		}
		return occ
	}

	out := []Occurrence{build(startAt)}
	if rule == nil {
		return out, false
	}
	step := stepFor(rule.Frequency)
	if step == nil {
		return out, false
	}

	horizon := AddMonthsClamped(startAt, HorizonMonths)
	limit := horizon
	bounded := rule.Until != nil && !rule.Until.After(horizon)
	if bounded {
		limit = *rule.Until
	}

	last := startAt
	for k := 1; ; k++ {
		next := step(startAt, k)
		if next.After(limit) {
			return out, !bounded
		}
		if !next.After(last) {
			continue
		}
		out = append(out, build(next))
		last = next
	}
}

// Starts возвращает только начала вхождений.
func Starts(occurrences []Occurrence) []time.Time {
	starts := make([]time.Time, 0, len(occurrences))
	for _, occ := range occurrences {
		starts = append(starts, occ.Start)
	}
	return starts
}

type stepFunc func(anchor time.Time, k int) time.Time

// stepFor возвращает функцию k-го шага от якоря. Шаг считается от якоря, а не от
// предыдущего вхождения, чтобы 31 января давало 29 февраля и затем 31 марта.
func stepFor(freq domain.Frequency) stepFunc {
	switch freq {
	case domain.FrequencyNone, "":
		return nil
	case domain.FrequencyDaily:
		return func(anchor time.Time, k int) time.Time { return anchor.AddDate(0, 0, k) }
	case domain.FrequencyWeekly:
		return func(anchor time.Time, k int) time.Time { return anchor.AddDate(0, 0, 7*k) }
	case domain.FrequencyMonthly:
		return func(anchor time.Time, k int) time.Time { return AddMonthsClamped(anchor, k) }
	case domain.FrequencyYearly:
		return func(anchor time.Time, k int) time.Time { return AddMonthsClamped(anchor, 12*k) }
	default:
		metrics.RecurrenceUnknownFrequency.Inc()
		log.Warn().Str("frequency", string(freq)).Msg("recurrence: неизвестная частота, событие считается одиночным")
		return nil
	}
}

// AddMonthsClamped сдвигает t на n календарных месяцев (n может быть отрицательным).
// Если в целевом месяце нет такого дня, берётся последний день месяца.
func AddMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + n
	targetYear := year + floorDiv(total, 12)
	targetMonth := time.Month(floorMod(total, 12) + 1)
	if last := daysIn(targetYear, targetMonth, t.Location()); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(targetYear, targetMonth, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
