package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/teambition/rrule-go"

	"classifieds-engine/internal/domain"
)

// encodeRule сохраняет правило в виде строки RRULE (RFC 5545) без DTSTART.
// Одиночное событие хранится как пустая строка.
func encodeRule(rule *domain.RecurrenceRule) (string, error) {
	if rule == nil {
		return "", nil
	}
	var freq rrule.Frequency
	switch rule.Frequency {
	case domain.FrequencyNone, "":
		return "", nil
	case domain.FrequencyDaily:
		freq = rrule.DAILY
	case domain.FrequencyWeekly:
		freq = rrule.WEEKLY
	case domain.FrequencyMonthly:
		freq = rrule.MONTHLY
	case domain.FrequencyYearly:
		freq = rrule.YEARLY
	default:
		return "", fmt.Errorf("%w: unsupported frequency %q", domain.ErrValidation, rule.Frequency)
	}
	opt := rrule.ROption{Freq: freq}
	if rule.Until != nil {
		opt.Until = rule.Until.UTC()
	}
	return opt.RRuleString(), nil
}

// decodeRule разбирает сохранённое правило. Ошибки не возвращаются: неразборчивое
// значение превращается в неизвестную частоту, и развёртка даст одно вхождение.
func decodeRule(raw string) *domain.RecurrenceRule {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	// старые записи хранили только название частоты
	if !strings.Contains(raw, "=") {
		return &domain.RecurrenceRule{Frequency: domain.Frequency(strings.ToLower(raw))}
	}
	opt, err := rrule.StrToROption(strings.TrimPrefix(raw, "RRULE:"))
	if err != nil {
		log.Warn().Err(err).Str("rrule", raw).Msg("repo: не удалось разобрать правило повторения")
		return &domain.RecurrenceRule{Frequency: domain.Frequency(raw)}
	}
	if opt.Interval > 1 {
		log.Warn().Int("interval", opt.Interval).Str("rrule", raw).Msg("repo: интервал правила игнорируется")
	}
	rule := &domain.RecurrenceRule{Frequency: frequencyFromRRule(opt.Freq)}
	if !opt.Until.IsZero() {
		until := opt.Until.In(time.UTC)
		rule.Until = &until
	}
	return rule
}

func frequencyFromRRule(freq rrule.Frequency) domain.Frequency {
	switch freq {
	case rrule.DAILY:
		return domain.FrequencyDaily
	case rrule.WEEKLY:
		return domain.FrequencyWeekly
	case rrule.MONTHLY:
		return domain.FrequencyMonthly
	case rrule.YEARLY:
		return domain.FrequencyYearly
	case rrule.HOURLY:
		return "hourly"
	case rrule.MINUTELY:
		return "minutely"
	case rrule.SECONDLY:
		return "secondly"
	default:
		return domain.Frequency(fmt.Sprintf("freq-%d", freq))
	}
}
