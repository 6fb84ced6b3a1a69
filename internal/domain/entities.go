package domain

import (
	"sort"
	"time"
)

// EventStatus описывает статус модерации события.
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

// Valid сообщает, известен ли статус.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusApproved, EventStatusRejected:
		return true
	}
	return false
}

// Frequency описывает шаг повторения события.
type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Known сообщает, поддерживается ли частота.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// RecurrenceRule задаёт правило повторения. Интервал всегда равен одной единице частоты.
type RecurrenceRule struct {
	Frequency Frequency  `json:"frequency" yaml:"frequency"`
	Until     *time.Time `json:"until,omitempty" yaml:"until,omitempty"`
}

// Event описывает событие календаря. Вхождения вычисляются на лету и не хранятся.
type Event struct {
	ID          int64           `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Location    string          `json:"location,omitempty" yaml:"location,omitempty"`
	StartAt     time.Time       `json:"start_at" yaml:"start_at"`
	EndAt       *time.Time      `json:"end_at,omitempty" yaml:"end_at,omitempty"`
	Recurrence  *RecurrenceRule `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	Status      EventStatus     `json:"status" yaml:"status"`
	CreatedBy   int64           `json:"created_by" yaml:"created_by"`
}

// ListingStatus описывает состояние объявления.
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusRejected ListingStatus = "rejected"
	ListingStatusInactive ListingStatus = "inactive"
)

// Valid сообщает, известен ли статус.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingStatusPending, ListingStatusActive, ListingStatusRejected, ListingStatusInactive:
		return true
	}
	return false
}

// Listing представляет объявление.
type Listing struct {
	ID            int64         `json:"id" yaml:"id"`
	Title         string        `json:"title" yaml:"title"`
	Status        ListingStatus `json:"status" yaml:"status"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
	Featured      bool          `json:"featured" yaml:"featured"`
	FeaturedUntil *time.Time    `json:"featured_until,omitempty" yaml:"featured_until,omitempty"`
	CreatedBy     int64         `json:"created_by" yaml:"created_by"`
}

// ListingPatch содержит частичное обновление объявления. Nil-поля не меняются.
type ListingPatch struct {
	Status   *ListingStatus
	Featured *bool
	// FeaturedUntil применяется, только если SetFeaturedUntil == true; nil означает очистку.
	FeaturedUntil    *time.Time
	SetFeaturedUntil bool
}

// Empty сообщает, что патч ничего не меняет.
func (p ListingPatch) Empty() bool {
	return p.Status == nil && p.Featured == nil && !p.SetFeaturedUntil
}

// Apply возвращает копию объявления с применённым патчем.
func (p ListingPatch) Apply(l Listing) Listing {
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Featured != nil {
		l.Featured = *p.Featured
	}
	if p.SetFeaturedUntil {
		if p.FeaturedUntil == nil {
			l.FeaturedUntil = nil
		} else {
			ts := *p.FeaturedUntil
			l.FeaturedUntil = &ts
		}
	}
	return l
}

// DiffListing строит патч, переводящий from в to.
func DiffListing(from, to Listing) ListingPatch {
	var patch ListingPatch
	if from.Status != to.Status {
		status := to.Status
		patch.Status = &status
	}
	if from.Featured != to.Featured {
		featured := to.Featured
		patch.Featured = &featured
	}
	if !sameInstant(from.FeaturedUntil, to.FeaturedUntil) {
		patch.SetFeaturedUntil = true
		if to.FeaturedUntil != nil {
			ts := *to.FeaturedUntil
			patch.FeaturedUntil = &ts
		}
	}
	return patch
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

const (
	DefaultAutoInactiveMonths = 4
)

// DefaultHighlightOptions возвращает допустимые сроки выделения по умолчанию.
func DefaultHighlightOptions() []int {
	return []int{7, 14, 21, 30}
}

// Settings хранит общие настройки площадки. Читается заново на каждую операцию.
type Settings struct {
	AutoInactiveMonths int   `json:"auto_inactive_months" yaml:"auto_inactive_months"`
	HighlightOptions   []int `json:"highlight_options" yaml:"highlight_options"`
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() Settings {
	return Settings{AutoInactiveMonths: DefaultAutoInactiveMonths, HighlightOptions: DefaultHighlightOptions()}
}

// Normalize подставляет значения по умолчанию и упорядочивает варианты выделения.
func (s Settings) Normalize() Settings {
	if s.AutoInactiveMonths <= 0 {
		s.AutoInactiveMonths = DefaultAutoInactiveMonths
	}
	seen := make(map[int]struct{}, len(s.HighlightOptions))
	options := make([]int, 0, len(s.HighlightOptions))
	for _, days := range s.HighlightOptions {
		if days <= 0 {
			continue
		}
		if _, ok := seen[days]; ok {
			continue
		}
		seen[days] = struct{}{}
		options = append(options, days)
	}
	if len(options) == 0 {
		options = DefaultHighlightOptions()
	}
	sort.Ints(options)
	s.HighlightOptions = options
	return s
}

// AllowsHighlight проверяет точное совпадение срока с одним из разрешённых.
func (s Settings) AllowsHighlight(days int) bool {
	for _, option := range s.HighlightOptions {
		if option == days {
			return true
		}
	}
	return false
}
