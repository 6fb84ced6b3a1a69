package domain

import (
	"context"
	"time"
)

// ListingNoticeKind описывает причину уведомления владельца.
type ListingNoticeKind string

const (
	// ListingNoticeInactivated: объявление автоматически снято с публикации.
	ListingNoticeInactivated ListingNoticeKind = "inactivated"
	// ListingNoticeFeatureExpired: закончился срок выделения.
	ListingNoticeFeatureExpired ListingNoticeKind = "feature_expired"
)

// ListingNotice содержит информацию для уведомления владельца объявления.
type ListingNotice struct {
	RunID      string            `json:"run_id,omitempty"`
	ListingID  int64             `json:"listing_id"`
	OwnerID    int64             `json:"owner_id"`
	Kind       ListingNoticeKind `json:"kind"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Notifier публикует уведомления для владельцев объявлений.
type Notifier interface {
	Publish(ctx context.Context, notice ListingNotice) error
}
