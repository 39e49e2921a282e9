package models

import "time"

type WebhookEvent struct {
	ID          uint      `gorm:"primaryKey"`
	Provider    string    `gorm:"size:20;uniqueIndex:idx_webhook_provider_event"`
	EventID     string    `gorm:"size:191;uniqueIndex:idx_webhook_provider_event"`
	EventType   string    `gorm:"size:64"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
