package model

import "time"

// WebhookReceipt records one inbound gateway notification. It is a delivery log
// for debugging, not a transaction store.
type WebhookReceipt struct {
	ID         string `gorm:"primaryKey;size:36;not null"`
	Provider   string `gorm:"size:32;index;not null"`
	EventType  string `gorm:"size:64;index"`
	ExternalID string `gorm:"size:128;index"` // gateway transaction id, when present
	Status     string `gorm:"size:32"`
	Parsed     bool   `gorm:"not null"`
	Payload    string `gorm:"type:text"`
	CreatedAt  time.Time
}
