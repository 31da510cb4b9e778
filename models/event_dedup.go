package models

import (
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// EventDedup is the idempotency ledger for webhook ingestion. The tuple
// (instance, external id, event type) is unique; a second insert attempt is a
// duplicate delivery and must be treated as a successful no-op. Rows are
// created exactly once and never updated; retention is handled externally.
type EventDedup struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	InstanceID    uint             `gorm:"not null;uniqueIndex:uk_event_dedup_scope" json:"instance_id"`
	ExternalID    string           `gorm:"size:255;not null;uniqueIndex:uk_event_dedup_scope" json:"external_id"`
	EventType     WebhookEventType `gorm:"type:webhook_event_type;not null;uniqueIndex:uk_event_dedup_scope" json:"event_type"`
	CustomerPhone *string          `gorm:"size:32" json:"customer_phone,omitempty"`
	CreatedAt     time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_event_dedup_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (EventDedup) TableName() string {
	return "event_dedup"
}

// BeforeCreate is called before creating a new record
func (d *EventDedup) BeforeCreate(tx *gorm.DB) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = utils.UTCNow()
	}
	return nil
}

// EventDedupFilter represents filter criteria for dedup lookups
type EventDedupFilter struct {
	InstanceID    *uint             `json:"instance_id,omitempty"`
	ExternalID    *string           `json:"external_id,omitempty"`
	EventType     *WebhookEventType `json:"event_type,omitempty"`
	CreatedAfter  *time.Time        `json:"created_after,omitempty"`
	CreatedBefore *time.Time        `json:"created_before,omitempty"`
}
