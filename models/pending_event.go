package models

import (
	"encoding/json"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingEvent is a project-submitted event queued for downstream automation.
// It is the API-facing escape hatch distinct from the provider webhook
// pipeline; a separate consumer drains it.
type PendingEvent struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uk_pending_events_uuid" json:"uuid"`
	ProjectID uint            `gorm:"not null;index:idx_pending_events_project_id" json:"project_id"`
	EventType string          `gorm:"size:128;not null;index:idx_pending_events_event_type" json:"event_type"`
	Data      json.RawMessage `gorm:"type:jsonb" json:"data,omitempty"`
	Status    string          `gorm:"size:32;not null;default:'pending';index:idx_pending_events_status" json:"status"`
	CreatedAt time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (PendingEvent) TableName() string {
	return "pending_events"
}

// BeforeCreate is called before creating a new record
func (e *PendingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.Status == "" {
		e.Status = "pending"
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// PendingEventFilter represents filter criteria for pending events
type PendingEventFilter struct {
	ID        *uint   `json:"id,omitempty"`
	ProjectID *uint   `json:"project_id,omitempty"`
	EventType *string `json:"event_type,omitempty"`
	Status    *string `json:"status,omitempty"`
}
