package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// MessageStatus represents the outcome of one outbound send attempt
type MessageStatus string

const (
	MessageStatusSent   MessageStatus = "sent"
	MessageStatusFailed MessageStatus = "failed"
)

// String returns the string representation of the status
func (s MessageStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s MessageStatus) Valid() bool {
	switch s {
	case MessageStatusSent, MessageStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for MessageStatus
func (s *MessageStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = MessageStatus(v)
	case []byte:
		*s = MessageStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MessageStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for MessageStatus
func (s MessageStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid MessageStatus: %s", s)
	}
	return string(s), nil
}

// MessageLog is one row per outbound send attempt through a messaging
// instance. Delivery and read timestamps are filled in by an out-of-band
// status callback, not by the gateway.
type MessageLog struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	InstanceID   uint          `gorm:"not null;index:idx_message_logs_instance_id" json:"instance_id"`
	Recipient    string        `gorm:"size:32;not null;index:idx_message_logs_recipient" json:"recipient"`
	Type         string        `gorm:"size:32;not null;default:'text'" json:"type"`
	Content      string        `gorm:"type:text;not null" json:"content"`
	Status       MessageStatus `gorm:"type:message_status;not null;index:idx_message_logs_status" json:"status"`
	ExternalID   *string       `gorm:"size:255;index:idx_message_logs_external_id" json:"external_id,omitempty"`
	ErrorMessage *string       `gorm:"type:text" json:"error_message,omitempty"`
	DeliveredAt  *time.Time    `json:"delivered_at,omitempty"`
	ReadAt       *time.Time    `json:"read_at,omitempty"`
	CreatedAt    time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_message_logs_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (MessageLog) TableName() string {
	return "message_logs"
}

// BeforeCreate is called before creating a new record
func (m *MessageLog) BeforeCreate(tx *gorm.DB) error {
	if m.Type == "" {
		m.Type = "text"
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return nil
}

// MessageLogFilter represents filter criteria for message log queries
type MessageLogFilter struct {
	ID            *uint          `json:"id,omitempty"`
	InstanceID    *uint          `json:"instance_id,omitempty"`
	Recipient     *string        `json:"recipient,omitempty"`
	Status        *MessageStatus `json:"status,omitempty"`
	ExternalID    *string        `json:"external_id,omitempty"`
	CreatedAfter  *time.Time     `json:"created_after,omitempty"`
	CreatedBefore *time.Time     `json:"created_before,omitempty"`
}
