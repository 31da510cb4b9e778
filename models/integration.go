// Package models contains domain entities and business models for the event gateway
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// IntegrationStatus represents the connection state of a provider integration
type IntegrationStatus string

const (
	IntegrationStatusConnected    IntegrationStatus = "connected"
	IntegrationStatusDisconnected IntegrationStatus = "disconnected"
	IntegrationStatusError        IntegrationStatus = "error"
)

// String returns the string representation of the status
func (s IntegrationStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s IntegrationStatus) Valid() bool {
	switch s {
	case IntegrationStatusConnected, IntegrationStatusDisconnected, IntegrationStatusError:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for IntegrationStatus
func (s *IntegrationStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = IntegrationStatus(v)
	case []byte:
		*s = IntegrationStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into IntegrationStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for IntegrationStatus
func (s IntegrationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid IntegrationStatus: %s", s)
	}
	return string(s), nil
}

// Integration represents a tenant's configured connection to one external provider.
// The gateway reads it on every inbound webhook but never mutates it; the
// integration-management UI owns the row.
type Integration struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	InstanceID uint              `gorm:"not null;index:idx_integrations_instance_id" json:"instance_id"`
	Provider   string            `gorm:"size:64;not null;index:idx_integrations_provider" json:"provider"`
	Status     IntegrationStatus `gorm:"type:integration_status;not null;default:'disconnected';index:idx_integrations_status" json:"status"`
	CreatedAt  time.Time         `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`

	// Relations
	Instance *MessagingInstance `gorm:"foreignKey:InstanceID;references:ID" json:"instance,omitempty"`
}

// TableName returns the table name for the model
func (Integration) TableName() string {
	return "integrations"
}

// BeforeCreate is called before creating a new record
func (i *Integration) BeforeCreate(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = IntegrationStatusDisconnected
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsConnected reports whether the integration may accept webhooks
func (i *Integration) IsConnected() bool {
	return i.Status == IntegrationStatusConnected
}

// IntegrationFilter represents filter criteria for integrations
type IntegrationFilter struct {
	ID         *uint              `json:"id,omitempty"`
	InstanceID *uint              `json:"instance_id,omitempty"`
	Provider   *string            `json:"provider,omitempty"`
	Status     *IntegrationStatus `json:"status,omitempty"`
}
