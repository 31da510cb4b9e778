package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// InstanceStatus represents the connection state of a messaging instance
type InstanceStatus string

const (
	InstanceStatusConnected    InstanceStatus = "connected"
	InstanceStatusDisconnected InstanceStatus = "disconnected"
	InstanceStatusConnecting   InstanceStatus = "connecting"
)

// String returns the string representation of the status
func (s InstanceStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s InstanceStatus) Valid() bool {
	switch s {
	case InstanceStatusConnected, InstanceStatusDisconnected, InstanceStatusConnecting:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for InstanceStatus
func (s *InstanceStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = InstanceStatus(v)
	case []byte:
		*s = InstanceStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into InstanceStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for InstanceStatus
func (s InstanceStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid InstanceStatus: %s", s)
	}
	return string(s), nil
}

// MessagingInstance is a tenant-owned channel through which outbound messages
// are transmitted by the downstream messaging backend. The gateway reads the
// backend coordinates and token; it never manages the instance lifecycle.
type MessagingInstance struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Status        InstanceStatus `gorm:"type:instance_status;not null;default:'disconnected';index:idx_messaging_instances_status" json:"status"`
	BackendURL    *string        `gorm:"size:512" json:"backend_url,omitempty"`
	BackendToken  *string        `gorm:"size:512" json:"-"`
	InstanceToken *string        `gorm:"size:512" json:"-"`
	CreatedAt     time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (MessagingInstance) TableName() string {
	return "messaging_instances"
}

// BeforeCreate is called before creating a new record
func (i *MessagingInstance) BeforeCreate(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = InstanceStatusDisconnected
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsConnected reports whether the instance can transmit messages
func (i *MessagingInstance) IsConnected() bool {
	return i.Status == InstanceStatusConnected
}

// HasBackend reports whether the backend coordinates are configured
func (i *MessagingInstance) HasBackend() bool {
	return i.BackendURL != nil && *i.BackendURL != "" && i.BackendToken != nil && *i.BackendToken != ""
}

// MessagingInstanceFilter represents filter criteria for messaging instances
type MessagingInstanceFilter struct {
	ID     *uint           `json:"id,omitempty"`
	Name   *string         `json:"name,omitempty"`
	Status *InstanceStatus `json:"status,omitempty"`
}

// ProjectInstanceLink associates an API project with a messaging instance it
// may act through. Inactive links deny access without being deleted.
type ProjectInstanceLink struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ProjectID  uint       `gorm:"not null;uniqueIndex:uk_project_instance_links" json:"project_id"`
	InstanceID uint       `gorm:"not null;uniqueIndex:uk_project_instance_links" json:"instance_id"`
	IsActive   *bool      `gorm:"default:true;index:idx_project_instance_links_is_active" json:"is_active"`
	CreatedAt  time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`

	// Relations
	Instance *MessagingInstance `gorm:"foreignKey:InstanceID;references:ID" json:"instance,omitempty"`
}

// TableName returns the table name for the model
func (ProjectInstanceLink) TableName() string {
	return "project_instance_links"
}

// BeforeCreate is called before creating a new record
func (l *ProjectInstanceLink) BeforeCreate(tx *gorm.DB) error {
	if l.IsActive == nil {
		l.IsActive = utils.ToPtr(true)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// ProjectInstanceLinkFilter represents filter criteria for project-instance links
type ProjectInstanceLinkFilter struct {
	ProjectID  *uint `json:"project_id,omitempty"`
	InstanceID *uint `json:"instance_id,omitempty"`
	IsActive   *bool `json:"is_active,omitempty"`
}
