package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// ContactStatus represents the sending status of a campaign contact
type ContactStatus string

const (
	ContactStatusPending ContactStatus = "pending"
	ContactStatusSent    ContactStatus = "sent"
	ContactStatusFailed  ContactStatus = "failed"
)

// String returns the string representation of the status
func (s ContactStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactStatusPending, ContactStatusSent, ContactStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ContactStatus
func (s *ContactStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ContactStatus(v)
	case []byte:
		*s = ContactStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ContactStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ContactStatus
func (s ContactStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ContactStatus: %s", s)
	}
	return string(s), nil
}

// ContactMetadata records the provenance of a campaign enrollment. On a
// re-trigger the whole block is replaced, not merged (last event wins).
type ContactMetadata struct {
	Source       string   `json:"source,omitempty"`
	EventType    string   `json:"event_type,omitempty"`
	EventID      string   `json:"event_id,omitempty"`
	OrderValue   *float64 `json:"order_value,omitempty"`
	ProductName  *string  `json:"product_name,omitempty"`
	OfferName    *string  `json:"offer_name,omitempty"`
	DelaySeconds int      `json:"delay_seconds,omitempty"`
}

// Value implements the driver.Valuer interface for ContactMetadata
func (m ContactMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for ContactMetadata
func (m *ContactMetadata) Scan(value any) error {
	if value == nil {
		*m = ContactMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ContactMetadata", value)
	}

	return json.Unmarshal(bytes, m)
}

// CampaignContact is a phone number enrolled into an outbound campaign.
// The phone is unique per campaign; the downstream campaign sender consumes
// pending rows and honors the recorded delay, the gateway never sleeps on it.
type CampaignContact struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CampaignID uint            `gorm:"not null;uniqueIndex:uk_campaign_contacts_phone" json:"campaign_id"`
	Phone      string          `gorm:"size:32;not null;uniqueIndex:uk_campaign_contacts_phone" json:"phone"`
	Name       *string         `gorm:"size:255" json:"name,omitempty"`
	Status     ContactStatus   `gorm:"type:contact_status;not null;default:'pending';index:idx_campaign_contacts_status" json:"status"`
	Metadata   ContactMetadata `gorm:"type:jsonb;not null" json:"metadata"`
	CreatedAt  time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (CampaignContact) TableName() string {
	return "campaign_contacts"
}

// BeforeCreate is called before creating a new record
func (c *CampaignContact) BeforeCreate(tx *gorm.DB) error {
	if c.Status == "" {
		c.Status = ContactStatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// CampaignContactFilter represents filter criteria for campaign contacts
type CampaignContactFilter struct {
	ID         *uint          `json:"id,omitempty"`
	CampaignID *uint          `json:"campaign_id,omitempty"`
	Phone      *string        `json:"phone,omitempty"`
	Status     *ContactStatus `json:"status,omitempty"`
}
