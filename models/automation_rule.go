package models

import (
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// AutomationRule maps an event type to a target campaign for one integration.
// Rules are owned by the rule-management UI; the gateway only reads them.
type AutomationRule struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	InstanceID      uint             `gorm:"not null;index:idx_automation_rules_instance_id" json:"instance_id"`
	IntegrationID   uint             `gorm:"not null;index:idx_automation_rules_integration_id" json:"integration_id"`
	EventType       WebhookEventType `gorm:"type:webhook_event_type;not null;index:idx_automation_rules_event_type" json:"event_type"`
	IsActive        *bool            `gorm:"default:true;index:idx_automation_rules_is_active" json:"is_active"`
	CampaignID      *uint            `json:"campaign_id,omitempty"`
	DelaySeconds    int              `gorm:"not null;default:0" json:"delay_seconds"`
	MaxDelaySeconds int              `gorm:"not null;default:0" json:"max_delay_seconds"`
	CreatedAt       time.Time        `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt       *time.Time       `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (AutomationRule) TableName() string {
	return "automation_rules"
}

// BeforeCreate is called before creating a new record
func (r *AutomationRule) BeforeCreate(tx *gorm.DB) error {
	if r.IsActive == nil {
		r.IsActive = utils.ToPtr(true)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	return nil
}

// HasCampaign reports whether the rule is bound to a target campaign
func (r *AutomationRule) HasCampaign() bool {
	return r.CampaignID != nil && *r.CampaignID != 0
}

// AutomationRuleFilter represents filter criteria for automation rules
type AutomationRuleFilter struct {
	ID            *uint             `json:"id,omitempty"`
	InstanceID    *uint             `json:"instance_id,omitempty"`
	IntegrationID *uint             `json:"integration_id,omitempty"`
	EventType     *WebhookEventType `json:"event_type,omitempty"`
	IsActive      *bool             `json:"is_active,omitempty"`
	CampaignID    *uint             `json:"campaign_id,omitempty"`
}
