package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WebhookEventType represents the fixed set of commerce events the gateway accepts
type WebhookEventType string

const (
	EventInitiateCheckout    WebhookEventType = "initiate_checkout"
	EventPixGenerated        WebhookEventType = "pix_generated"
	EventPixExpired          WebhookEventType = "pix_expired"
	EventPurchaseApproved    WebhookEventType = "purchase_approved"
	EventPurchaseRefused     WebhookEventType = "purchase_refused"
	EventPurchaseRefunded    WebhookEventType = "purchase_refunded"
	EventPurchaseChargeback  WebhookEventType = "purchase_chargeback"
	EventCheckoutAbandonment WebhookEventType = "checkout_abandonment"
)

// String returns the string representation of the event type
func (t WebhookEventType) String() string {
	return string(t)
}

// Valid checks if the event type is a member of the known enumeration.
// Unknown or future event types must be rejected at ingestion, never stored.
func (t WebhookEventType) Valid() bool {
	switch t {
	case EventInitiateCheckout, EventPixGenerated, EventPixExpired,
		EventPurchaseApproved, EventPurchaseRefused, EventPurchaseRefunded,
		EventPurchaseChargeback, EventCheckoutAbandonment:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for WebhookEventType
func (t *WebhookEventType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = WebhookEventType(v)
	case []byte:
		*t = WebhookEventType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into WebhookEventType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for WebhookEventType
func (t WebhookEventType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid WebhookEventType: %s", t)
	}
	return string(t), nil
}

// NormalizedPayload is the structured projection of an untrusted provider payload
type NormalizedPayload struct {
	CustomerName  *string  `json:"customer_name,omitempty"`
	CustomerEmail *string  `json:"customer_email,omitempty"`
	CustomerPhone *string  `json:"customer_phone,omitempty"`
	ProductID     *string  `json:"product_id,omitempty"`
	ProductName   *string  `json:"product_name,omitempty"`
	OfferID       *string  `json:"offer_id,omitempty"`
	OfferName     *string  `json:"offer_name,omitempty"`
	OrderValue    *float64 `json:"order_value,omitempty"`
	Currency      string   `json:"currency,omitempty"`
}

// Value implements the driver.Valuer interface for NormalizedPayload
func (p NormalizedPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for NormalizedPayload
func (p *NormalizedPayload) Scan(value any) error {
	if value == nil {
		*p = NormalizedPayload{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into NormalizedPayload", value)
	}

	return json.Unmarshal(bytes, p)
}

// WebhookEvent is the durable record of every accepted webhook delivery.
// It is created once per non-duplicate webhook and mutated exactly once
// afterwards to mark it processed with either a campaign id or an error.
type WebhookEvent struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	UUID                uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:uk_webhook_events_uuid" json:"uuid"`
	InstanceID          uint              `gorm:"not null;index:idx_webhook_events_instance_id" json:"instance_id"`
	IntegrationID       uint              `gorm:"not null;index:idx_webhook_events_integration_id;uniqueIndex:uk_webhook_events_external" json:"integration_id"`
	EventType           WebhookEventType  `gorm:"type:webhook_event_type;not null;uniqueIndex:uk_webhook_events_external" json:"event_type"`
	ExternalID          string            `gorm:"size:255;not null;uniqueIndex:uk_webhook_events_external" json:"external_id"`
	RawPayload          json.RawMessage   `gorm:"type:jsonb;not null" json:"raw_payload"`
	Normalized          NormalizedPayload `gorm:"type:jsonb;not null" json:"normalized"`
	Processed           bool              `gorm:"not null;default:false;index:idx_webhook_events_processed" json:"processed"`
	ProcessedAt         *time.Time        `json:"processed_at,omitempty"`
	CampaignTriggeredID *uint             `json:"campaign_triggered_id,omitempty"`
	ErrorMessage        *string           `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt           time.Time         `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_webhook_events_created_at" json:"created_at"`
}

// TableName returns the table name for the model
func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// BeforeCreate is called before creating a new record
func (e *WebhookEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// HasPhone reports whether the normalized payload carries a dispatchable phone
func (e *WebhookEvent) HasPhone() bool {
	return e.Normalized.CustomerPhone != nil && *e.Normalized.CustomerPhone != ""
}

// WebhookEventFilter represents filter criteria for webhook events
type WebhookEventFilter struct {
	ID            *uint             `json:"id,omitempty"`
	UUID          *uuid.UUID        `json:"uuid,omitempty"`
	InstanceID    *uint             `json:"instance_id,omitempty"`
	IntegrationID *uint             `json:"integration_id,omitempty"`
	EventType     *WebhookEventType `json:"event_type,omitempty"`
	ExternalID    *string           `json:"external_id,omitempty"`
	Processed     *bool             `json:"processed,omitempty"`
	CreatedAfter  *time.Time        `json:"created_after,omitempty"`
	CreatedBefore *time.Time        `json:"created_before,omitempty"`
}
