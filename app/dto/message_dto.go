package dto

import (
	"encoding/json"
	"time"
)

// SendMessageRequest represents a single outbound message submission
type SendMessageRequest struct {
	InstanceID uint   `json:"instanceId" validate:"required"`
	To         string `json:"to" validate:"required"`
	Message    string `json:"message" validate:"required"`
	Type       string `json:"type,omitempty" validate:"omitempty,oneof=text image document audio video"`
}

// SendMessageResponse represents the outcome of a single send
type SendMessageResponse struct {
	MessageID *string `json:"messageId,omitempty"`
	Status    string  `json:"status"`
	Error     *string `json:"error,omitempty"`
}

// BulkMessageItem is one entry of a bulk submission
type BulkMessageItem struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
	Type    string `json:"type,omitempty" validate:"omitempty,oneof=text image document audio video"`
}

// SendBulkRequest represents a bulk message submission
type SendBulkRequest struct {
	InstanceID uint              `json:"instanceId" validate:"required"`
	Messages   []BulkMessageItem `json:"messages" validate:"required,min=1,dive"`
}

// BulkMessageResult is the per-entry outcome of a bulk send
type BulkMessageResult struct {
	To        string  `json:"to"`
	Success   bool    `json:"success"`
	MessageID *string `json:"messageId,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// SendBulkResponse aggregates a bulk send
type SendBulkResponse struct {
	Total   int                 `json:"total"`
	Sent    int                 `json:"sent"`
	Failed  int                 `json:"failed"`
	Results []BulkMessageResult `json:"results"`
}

// MessageStatusResponse is the read-only projection of a message log row
type MessageStatusResponse struct {
	MessageID   string     `json:"messageId"`
	Recipient   string     `json:"recipient"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Error       *string    `json:"error,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// EventRequest represents a project-submitted event for downstream automation
type EventRequest struct {
	EventType string          `json:"eventType" validate:"required,max=128"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventResponse acknowledges an enqueued event
type EventResponse struct {
	EventID string `json:"eventId"`
}

// InstanceDTO is the project-facing projection of a messaging instance
type InstanceDTO struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ListInstancesResponse lists the project's linked active instances
type ListInstancesResponse struct {
	Count     int           `json:"count"`
	Instances []InstanceDTO `json:"instances"`
}
