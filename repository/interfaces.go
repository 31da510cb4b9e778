// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// IntegrationRepository defines operations for provider integrations
type IntegrationRepository interface {
	Repository[models.Integration, models.IntegrationFilter]
	ByIDAndProvider(ctx context.Context, id uint, provider string) (*models.Integration, error)
}

// WebhookEventRepository defines operations for stored webhook events
type WebhookEventRepository interface {
	Repository[models.WebhookEvent, models.WebhookEventFilter]
	MarkProcessed(ctx context.Context, id uint, campaignID *uint, errorMessage *string) error
}

// EventDedupRepository defines operations for the idempotency ledger
type EventDedupRepository interface {
	Repository[models.EventDedup, models.EventDedupFilter]
	ByScope(ctx context.Context, instanceID uint, externalID string, eventType models.WebhookEventType) (*models.EventDedup, error)
}

// AutomationRuleRepository defines operations for automation rules
type AutomationRuleRepository interface {
	Repository[models.AutomationRule, models.AutomationRuleFilter]
	ListActive(ctx context.Context, instanceID, integrationID uint, eventType models.WebhookEventType) ([]*models.AutomationRule, error)
}

// CampaignContactRepository defines operations for campaign contacts
type CampaignContactRepository interface {
	Repository[models.CampaignContact, models.CampaignContactFilter]
	Upsert(ctx context.Context, contact *models.CampaignContact) error
}

// APIProjectRepository defines operations for API client projects
type APIProjectRepository interface {
	Repository[models.APIProject, models.APIProjectFilter]
	ByCredentials(ctx context.Context, apiKey, apiSecret string) (*models.APIProject, error)
}

// APIRequestLogRepository defines operations for the API audit log
type APIRequestLogRepository interface {
	Repository[models.APIRequestLog, models.APIRequestLogFilter]
	CountSince(ctx context.Context, projectID uint, since time.Time) (int64, error)
}

// MessageLogRepository defines operations for outbound message logs
type MessageLogRepository interface {
	Repository[models.MessageLog, models.MessageLogFilter]
	ByExternalID(ctx context.Context, externalID string) (*models.MessageLog, error)
}

// MessagingInstanceRepository defines operations for messaging instances
type MessagingInstanceRepository interface {
	Repository[models.MessagingInstance, models.MessagingInstanceFilter]
	ListActiveByProject(ctx context.Context, projectID uint) ([]*models.MessagingInstance, error)
	IsLinkedToProject(ctx context.Context, projectID, instanceID uint) (bool, error)
}

// PendingEventRepository defines operations for project-submitted events
type PendingEventRepository interface {
	Repository[models.PendingEvent, models.PendingEventFilter]
}
