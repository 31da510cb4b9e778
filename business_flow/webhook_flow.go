// Package businessflow contains the core business logic and use cases for webhook ingestion workflows
package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// integrationCacheTTL bounds how stale a cached integration row may be. A
// disconnect takes at most this long to propagate to the webhook hot path.
const integrationCacheTTL = 30 * time.Second

// WebhookFlow handles inbound provider webhook deliveries
type WebhookFlow interface {
	ProcessWebhook(ctx context.Context, provider string, integrationID uint, payload map[string]any, raw json.RawMessage, metadata *ClientMetadata) (*dto.WebhookResponse, error)
}

// WebhookFlowImpl implements the webhook ingestion business flow
type WebhookFlowImpl struct {
	integrationRepo repository.IntegrationRepository
	eventRepo       repository.WebhookEventRepository
	dedupRepo       repository.EventDedupRepository
	registry        *ProviderRegistry
	dispatcher      DispatchFlow
	db              *gorm.DB
	rc              *redis.Client
}

// NewWebhookFlow creates a new webhook flow instance. The redis client is
// optional; without it every delivery reads the integration from the datastore.
func NewWebhookFlow(
	integrationRepo repository.IntegrationRepository,
	eventRepo repository.WebhookEventRepository,
	dedupRepo repository.EventDedupRepository,
	registry *ProviderRegistry,
	dispatcher DispatchFlow,
	db *gorm.DB,
	rc *redis.Client,
) WebhookFlow {
	return &WebhookFlowImpl{
		integrationRepo: integrationRepo,
		eventRepo:       eventRepo,
		dedupRepo:       dedupRepo,
		registry:        registry,
		dispatcher:      dispatcher,
		db:              db,
		rc:              rc,
	}
}

// loadIntegration resolves the integration through the read-through cache.
// The datastore stays the source of truth; cache failures fall back silently.
func (s *WebhookFlowImpl) loadIntegration(ctx context.Context, id uint, provider string) (*models.Integration, error) {
	key := fmt.Sprintf("gateway:integration:%d:%s", id, provider)

	if s.rc != nil {
		if raw, err := s.rc.Get(ctx, key).Bytes(); err == nil {
			var cached models.Integration
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	integration, err := s.integrationRepo.ByIDAndProvider(ctx, id, provider)
	if err != nil || integration == nil {
		return integration, err
	}

	if s.rc != nil {
		if raw, err := json.Marshal(integration); err == nil {
			_ = s.rc.Set(ctx, key, raw, integrationCacheTTL).Err()
		}
	}
	return integration, nil
}

// ProcessWebhook runs the full ingestion pipeline: integration check,
// provider-specific normalization, idempotent store, campaign dispatch.
// Duplicate deliveries answer success with a deduplicated marker; the dedup
// lookup is only the fast path, the event table's uniqueness constraint is
// the authoritative guarantee under concurrent retries.
func (s *WebhookFlowImpl) ProcessWebhook(ctx context.Context, provider string, integrationID uint, payload map[string]any, raw json.RawMessage, metadata *ClientMetadata) (*dto.WebhookResponse, error) {
	handler, err := s.registry.Lookup(provider)
	if err != nil {
		return nil, NewBusinessError("PROVIDER_NOT_SUPPORTED", "Provider not supported", err)
	}

	integration, err := s.loadIntegration(ctx, integrationID, handler.Name())
	if err != nil {
		return nil, NewBusinessError("INTEGRATION_LOOKUP_FAILED", "Failed to load integration", err)
	}
	if integration == nil {
		return nil, NewBusinessError("INTEGRATION_NOT_FOUND", "Integration not found", ErrIntegrationNotFound)
	}
	if !integration.IsConnected() {
		return nil, NewBusinessError("INTEGRATION_NOT_CONNECTED", "Integration is not connected", ErrIntegrationNotConnected)
	}

	providerEvent, err := handler.Parse(payload)
	if err != nil {
		if errors.Is(err, ErrUnknownEventType) {
			return nil, NewBusinessError("UNKNOWN_EVENT_TYPE", "Unknown event type", err)
		}
		if errors.Is(err, ErrProviderNotImplemented) {
			return nil, NewBusinessError("PROVIDER_NOT_IMPLEMENTED", "Provider handler not implemented", err)
		}
		return nil, NewBusinessError("PAYLOAD_PARSE_FAILED", "Failed to parse payload", err)
	}

	existing, err := s.dedupRepo.ByScope(ctx, integration.InstanceID, providerEvent.ExternalID, providerEvent.EventType)
	if err != nil {
		return nil, NewBusinessError("DEDUP_LOOKUP_FAILED", "Failed to check event dedup", err)
	}
	if existing != nil {
		return deduplicatedResponse(), nil
	}

	event := &models.WebhookEvent{
		InstanceID:    integration.InstanceID,
		IntegrationID: integration.ID,
		EventType:     providerEvent.EventType,
		ExternalID:    providerEvent.ExternalID,
		RawPayload:    raw,
		Normalized:    providerEvent.Normalized,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		dedup := &models.EventDedup{
			InstanceID:    integration.InstanceID,
			ExternalID:    providerEvent.ExternalID,
			EventType:     providerEvent.EventType,
			CustomerPhone: providerEvent.Normalized.CustomerPhone,
		}
		if err := s.dedupRepo.Save(txCtx, dedup); err != nil {
			return err
		}
		return s.eventRepo.Save(txCtx, event)
	})
	if err != nil {
		// A concurrent delivery of the same external id won the insert race.
		if errors.Is(err, repository.ErrDuplicateEvent) {
			return deduplicatedResponse(), nil
		}
		return nil, NewBusinessError("EVENT_STORE_FAILED", "Failed to store event", err)
	}

	eventID := utils.ToPtr(event.UUID.String())

	if !event.HasPhone() {
		if err := s.eventRepo.MarkProcessed(ctx, event.ID, nil, utils.ToPtr(ErrNoValidPhone.Error())); err != nil {
			return nil, NewBusinessError("EVENT_UPDATE_FAILED", "Failed to mark event processed", err)
		}
		return &dto.WebhookResponse{
			Success: true,
			Message: "Event accepted, no valid phone number found",
			EventID: eventID,
		}, nil
	}

	results, err := s.dispatcher.DispatchEvent(ctx, event)
	if err != nil {
		return nil, err
	}

	message := "Event processed"
	if len(results) == 0 {
		message = "Event accepted, no active rules"
	}
	return &dto.WebhookResponse{
		Success: true,
		Message: message,
		EventID: eventID,
		Results: results,
	}, nil
}

func deduplicatedResponse() *dto.WebhookResponse {
	return &dto.WebhookResponse{
		Success:      true,
		Message:      "Event already processed",
		Deduplicated: true,
	}
}
