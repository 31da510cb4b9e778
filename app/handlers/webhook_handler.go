package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/middleware"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/utils"
	"github.com/gofiber/fiber/v3"
)

// WebhookHandlerInterface defines the contract for webhook handlers
type WebhookHandlerInterface interface {
	HandleWebhook(c fiber.Ctx) error
}

// WebhookHandler handles inbound provider webhook HTTP requests
type WebhookHandler struct {
	webhookFlow businessflow.WebhookFlow
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookFlow businessflow.WebhookFlow) *WebhookHandler {
	return &WebhookHandler{
		webhookFlow: webhookFlow,
	}
}

func (h *WebhookHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// HandleWebhook accepts all three path shapes: /webhook/{provider}/{id},
// /{provider}/{id} and the bare /{id} where the provider defaults.
func (h *WebhookHandler) HandleWebhook(c fiber.Ctx) error {
	provider := c.Params("provider")
	rawID := c.Params("integrationId")
	if rawID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Integration id is required", "MISSING_INTEGRATION_ID", nil)
	}
	integrationID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid integration id", "INVALID_INTEGRATION_ID", nil)
	}

	raw := append([]byte(nil), c.Body()...)
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid JSON payload", "INVALID_PAYLOAD", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get(businessflow.RequestIDKey); requestID != "" {
		metadata.SetRequestID(requestID)
	}

	eventType, _ := businessflow.ExtractEventType(payload)

	result, err := h.webhookFlow.ProcessWebhook(h.createRequestContext(c), provider, uint(integrationID), payload, raw, metadata)
	if err != nil {
		middleware.RecordWebhookEvent(provider, eventType.String(), "rejected")
		if businessflow.IsProviderNotSupported(err) || businessflow.IsIntegrationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Integration not found", "INTEGRATION_NOT_FOUND", nil)
		}
		if businessflow.IsIntegrationNotConnected(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Integration is not connected", "INTEGRATION_NOT_CONNECTED", nil)
		}
		if businessflow.IsUnknownEventType(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown event type", "UNKNOWN_EVENT_TYPE", nil)
		}
		if businessflow.IsProviderNotImplemented(err) {
			return h.ErrorResponse(c, fiber.StatusNotImplemented, "Provider handler not implemented", "PROVIDER_NOT_IMPLEMENTED", nil)
		}

		log.Println("Webhook processing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Webhook processing failed", "WEBHOOK_PROCESSING_FAILED", nil)
	}

	outcome := "accepted"
	if result.Deduplicated {
		outcome = "deduplicated"
	}
	middleware.RecordWebhookEvent(provider, eventType.String(), outcome)

	return c.Status(fiber.StatusOK).JSON(result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *WebhookHandler) createRequestContext(c fiber.Ctx) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup
	return ctx
}
