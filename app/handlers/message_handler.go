package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/middleware"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MessageHandlerInterface defines the contract for messaging API handlers
type MessageHandlerInterface interface {
	SendMessage(c fiber.Ctx) error
	SendBulk(c fiber.Ctx) error
	GetMessageStatus(c fiber.Ctx) error
	EnqueueEvent(c fiber.Ctx) error
	ListInstances(c fiber.Ctx) error
	Health(c fiber.Ctx) error
}

// MessageHandler handles the authenticated messaging API HTTP requests
type MessageHandler struct {
	messageFlow businessflow.MessageFlow
	validator   *validator.Validate
	version     string
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageFlow businessflow.MessageFlow, version string) *MessageHandler {
	return &MessageHandler{
		messageFlow: messageFlow,
		validator:   validator.New(),
		version:     version,
	}
}

func (h *MessageHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MessageHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *MessageHandler) project(c fiber.Ctx) (*models.APIProject, error) {
	project := middleware.ProjectFromContext(c)
	if project == nil {
		return nil, h.ErrorResponse(c, fiber.StatusUnauthorized, "Missing credentials", "MISSING_CREDENTIALS", nil)
	}
	return project, nil
}

func (h *MessageHandler) validate(c fiber.Ctx, req any) error {
	if err := h.validator.Struct(req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	return nil
}

// SendMessage handles a single outbound message submission
func (h *MessageHandler) SendMessage(c fiber.Ctx) error {
	project, errResp := h.project(c)
	if errResp != nil {
		return errResp
	}

	var req dto.SendMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validate(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.messageFlow.SendMessage(h.createRequestContext(c), project, &req, metadata)
	if err != nil {
		return h.mapMessageError(c, err, "Message sending failed", "MESSAGE_SEND_FAILED")
	}

	middleware.RecordMessageDispatched(result.Status)
	if result.Status == models.MessageStatusFailed.String() {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Message dispatch failed", "MESSAGE_DISPATCH_FAILED", result.Error)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Message sent", result)
}

// SendBulk handles a capped batch of outbound messages
func (h *MessageHandler) SendBulk(c fiber.Ctx) error {
	project, errResp := h.project(c)
	if errResp != nil {
		return errResp
	}

	var req dto.SendBulkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validate(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	// Sequential fan-out over up to 100 entries needs far more headroom than
	// a single send.
	result, err := h.messageFlow.SendBulk(h.createRequestContextWithTimeout(c, 5*time.Minute), project, &req, metadata)
	if err != nil {
		return h.mapMessageError(c, err, "Bulk sending failed", "BULK_SEND_FAILED")
	}

	for _, entry := range result.Results {
		if entry.Success {
			middleware.RecordMessageDispatched(models.MessageStatusSent.String())
		} else {
			middleware.RecordMessageDispatched(models.MessageStatusFailed.String())
		}
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bulk processed", result)
}

// GetMessageStatus handles the read-only status lookup by external message id
func (h *MessageHandler) GetMessageStatus(c fiber.Ctx) error {
	project, errResp := h.project(c)
	if errResp != nil {
		return errResp
	}

	messageID := c.Params("messageId")
	if messageID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Message id is required", "MISSING_MESSAGE_ID", nil)
	}

	result, err := h.messageFlow.GetMessageStatus(h.createRequestContext(c), project, messageID)
	if err != nil {
		if businessflow.IsMessageNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Message not found", "MESSAGE_NOT_FOUND", nil)
		}
		log.Println("Message status lookup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Message status lookup failed", "MESSAGE_STATUS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Message status", result)
}

// EnqueueEvent handles a project-submitted event for downstream automation
func (h *MessageHandler) EnqueueEvent(c fiber.Ctx) error {
	project, errResp := h.project(c)
	if errResp != nil {
		return errResp
	}

	var req dto.EventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validate(c, &req); err != nil {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.messageFlow.EnqueueEvent(h.createRequestContext(c), project, &req, metadata)
	if err != nil {
		log.Println("Event enqueue failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Event enqueue failed", "EVENT_ENQUEUE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Event enqueued", result)
}

// ListInstances handles listing the project's linked active instances
func (h *MessageHandler) ListInstances(c fiber.Ctx) error {
	project, errResp := h.project(c)
	if errResp != nil {
		return errResp
	}

	result, err := h.messageFlow.ListInstances(h.createRequestContext(c), project)
	if err != nil {
		log.Println("Instance listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Instance listing failed", "INSTANCE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Instances", result)
}

// Health is the unauthenticated liveness probe
func (h *MessageHandler) Health(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"timestamp": utils.UTCNow().Format(time.RFC3339),
		"version":   h.version,
	})
}

func (h *MessageHandler) mapMessageError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsInstanceNotLinked(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Instance not linked to project", "INSTANCE_NOT_LINKED", nil)
	}
	if businessflow.IsInstanceNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Instance not found", "INSTANCE_NOT_FOUND", nil)
	}
	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *MessageHandler) createRequestContext(c fiber.Ctx) context.Context {
	return h.createRequestContextWithTimeout(c, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func (h *MessageHandler) createRequestContextWithTimeout(c fiber.Ctx, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get(businessflow.RequestIDKey))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup
	return ctx
}
