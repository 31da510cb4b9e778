// Package businessflow contains the core business logic and use cases for the authenticated messaging API
package businessflow

import (
	"context"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// MessageFlow handles project-facing messaging operations
type MessageFlow interface {
	SendMessage(ctx context.Context, project *models.APIProject, req *dto.SendMessageRequest, metadata *ClientMetadata) (*dto.SendMessageResponse, error)
	SendBulk(ctx context.Context, project *models.APIProject, req *dto.SendBulkRequest, metadata *ClientMetadata) (*dto.SendBulkResponse, error)
	GetMessageStatus(ctx context.Context, project *models.APIProject, messageID string) (*dto.MessageStatusResponse, error)
	EnqueueEvent(ctx context.Context, project *models.APIProject, req *dto.EventRequest, metadata *ClientMetadata) (*dto.EventResponse, error)
	ListInstances(ctx context.Context, project *models.APIProject) (*dto.ListInstancesResponse, error)
}

// MessageFlowImpl implements the messaging business flow
type MessageFlowImpl struct {
	instanceRepo     repository.MessagingInstanceRepository
	messageLogRepo   repository.MessageLogRepository
	pendingEventRepo repository.PendingEventRepository
	dispatchClient   services.MessageDispatchClient
}

// NewMessageFlow creates a new message flow instance
func NewMessageFlow(
	instanceRepo repository.MessagingInstanceRepository,
	messageLogRepo repository.MessageLogRepository,
	pendingEventRepo repository.PendingEventRepository,
	dispatchClient services.MessageDispatchClient,
) MessageFlow {
	return &MessageFlowImpl{
		instanceRepo:     instanceRepo,
		messageLogRepo:   messageLogRepo,
		pendingEventRepo: pendingEventRepo,
		dispatchClient:   dispatchClient,
	}
}

// resolveInstance enforces tenancy before anything touches the network: an
// instance id outside the project's active links is rejected with no send
// attempt and no message log write.
func (s *MessageFlowImpl) resolveInstance(ctx context.Context, project *models.APIProject, instanceID uint) (*models.MessagingInstance, error) {
	linked, err := s.instanceRepo.IsLinkedToProject(ctx, project.ID, instanceID)
	if err != nil {
		return nil, NewBusinessError("INSTANCE_LOOKUP_FAILED", "Failed to check instance link", err)
	}
	if !linked {
		return nil, NewBusinessError("INSTANCE_NOT_LINKED", "Instance not linked to project", ErrInstanceNotLinked)
	}

	instance, err := s.instanceRepo.ByID(ctx, instanceID)
	if err != nil {
		return nil, NewBusinessError("INSTANCE_LOOKUP_FAILED", "Failed to load instance", err)
	}
	if instance == nil {
		return nil, NewBusinessError("INSTANCE_NOT_FOUND", "Instance not found", ErrInstanceNotFound)
	}
	return instance, nil
}

// SendMessage dispatches one message through the instance's backend. A
// downstream failure comes back as a failed response, already recorded in the
// message log, not as an error.
func (s *MessageFlowImpl) SendMessage(ctx context.Context, project *models.APIProject, req *dto.SendMessageRequest, metadata *ClientMetadata) (*dto.SendMessageResponse, error) {
	instance, err := s.resolveInstance(ctx, project, req.InstanceID)
	if err != nil {
		return nil, err
	}

	result, err := s.dispatchClient.Send(ctx, instance, req.To, req.Message, req.Type)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LOG_FAILED", "Failed to record send attempt", err)
	}

	return &dto.SendMessageResponse{
		MessageID: result.ExternalID,
		Status:    result.Status.String(),
		Error:     result.ErrorMessage,
	}, nil
}

// SendBulk fans a capped batch out sequentially. One entry's failure never
// aborts the batch; entries beyond the cap are silently ignored.
func (s *MessageFlowImpl) SendBulk(ctx context.Context, project *models.APIProject, req *dto.SendBulkRequest, metadata *ClientMetadata) (*dto.SendBulkResponse, error) {
	instance, err := s.resolveInstance(ctx, project, req.InstanceID)
	if err != nil {
		return nil, err
	}

	messages := req.Messages
	if len(messages) > utils.BulkMessageCap {
		messages = messages[:utils.BulkMessageCap]
	}

	resp := &dto.SendBulkResponse{
		Total:   len(messages),
		Results: make([]dto.BulkMessageResult, 0, len(messages)),
	}
	for _, item := range messages {
		result, err := s.dispatchClient.Send(ctx, instance, item.To, item.Message, item.Type)
		if err != nil {
			return nil, NewBusinessError("MESSAGE_LOG_FAILED", "Failed to record send attempt", err)
		}
		if result.Sent() {
			resp.Sent++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, dto.BulkMessageResult{
			To:        item.To,
			Success:   result.Sent(),
			MessageID: result.ExternalID,
			Error:     result.ErrorMessage,
		})
	}
	return resp, nil
}

// GetMessageStatus looks a send attempt up by the backend-assigned message id
func (s *MessageFlowImpl) GetMessageStatus(ctx context.Context, project *models.APIProject, messageID string) (*dto.MessageStatusResponse, error) {
	row, err := s.messageLogRepo.ByExternalID(ctx, messageID)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LOOKUP_FAILED", "Failed to load message", err)
	}
	if row == nil {
		return nil, NewBusinessError("MESSAGE_NOT_FOUND", "Message not found", ErrMessageNotFound)
	}

	return &dto.MessageStatusResponse{
		MessageID:   messageID,
		Recipient:   row.Recipient,
		Type:        row.Type,
		Status:      row.Status.String(),
		Error:       row.ErrorMessage,
		DeliveredAt: row.DeliveredAt,
		ReadAt:      row.ReadAt,
		CreatedAt:   row.CreatedAt,
	}, nil
}

// EnqueueEvent appends a project-submitted event to the pending queue for
// downstream automation
func (s *MessageFlowImpl) EnqueueEvent(ctx context.Context, project *models.APIProject, req *dto.EventRequest, metadata *ClientMetadata) (*dto.EventResponse, error) {
	event := &models.PendingEvent{
		ProjectID: project.ID,
		EventType: req.EventType,
		Data:      req.Data,
	}
	if err := s.pendingEventRepo.Save(ctx, event); err != nil {
		return nil, NewBusinessError("EVENT_ENQUEUE_FAILED", "Failed to enqueue event", err)
	}
	return &dto.EventResponse{EventID: event.UUID.String()}, nil
}

// ListInstances returns the project's linked active instances
func (s *MessageFlowImpl) ListInstances(ctx context.Context, project *models.APIProject) (*dto.ListInstancesResponse, error) {
	instances, err := s.instanceRepo.ListActiveByProject(ctx, project.ID)
	if err != nil {
		return nil, NewBusinessError("INSTANCE_LIST_FAILED", "Failed to list instances", err)
	}

	resp := &dto.ListInstancesResponse{
		Count:     len(instances),
		Instances: make([]dto.InstanceDTO, 0, len(instances)),
	}
	for _, instance := range instances {
		resp.Instances = append(resp.Instances, dto.InstanceDTO{
			ID:     instance.ID,
			Name:   instance.Name,
			Status: instance.Status.String(),
		})
	}
	return resp, nil
}
