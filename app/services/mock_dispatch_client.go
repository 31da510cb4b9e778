package services

import (
	"context"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
)

// MockDispatchClient is a configurable in-memory dispatch client for tests
type MockDispatchClient struct {
	NextExternalID string
	FailWith       string
	Calls          []MockDispatchCall
}

// MockDispatchCall records one Send invocation
type MockDispatchCall struct {
	InstanceID uint
	To         string
	Content    string
	Type       string
}

func NewMockDispatchClient() *MockDispatchClient {
	return &MockDispatchClient{NextExternalID: "mock-message-id"}
}

func (m *MockDispatchClient) Send(ctx context.Context, instance *models.MessagingInstance, to, content, msgType string) (*DispatchResult, error) {
	if msgType == "" {
		msgType = "text"
	}
	m.Calls = append(m.Calls, MockDispatchCall{
		InstanceID: instance.ID,
		To:         to,
		Content:    content,
		Type:       msgType,
	})
	if !instance.IsConnected() {
		return failedResult("instance is not connected"), nil
	}
	if !instance.HasBackend() {
		return failedResult("messaging backend not configured"), nil
	}
	if m.FailWith != "" {
		return failedResult(m.FailWith), nil
	}
	return &DispatchResult{
		Status:     models.MessageStatusSent,
		ExternalID: utils.ToPtr(m.NextExternalID),
	}, nil
}
