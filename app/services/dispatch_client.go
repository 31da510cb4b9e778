// Package services provides clients for downstream systems
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/sony/gobreaker"
)

// DispatchResult is the structured outcome of one send attempt. Network-level
// failures are converted into a failed result, never propagated as errors.
type DispatchResult struct {
	Status       models.MessageStatus
	ExternalID   *string
	ErrorMessage *string
}

// Sent reports whether the backend accepted the message
func (r *DispatchResult) Sent() bool {
	return r.Status == models.MessageStatusSent
}

// MessageDispatchClient submits one message to the instance's messaging
// backend and records a MessageLog row per attempt.
type MessageDispatchClient interface {
	Send(ctx context.Context, instance *models.MessagingInstance, to, content, msgType string) (*DispatchResult, error)
}

type backendSendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type backendSendResponse struct {
	ID        *string `json:"id"`
	MessageID *string `json:"messageId"`
	Error     *string `json:"error"`
}

type httpDispatchClient struct {
	client         *http.Client
	breaker        *gobreaker.CircuitBreaker
	messageLogRepo repository.MessageLogRepository
}

// NewHTTPDispatchClient creates the production dispatch client. The circuit
// breaker sheds traffic to a backend that keeps failing so a dead downstream
// cannot pin request handlers for the full timeout each call.
func NewHTTPDispatchClient(messageLogRepo repository.MessageLogRepository, timeout time.Duration) MessageDispatchClient {
	if timeout <= 0 {
		timeout = utils.DispatchTimeout
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "messaging-backend",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})
	return &httpDispatchClient{
		client: &http.Client{
			Timeout: timeout,
		},
		breaker:        breaker,
		messageLogRepo: messageLogRepo,
	}
}

// Send checks the instance preconditions, performs at most one outbound HTTP
// call and always persists a MessageLog row reflecting the outcome. The
// returned error covers only datastore failures.
func (c *httpDispatchClient) Send(ctx context.Context, instance *models.MessagingInstance, to, content, msgType string) (*DispatchResult, error) {
	if msgType == "" {
		msgType = "text"
	}

	var result *DispatchResult
	switch {
	case !instance.IsConnected():
		result = failedResult("instance is not connected")
	case !instance.HasBackend():
		result = failedResult("messaging backend not configured")
	default:
		result = c.attempt(ctx, instance, to, content, msgType)
	}

	logRow := &models.MessageLog{
		InstanceID:   instance.ID,
		Recipient:    utils.DigitsOnly(to),
		Type:         msgType,
		Content:      content,
		Status:       result.Status,
		ExternalID:   result.ExternalID,
		ErrorMessage: result.ErrorMessage,
	}
	if err := c.messageLogRepo.Save(ctx, logRow); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *httpDispatchClient) attempt(ctx context.Context, instance *models.MessagingInstance, to, content, msgType string) *DispatchResult {
	body, err := json.Marshal(backendSendRequest{
		To:      utils.DigitsOnly(to),
		Message: content,
		Type:    msgType,
	})
	if err != nil {
		return failedResult(err.Error())
	}

	out, err := c.breaker.Execute(func() (any, error) {
		url := *instance.BackendURL + "/send"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+*instance.BackendToken)
		if instance.InstanceToken != nil {
			req.Header.Set("X-Instance-Token", *instance.InstanceToken)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		var parsed backendSendResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil && resp.StatusCode < 300 {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if parsed.Error != nil {
				return nil, fmt.Errorf("backend send status %d: %s", resp.StatusCode, *parsed.Error)
			}
			return nil, fmt.Errorf("backend send status %d", resp.StatusCode)
		}
		return &parsed, nil
	})
	if err != nil {
		return failedResult(err.Error())
	}

	parsed := out.(*backendSendResponse)
	externalID := parsed.MessageID
	if externalID == nil {
		externalID = parsed.ID
	}
	return &DispatchResult{
		Status:     models.MessageStatusSent,
		ExternalID: externalID,
	}
}

func failedResult(message string) *DispatchResult {
	return &DispatchResult{
		Status:       models.MessageStatusFailed,
		ErrorMessage: utils.ToPtr(message),
	}
}
