// Package businessflow contains the core business logic and use cases for event ingestion and message dispatch workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Integration/webhook errors
	ErrIntegrationNotFound     = errors.New("integration not found")
	ErrIntegrationNotConnected = errors.New("integration is not connected")
	ErrUnknownEventType        = errors.New("unknown event type")
	// The text is stored verbatim as the event's error message; callers
	// match it byte for byte.
	ErrNoValidPhone           = errors.New("No valid phone number found")
	ErrProviderNotSupported   = errors.New("provider not supported")
	ErrProviderNotImplemented = errors.New("provider handler not implemented")
	ErrRuleWithoutCampaign    = errors.New("no campaign configured for rule")
	ErrNoActiveRules          = errors.New("no active rules")

	// Messaging errors
	ErrInstanceNotFound  = errors.New("instance not found")
	ErrInstanceNotLinked = errors.New("instance not linked to project")
	ErrMessageNotFound   = errors.New("message not found")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsIntegrationNotFound(err error) bool {
	return errors.Is(err, ErrIntegrationNotFound)
}

func IsIntegrationNotConnected(err error) bool {
	return errors.Is(err, ErrIntegrationNotConnected)
}

func IsUnknownEventType(err error) bool {
	return errors.Is(err, ErrUnknownEventType)
}

func IsProviderNotSupported(err error) bool {
	return errors.Is(err, ErrProviderNotSupported)
}

func IsProviderNotImplemented(err error) bool {
	return errors.Is(err, ErrProviderNotImplemented)
}

func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

func IsInstanceNotLinked(err error) bool {
	return errors.Is(err, ErrInstanceNotLinked)
}

func IsMessageNotFound(err error) bool {
	return errors.Is(err, ErrMessageNotFound)
}
