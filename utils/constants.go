package utils

import (
	"time"
)

// Webhook normalization constants
const (
	// DefaultCountryCode is prefixed to 10/11-digit national numbers
	DefaultCountryCode = "55"

	// DefaultCurrency is assumed when the provider payload carries none
	DefaultCurrency = "BRL"

	// WebhookSource tags campaign contacts created by the webhook pipeline
	WebhookSource = "external-provider"
)

// API gateway constants
const (
	// BulkMessageCap is the hard ceiling on entries processed per send-bulk call
	BulkMessageCap = 100

	// DefaultRateLimitPerMinute applies when a project row carries no limit
	DefaultRateLimitPerMinute = 60

	// DefaultRateLimitPerDay applies when a project row carries no limit
	DefaultRateLimitPerDay = 10000

	// DispatchTimeout bounds the single outbound call to the messaging backend
	DispatchTimeout = 15 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Context keys for request-scoped values
const (
	RequestIDKey  ContextKey = "request_id"
	IPAddressKey  ContextKey = "ip_address"
	CancelFuncKey ContextKey = "cancel_func"
)
