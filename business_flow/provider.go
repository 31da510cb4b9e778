package businessflow

import (
	"github.com/amirphl/Susanoo/models"
)

// ProviderEvent is the provider-independent projection of one webhook
// delivery, ready for the ingestion pipeline.
type ProviderEvent struct {
	EventType  models.WebhookEventType
	ExternalID string
	Normalized models.NormalizedPayload
}

// ProviderHandler parses one provider's payload shape into a ProviderEvent.
// Adding a provider means implementing this and registering it; the webhook
// flow never switches on provider names.
type ProviderHandler interface {
	Name() string
	Parse(payload map[string]any) (*ProviderEvent, error)
}

// ProviderRegistry resolves a provider name to its handler. The registry is
// assembled once at startup and read-only afterward.
type ProviderRegistry struct {
	handlers        map[string]ProviderHandler
	defaultProvider string
}

func NewProviderRegistry(defaultProvider string, handlers ...ProviderHandler) *ProviderRegistry {
	r := &ProviderRegistry{
		handlers:        make(map[string]ProviderHandler, len(handlers)),
		defaultProvider: defaultProvider,
	}
	for _, h := range handlers {
		r.handlers[h.Name()] = h
	}
	return r
}

// Lookup returns the handler for the provider, falling back to the default
// provider when the name is empty (the bare /{integrationId} path shape).
func (r *ProviderRegistry) Lookup(provider string) (ProviderHandler, error) {
	if provider == "" {
		provider = r.defaultProvider
	}
	h, ok := r.handlers[provider]
	if !ok {
		return nil, ErrProviderNotSupported
	}
	return h, nil
}

// DefaultProviderRegistry wires the production provider set. An empty
// defaultProvider falls back to cakto, the oldest integration.
func DefaultProviderRegistry(defaultProvider string) *ProviderRegistry {
	if defaultProvider == "" {
		defaultProvider = "cakto"
	}
	return NewProviderRegistry(defaultProvider,
		&CaktoHandler{},
		&KirvanoHandler{},
		&HotmartHandler{},
	)
}

// CaktoHandler parses Cakto checkout/payment payloads.
type CaktoHandler struct{}

func (h *CaktoHandler) Name() string { return "cakto" }

func (h *CaktoHandler) Parse(payload map[string]any) (*ProviderEvent, error) {
	eventType, ok := ExtractEventType(payload)
	if !ok {
		return nil, ErrUnknownEventType
	}

	normalized := ExtractProductOffer(payload)
	name, email, phone := ExtractCustomer(payload)
	normalized.CustomerName = name
	normalized.CustomerEmail = email
	normalized.CustomerPhone = phone

	return &ProviderEvent{
		EventType:  eventType,
		ExternalID: ExtractExternalID(payload),
		Normalized: normalized,
	}, nil
}

// KirvanoHandler is registered but not implemented yet.
type KirvanoHandler struct{}

func (h *KirvanoHandler) Name() string { return "kirvano" }

func (h *KirvanoHandler) Parse(payload map[string]any) (*ProviderEvent, error) {
	return nil, ErrProviderNotImplemented
}

// HotmartHandler is registered but not implemented yet.
type HotmartHandler struct{}

func (h *HotmartHandler) Name() string { return "hotmart" }

func (h *HotmartHandler) Parse(payload map[string]any) (*ProviderEvent, error) {
	return nil, ErrProviderNotImplemented
}
