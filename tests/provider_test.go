// Package tests contains test cases for the gateway flows and repositories to avoid circular imports
package tests

import (
	"testing"

	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/models"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderRegistry(t *testing.T) {
	registry := businessflow.DefaultProviderRegistry("")

	t.Run("LookupByName", func(t *testing.T) {
		handler, err := registry.Lookup("cakto")
		require.NoError(t, err)
		assert.Equal(t, "cakto", handler.Name())
	})

	t.Run("EmptyNameFallsBackToDefault", func(t *testing.T) {
		handler, err := registry.Lookup("")
		require.NoError(t, err)
		assert.Equal(t, "cakto", handler.Name())
	})

	t.Run("ConfiguredDefault", func(t *testing.T) {
		custom := businessflow.DefaultProviderRegistry("hotmart")
		handler, err := custom.Lookup("")
		require.NoError(t, err)
		assert.Equal(t, "hotmart", handler.Name())
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		_, err := registry.Lookup("stripe")
		assert.ErrorIs(t, err, businessflow.ErrProviderNotSupported)
	})

	t.Run("NotImplementedProviders", func(t *testing.T) {
		for _, name := range []string{"kirvano", "hotmart"} {
			handler, err := registry.Lookup(name)
			require.NoError(t, err)
			_, err = handler.Parse(map[string]any{"event": "purchase_approved"})
			assert.ErrorIs(t, err, businessflow.ErrProviderNotImplemented)
		}
	})
}

func TestCaktoHandlerParse(t *testing.T) {
	registry := businessflow.DefaultProviderRegistry("")
	handler, err := registry.Lookup("cakto")
	require.NoError(t, err)

	t.Run("FullPayload", func(t *testing.T) {
		event, err := handler.Parse(testingutil.WebhookPayload("purchase_approved", "evt-123", "11999998888"))
		require.NoError(t, err)
		assert.Equal(t, models.EventPurchaseApproved, event.EventType)
		assert.Equal(t, "evt-123", event.ExternalID)
		require.NotNil(t, event.Normalized.CustomerName)
		assert.Equal(t, "Jane Doe", *event.Normalized.CustomerName)
		require.NotNil(t, event.Normalized.CustomerPhone)
		assert.Equal(t, "+5511999998888", *event.Normalized.CustomerPhone)
		require.NotNil(t, event.Normalized.ProductName)
		assert.Equal(t, "Pro Plan", *event.Normalized.ProductName)
		require.NotNil(t, event.Normalized.OrderValue)
		assert.Equal(t, 199.9, *event.Normalized.OrderValue)
		assert.Equal(t, "BRL", event.Normalized.Currency)
	})

	t.Run("UnknownEventType", func(t *testing.T) {
		_, err := handler.Parse(map[string]any{"event": "mystery"})
		assert.ErrorIs(t, err, businessflow.ErrUnknownEventType)
	})

	t.Run("MissingEventType", func(t *testing.T) {
		_, err := handler.Parse(map[string]any{"id": "evt-1"})
		assert.ErrorIs(t, err, businessflow.ErrUnknownEventType)
	})
}
