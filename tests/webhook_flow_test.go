// Package tests contains test cases for the gateway flows and repositories to avoid circular imports
package tests

import (
	"encoding/json"
	"testing"

	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookFlow(testDB *testingutil.TestDB) businessflow.WebhookFlow {
	eventRepo := repository.NewWebhookEventRepository(testDB.DB)
	dispatchFlow := businessflow.NewDispatchFlow(
		repository.NewAutomationRuleRepository(testDB.DB),
		repository.NewCampaignContactRepository(testDB.DB),
		eventRepo,
	)
	return businessflow.NewWebhookFlow(
		repository.NewIntegrationRepository(testDB.DB),
		eventRepo,
		repository.NewEventDedupRepository(testDB.DB),
		businessflow.DefaultProviderRegistry(""),
		dispatchFlow,
		testDB.DB,
		nil,
	)
}

func mustRawPayload(t *testing.T, payload map[string]any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return raw
}

func TestWebhookFlowProcessWebhook(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		flow := newWebhookFlow(testDB)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		instance, err := fixtures.CreateTestInstance()
		require.NoError(t, err)
		integration, err := fixtures.CreateTestIntegration(instance.ID, "cakto")
		require.NoError(t, err)
		_, err = fixtures.CreateTestRule(instance.ID, integration.ID, models.EventPurchaseApproved, 42)
		require.NoError(t, err)

		eventRepo := repository.NewWebhookEventRepository(testDB.DB)
		dedupRepo := repository.NewEventDedupRepository(testDB.DB)
		contactRepo := repository.NewCampaignContactRepository(testDB.DB)

		t.Run("AcceptsAndDispatches", func(t *testing.T) {
			payload := testingutil.WebhookPayload("purchase_approved", "evt-accept-1", "11999998888")
			result, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.NoError(t, err)

			assert.True(t, result.Success)
			assert.False(t, result.Deduplicated)
			require.NotNil(t, result.EventID)
			require.Len(t, result.Results, 1)
			assert.True(t, result.Results[0].Success)
			require.NotNil(t, result.Results[0].CampaignID)
			assert.Equal(t, uint(42), *result.Results[0].CampaignID)

			externalID := "evt-accept-1"
			events, err := eventRepo.ByFilter(ctx, models.WebhookEventFilter{ExternalID: &externalID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.True(t, events[0].Processed)
			require.NotNil(t, events[0].CampaignTriggeredID)
			assert.Equal(t, uint(42), *events[0].CampaignTriggeredID)

			contacts, err := contactRepo.ByFilter(ctx, models.CampaignContactFilter{CampaignID: utils.ToPtr(uint(42))}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, contacts, 1)
			assert.Equal(t, "+5511999998888", contacts[0].Phone)
			assert.Equal(t, models.ContactStatusPending, contacts[0].Status)
		})

		t.Run("DuplicateDeliveryIsIdempotent", func(t *testing.T) {
			payload := testingutil.WebhookPayload("purchase_approved", "evt-dup-1", "11988887777")
			first, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.NoError(t, err)
			assert.False(t, first.Deduplicated)

			second, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.NoError(t, err)
			assert.True(t, second.Success)
			assert.True(t, second.Deduplicated)

			externalID := "evt-dup-1"
			events, err := eventRepo.ByFilter(ctx, models.WebhookEventFilter{ExternalID: &externalID}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, events, 1)

			dedup, err := dedupRepo.ByScope(ctx, instance.ID, externalID, models.EventPurchaseApproved)
			require.NoError(t, err)
			assert.NotNil(t, dedup)
		})

		t.Run("InsertRaceLoserAnswersDeduplicated", func(t *testing.T) {
			externalID := "evt-race-1"
			payload := testingutil.WebhookPayload("purchase_approved", externalID, "11922221111")

			// A concurrent delivery's event row already landed, but its dedup
			// row is not visible to this request's fast-path lookup. The
			// event table's unique constraint decides, and the loser must
			// still answer success with the dedup marker.
			winner := &models.WebhookEvent{
				InstanceID:    instance.ID,
				IntegrationID: integration.ID,
				EventType:     models.EventPurchaseApproved,
				ExternalID:    externalID,
				RawPayload:    mustRawPayload(t, payload),
			}
			require.NoError(t, testDB.DB.Create(winner).Error)

			result, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.True(t, result.Deduplicated)

			events, err := eventRepo.ByFilter(ctx, models.WebhookEventFilter{ExternalID: &externalID}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, events, 1)

			// The losing transaction's dedup insert rolled back with it.
			dedup, err := dedupRepo.ByScope(ctx, instance.ID, externalID, models.EventPurchaseApproved)
			require.NoError(t, err)
			assert.Nil(t, dedup)
		})

		t.Run("SameIDDifferentEventTypeIsSeparate", func(t *testing.T) {
			approved := testingutil.WebhookPayload("purchase_approved", "evt-shared-id", "11977776666")
			refunded := testingutil.WebhookPayload("purchase_refunded", "evt-shared-id", "11977776666")

			first, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, approved, mustRawPayload(t, approved), metadata)
			require.NoError(t, err)
			assert.False(t, first.Deduplicated)

			second, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, refunded, mustRawPayload(t, refunded), metadata)
			require.NoError(t, err)
			assert.False(t, second.Deduplicated)
		})

		t.Run("NoPhoneStillStoresEvent", func(t *testing.T) {
			payload := map[string]any{
				"event": "pix_generated",
				"id":    "evt-nophone-1",
				"customer": map[string]any{
					"name": "Jane Doe",
				},
			}
			result, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Contains(t, result.Message, "no valid phone")
			assert.Empty(t, result.Results)

			externalID := "evt-nophone-1"
			events, err := eventRepo.ByFilter(ctx, models.WebhookEventFilter{ExternalID: &externalID}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.True(t, events[0].Processed)
			assert.Nil(t, events[0].CampaignTriggeredID)
			require.NotNil(t, events[0].ErrorMessage)
			assert.Equal(t, "No valid phone number found", *events[0].ErrorMessage)
		})

		t.Run("NoActiveRulesStillAccepts", func(t *testing.T) {
			payload := testingutil.WebhookPayload("checkout_abandonment", "evt-norules-1", "11966665555")
			result, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Contains(t, result.Message, "no active rules")
			assert.Empty(t, result.Results)
		})

		t.Run("UnknownEventTypeStoresNothing", func(t *testing.T) {
			payload := map[string]any{"event": "mystery", "id": "evt-unknown-1"}
			_, err := flow.ProcessWebhook(ctx, "cakto", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsUnknownEventType(err))

			externalID := "evt-unknown-1"
			events, err := eventRepo.ByFilter(ctx, models.WebhookEventFilter{ExternalID: &externalID}, "", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, events)
		})

		t.Run("UnknownIntegration", func(t *testing.T) {
			payload := testingutil.WebhookPayload("purchase_approved", "evt-badint-1", "11955554444")
			_, err := flow.ProcessWebhook(ctx, "cakto", 99999, payload, mustRawPayload(t, payload), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIntegrationNotFound(err))
		})

		t.Run("DisconnectedIntegration", func(t *testing.T) {
			disconnected := &models.Integration{
				InstanceID: instance.ID,
				Provider:   "cakto",
				Status:     models.IntegrationStatusDisconnected,
			}
			require.NoError(t, testDB.DB.Create(disconnected).Error)

			payload := testingutil.WebhookPayload("purchase_approved", "evt-disc-1", "11944443333")
			_, err := flow.ProcessWebhook(ctx, "cakto", disconnected.ID, payload, mustRawPayload(t, payload), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsIntegrationNotConnected(err))
		})

		t.Run("UnknownProvider", func(t *testing.T) {
			payload := testingutil.WebhookPayload("purchase_approved", "evt-prov-1", "11933332222")
			_, err := flow.ProcessWebhook(ctx, "stripe", integration.ID, payload, mustRawPayload(t, payload), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsProviderNotSupported(err))
		})
	})
}
