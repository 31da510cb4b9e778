// Package tests contains test cases for the gateway flows and repositories to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookEventRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewWebhookEventRepository(testDB.DB)

		instance, err := fixtures.CreateTestInstance()
		require.NoError(t, err)
		integration, err := fixtures.CreateTestIntegration(instance.ID, "cakto")
		require.NoError(t, err)

		t.Run("DuplicateInsertIsMapped", func(t *testing.T) {
			first := &models.WebhookEvent{
				InstanceID:    instance.ID,
				IntegrationID: integration.ID,
				EventType:     models.EventPurchaseApproved,
				ExternalID:    "evt-unique-1",
				RawPayload:    []byte(`{}`),
			}
			require.NoError(t, repo.Save(ctx, first))

			second := &models.WebhookEvent{
				InstanceID:    instance.ID,
				IntegrationID: integration.ID,
				EventType:     models.EventPurchaseApproved,
				ExternalID:    "evt-unique-1",
				RawPayload:    []byte(`{}`),
			}
			err := repo.Save(ctx, second)
			assert.ErrorIs(t, err, repository.ErrDuplicateEvent)
		})

		t.Run("MarkProcessed", func(t *testing.T) {
			event, err := fixtures.CreateTestEvent(instance.ID, integration.ID, models.EventPixGenerated)
			require.NoError(t, err)
			require.False(t, event.Processed)

			require.NoError(t, repo.MarkProcessed(ctx, event.ID, utils.ToPtr(uint(7)), nil))

			stored, err := repo.ByID(ctx, event.ID)
			require.NoError(t, err)
			assert.True(t, stored.Processed)
			assert.NotNil(t, stored.ProcessedAt)
			require.NotNil(t, stored.CampaignTriggeredID)
			assert.Equal(t, uint(7), *stored.CampaignTriggeredID)
			assert.Nil(t, stored.ErrorMessage)
		})
	})
}

func TestEventDedupRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewEventDedupRepository(testDB.DB)

		instance, err := fixtures.CreateTestInstance()
		require.NoError(t, err)

		t.Run("ByScope", func(t *testing.T) {
			row := &models.EventDedup{
				InstanceID: instance.ID,
				ExternalID: "evt-scope-1",
				EventType:  models.EventPurchaseApproved,
			}
			require.NoError(t, repo.Save(ctx, row))

			found, err := repo.ByScope(ctx, instance.ID, "evt-scope-1", models.EventPurchaseApproved)
			require.NoError(t, err)
			assert.NotNil(t, found)

			// Same id under a different event type is a different scope.
			miss, err := repo.ByScope(ctx, instance.ID, "evt-scope-1", models.EventPurchaseRefunded)
			require.NoError(t, err)
			assert.Nil(t, miss)
		})

		t.Run("DuplicateScopeIsMapped", func(t *testing.T) {
			row := &models.EventDedup{
				InstanceID: instance.ID,
				ExternalID: "evt-scope-2",
				EventType:  models.EventPixGenerated,
			}
			require.NoError(t, repo.Save(ctx, row))

			dup := &models.EventDedup{
				InstanceID: instance.ID,
				ExternalID: "evt-scope-2",
				EventType:  models.EventPixGenerated,
			}
			assert.ErrorIs(t, repo.Save(ctx, dup), repository.ErrDuplicateEvent)
		})
	})
}

func TestCampaignContactRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		ctx := testingutil.CreateTestContext()
		repo := repository.NewCampaignContactRepository(testDB.DB)

		t.Run("UpsertReplacesOnConflict", func(t *testing.T) {
			first := &models.CampaignContact{
				CampaignID: 1,
				Phone:      "+5511999998888",
				Name:       utils.ToPtr("Jane"),
				Status:     models.ContactStatusSent,
				Metadata: models.ContactMetadata{
					Source:  utils.WebhookSource,
					EventID: "evt-old",
				},
			}
			require.NoError(t, repo.Upsert(ctx, first))

			second := &models.CampaignContact{
				CampaignID: 1,
				Phone:      "+5511999998888",
				Name:       utils.ToPtr("Jane Doe"),
				Status:     models.ContactStatusPending,
				Metadata: models.ContactMetadata{
					Source:  utils.WebhookSource,
					EventID: "evt-new",
				},
			}
			require.NoError(t, repo.Upsert(ctx, second))

			contacts, err := repo.ByFilter(ctx, models.CampaignContactFilter{CampaignID: utils.ToPtr(uint(1))}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, contacts, 1)
			require.NotNil(t, contacts[0].Name)
			assert.Equal(t, "Jane Doe", *contacts[0].Name)
			assert.Equal(t, models.ContactStatusPending, contacts[0].Status)
			assert.Equal(t, "evt-new", contacts[0].Metadata.EventID)
		})

		t.Run("SamePhoneDifferentCampaign", func(t *testing.T) {
			contact := &models.CampaignContact{
				CampaignID: 2,
				Phone:      "+5511999998888",
				Status:     models.ContactStatusPending,
			}
			require.NoError(t, repo.Upsert(ctx, contact))

			count, err := repo.Count(ctx, models.CampaignContactFilter{Phone: utils.ToPtr("+5511999998888")})
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})
	})
}

func TestAPIProjectRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewAPIProjectRepository(testDB.DB)

		project, err := fixtures.CreateTestProject()
		require.NoError(t, err)

		t.Run("ByCredentials", func(t *testing.T) {
			found, err := repo.ByCredentials(ctx, project.APIKey, project.APISecret)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, project.ID, found.ID)
		})

		t.Run("WrongSecret", func(t *testing.T) {
			found, err := repo.ByCredentials(ctx, project.APIKey, "wrong")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("UnknownKey", func(t *testing.T) {
			found, err := repo.ByCredentials(ctx, "missing", project.APISecret)
			require.NoError(t, err)
			assert.Nil(t, found)
		})
	})
}

func TestAPIRequestLogRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewAPIRequestLogRepository(testDB.DB)

		project, err := fixtures.CreateTestProject()
		require.NoError(t, err)

		now := utils.UTCNow()
		rows := []*models.APIRequestLog{
			{ProjectID: project.ID, Method: "POST", Endpoint: "/api/v1/send", StatusCode: 200, LatencyMS: 12, CreatedAt: now.Add(-30 * time.Second)},
			{ProjectID: project.ID, Method: "POST", Endpoint: "/api/v1/send", StatusCode: 429, LatencyMS: 1, CreatedAt: now.Add(-45 * time.Second)},
			{ProjectID: project.ID, Method: "GET", Endpoint: "/api/v1/instances", StatusCode: 200, LatencyMS: 5, CreatedAt: now.Add(-2 * time.Hour)},
		}
		for _, row := range rows {
			require.NoError(t, repo.Save(ctx, row))
		}

		t.Run("CountSinceRollingMinute", func(t *testing.T) {
			count, err := repo.CountSince(ctx, project.ID, now.Add(-time.Minute))
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})

		t.Run("CountSinceCoversOlderRows", func(t *testing.T) {
			count, err := repo.CountSince(ctx, project.ID, now.Add(-3*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		t.Run("OtherProjectIsIsolated", func(t *testing.T) {
			other, err := fixtures.CreateTestProject()
			require.NoError(t, err)
			count, err := repo.CountSince(ctx, other.ID, now.Add(-time.Minute))
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)
		})
	})
}

func TestMessageLogRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewMessageLogRepository(testDB.DB)

		instance, err := fixtures.CreateTestInstance()
		require.NoError(t, err)

		t.Run("ByExternalIDReturnsNewest", func(t *testing.T) {
			old := &models.MessageLog{
				InstanceID: instance.ID,
				Recipient:  "5511999998888",
				Type:       "text",
				Content:    "first",
				Status:     models.MessageStatusFailed,
				ExternalID: utils.ToPtr("msg-ext-1"),
			}
			require.NoError(t, repo.Save(ctx, old))

			newer := &models.MessageLog{
				InstanceID: instance.ID,
				Recipient:  "5511999998888",
				Type:       "text",
				Content:    "second",
				Status:     models.MessageStatusSent,
				ExternalID: utils.ToPtr("msg-ext-1"),
			}
			require.NoError(t, repo.Save(ctx, newer))

			found, err := repo.ByExternalID(ctx, "msg-ext-1")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "second", found.Content)
		})

		t.Run("ByExternalIDNotFound", func(t *testing.T) {
			found, err := repo.ByExternalID(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, found)
		})
	})
}

func TestMessagingInstanceRepository(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		repo := repository.NewMessagingInstanceRepository(testDB.DB)

		project, err := fixtures.CreateTestProject()
		require.NoError(t, err)
		linked, err := fixtures.CreateTestInstance()
		require.NoError(t, err)
		unlinked, err := fixtures.CreateTestInstance()
		require.NoError(t, err)
		_, err = fixtures.LinkProjectToInstance(project.ID, linked.ID)
		require.NoError(t, err)

		t.Run("ListActiveByProject", func(t *testing.T) {
			instances, err := repo.ListActiveByProject(ctx, project.ID)
			require.NoError(t, err)
			require.Len(t, instances, 1)
			assert.Equal(t, linked.ID, instances[0].ID)
		})

		t.Run("IsLinkedToProject", func(t *testing.T) {
			ok, err := repo.IsLinkedToProject(ctx, project.ID, linked.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = repo.IsLinkedToProject(ctx, project.ID, unlinked.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	})
}
