// Package tests contains test cases for the gateway flows and repositories to avoid circular imports
package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDispatchClient(t *testing.T) {
	withTestDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		ctx := testingutil.CreateTestContext()
		messageLogRepo := repository.NewMessageLogRepository(testDB.DB)

		connectedInstance := func(backendURL string) *models.MessagingInstance {
			instance := &models.MessagingInstance{
				Name:          "dispatch-test",
				Status:        models.InstanceStatusConnected,
				BackendURL:    &backendURL,
				BackendToken:  utils.ToPtr("backend-token"),
				InstanceToken: utils.ToPtr("instance-token"),
			}
			require.NoError(t, testDB.DB.Create(instance).Error)
			return instance
		}

		t.Run("SuccessfulSend", func(t *testing.T) {
			var gotAuth, gotInstanceToken string
			var gotBody map[string]any
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotInstanceToken = r.Header.Get("X-Instance-Token")
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
				json.NewEncoder(w).Encode(map[string]any{"messageId": "backend-42"})
			}))
			defer backend.Close()

			client := services.NewHTTPDispatchClient(messageLogRepo, 0)
			instance := connectedInstance(backend.URL)

			result, err := client.Send(ctx, instance, "+55 11 99999-8888", "hello", "")
			require.NoError(t, err)
			assert.True(t, result.Sent())
			require.NotNil(t, result.ExternalID)
			assert.Equal(t, "backend-42", *result.ExternalID)

			assert.Equal(t, "Bearer backend-token", gotAuth)
			assert.Equal(t, "instance-token", gotInstanceToken)
			assert.Equal(t, "5511999998888", gotBody["to"])
			assert.Equal(t, "text", gotBody["type"])

			row, err := messageLogRepo.ByExternalID(ctx, "backend-42")
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.Equal(t, models.MessageStatusSent, row.Status)
			assert.Equal(t, "5511999998888", row.Recipient)
		})

		t.Run("BackendErrorBecomesFailedResult", func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				json.NewEncoder(w).Encode(map[string]any{"error": "session closed"})
			}))
			defer backend.Close()

			client := services.NewHTTPDispatchClient(messageLogRepo, 0)
			instance := connectedInstance(backend.URL)

			result, err := client.Send(ctx, instance, "+5511999998888", "hello", "text")
			require.NoError(t, err)
			assert.False(t, result.Sent())
			require.NotNil(t, result.ErrorMessage)
			assert.Contains(t, *result.ErrorMessage, "session closed")

			count, err := messageLogRepo.Count(ctx, models.MessageLogFilter{InstanceID: &instance.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("DisconnectedInstanceSkipsNetwork", func(t *testing.T) {
			backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("backend must not be called for a disconnected instance")
			}))
			defer backend.Close()

			instance := connectedInstance(backend.URL)
			instance.Status = models.InstanceStatusDisconnected

			client := services.NewHTTPDispatchClient(messageLogRepo, 0)
			result, err := client.Send(ctx, instance, "+5511999998888", "hello", "text")
			require.NoError(t, err)
			assert.False(t, result.Sent())
			require.NotNil(t, result.ErrorMessage)
			assert.Contains(t, *result.ErrorMessage, "not connected")

			// The failed attempt is still recorded.
			count, err := messageLogRepo.Count(ctx, models.MessageLogFilter{InstanceID: &instance.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("MissingBackendConfiguration", func(t *testing.T) {
			instance := &models.MessagingInstance{
				Name:   "no-backend",
				Status: models.InstanceStatusConnected,
			}
			require.NoError(t, testDB.DB.Create(instance).Error)

			client := services.NewHTTPDispatchClient(messageLogRepo, 0)
			result, err := client.Send(ctx, instance, "+5511999998888", "hello", "text")
			require.NoError(t, err)
			assert.False(t, result.Sent())
			require.NotNil(t, result.ErrorMessage)
			assert.Contains(t, *result.ErrorMessage, "backend not configured")
		})
	})
}
