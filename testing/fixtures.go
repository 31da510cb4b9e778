// Package testing provides test utilities and database setup for testing the event gateway
package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestInstance creates a connected messaging instance with backend coordinates
func (tf *TestFixtures) CreateTestInstance() (*models.MessagingInstance, error) {
	instance := &models.MessagingInstance{
		Name:         fmt.Sprintf("test-instance-%d", rand.Intn(10000000)),
		Status:       models.InstanceStatusConnected,
		BackendURL:   utils.ToPtr("http://localhost:9100"),
		BackendToken: utils.ToPtr("test-backend-token"),
	}

	if err := tf.DB.DB.Create(instance).Error; err != nil {
		return nil, fmt.Errorf("failed to create test instance: %w", err)
	}

	return instance, nil
}

// CreateTestIntegration creates a connected integration for the instance
func (tf *TestFixtures) CreateTestIntegration(instanceID uint, provider string) (*models.Integration, error) {
	integration := &models.Integration{
		InstanceID: instanceID,
		Provider:   provider,
		Status:     models.IntegrationStatusConnected,
	}

	if err := tf.DB.DB.Create(integration).Error; err != nil {
		return nil, fmt.Errorf("failed to create test integration: %w", err)
	}

	return integration, nil
}

// CreateTestRule creates an active automation rule bound to a campaign
func (tf *TestFixtures) CreateTestRule(instanceID, integrationID uint, eventType models.WebhookEventType, campaignID uint) (*models.AutomationRule, error) {
	rule := &models.AutomationRule{
		InstanceID:    instanceID,
		IntegrationID: integrationID,
		EventType:     eventType,
		IsActive:      utils.ToPtr(true),
		CampaignID:    &campaignID,
	}

	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test rule: %w", err)
	}

	return rule, nil
}

// CreateTestProject creates an active API project with generated credentials
func (tf *TestFixtures) CreateTestProject() (*models.APIProject, error) {
	suffix := rand.Intn(10000000)
	project := &models.APIProject{
		Name:               fmt.Sprintf("test-project-%d", suffix),
		APIKey:             fmt.Sprintf("key-%d", suffix),
		APISecret:          fmt.Sprintf("secret-%d", suffix),
		IsActive:           utils.ToPtr(true),
		RateLimitPerMinute: 60,
		RateLimitPerDay:    10000,
	}

	if err := tf.DB.DB.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create test project: %w", err)
	}

	return project, nil
}

// LinkProjectToInstance creates an active project-instance link
func (tf *TestFixtures) LinkProjectToInstance(projectID, instanceID uint) (*models.ProjectInstanceLink, error) {
	link := &models.ProjectInstanceLink{
		ProjectID:  projectID,
		InstanceID: instanceID,
		IsActive:   utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create project-instance link: %w", err)
	}

	return link, nil
}

// CreateTestEvent creates an unprocessed webhook event with a normalized phone
func (tf *TestFixtures) CreateTestEvent(instanceID, integrationID uint, eventType models.WebhookEventType) (*models.WebhookEvent, error) {
	externalID := fmt.Sprintf("evt-%d", rand.Intn(10000000))
	event := &models.WebhookEvent{
		InstanceID:    instanceID,
		IntegrationID: integrationID,
		EventType:     eventType,
		ExternalID:    externalID,
		RawPayload:    []byte(`{"event":"` + eventType.String() + `"}`),
		Normalized: models.NormalizedPayload{
			CustomerName:  utils.ToPtr("Jane Doe"),
			CustomerPhone: utils.ToPtr("+5511999998888"),
			Currency:      utils.DefaultCurrency,
		},
	}

	if err := tf.DB.DB.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to create test event: %w", err)
	}

	return event, nil
}

// WebhookPayload builds a provider-shaped payload for ingestion tests
func WebhookPayload(eventType, externalID, phone string) map[string]any {
	return map[string]any{
		"event": eventType,
		"id":    externalID,
		"customer": map[string]any{
			"name":  "Jane Doe",
			"phone": phone,
		},
		"product": map[string]any{
			"name": "Pro Plan",
		},
		"order": map[string]any{
			"total":    float64(199.9),
			"currency": "BRL",
		},
	}
}
