package repository

import (
	"context"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// AutomationRuleRepositoryImpl implements AutomationRuleRepository
type AutomationRuleRepositoryImpl struct {
	*BaseRepository[models.AutomationRule, models.AutomationRuleFilter]
}

func NewAutomationRuleRepository(db *gorm.DB) AutomationRuleRepository {
	return &AutomationRuleRepositoryImpl{BaseRepository: NewBaseRepository[models.AutomationRule, models.AutomationRuleFilter](db)}
}

// ListActive returns the active rules matching one (instance, integration,
// event type) tuple, oldest first so the first-configured rule decides the
// event's campaign_triggered_id.
func (r *AutomationRuleRepositoryImpl) ListActive(ctx context.Context, instanceID, integrationID uint, eventType models.WebhookEventType) ([]*models.AutomationRule, error) {
	filter := models.AutomationRuleFilter{
		InstanceID:    &instanceID,
		IntegrationID: &integrationID,
		EventType:     &eventType,
		IsActive:      utils.ToPtr(true),
	}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

func (r *AutomationRuleRepositoryImpl) applyFilter(db *gorm.DB, f models.AutomationRuleFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.InstanceID != nil {
		db = db.Where("instance_id = ?", *f.InstanceID)
	}
	if f.IntegrationID != nil {
		db = db.Where("integration_id = ?", *f.IntegrationID)
	}
	if f.EventType != nil {
		db = db.Where("event_type = ?", *f.EventType)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	return db
}

func (r *AutomationRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.AutomationRuleFilter, orderBy string, limit, offset int) ([]*models.AutomationRule, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AutomationRule{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.AutomationRule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AutomationRuleRepositoryImpl) Count(ctx context.Context, filter models.AutomationRuleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.AutomationRule{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AutomationRuleRepositoryImpl) Exists(ctx context.Context, filter models.AutomationRuleFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
