package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrDuplicateEvent reports that an insert hit the (integration, external id,
// event type) uniqueness constraint. The constraint, not the dedup lookup, is
// the authoritative idempotency guarantee: concurrent duplicate deliveries
// race to insert, exactly one wins, and the loser must observe this error and
// treat the delivery as an already-accepted no-op.
var ErrDuplicateEvent = errors.New("duplicate webhook event")

// WebhookEventRepositoryImpl implements WebhookEventRepository
type WebhookEventRepositoryImpl struct {
	*BaseRepository[models.WebhookEvent, models.WebhookEventFilter]
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &WebhookEventRepositoryImpl{BaseRepository: NewBaseRepository[models.WebhookEvent, models.WebhookEventFilter](db)}
}

// Save inserts the event, translating a unique-constraint violation into
// ErrDuplicateEvent so callers can answer the losing writer with success.
func (r *WebhookEventRepositoryImpl) Save(ctx context.Context, event *models.WebhookEvent) error {
	err := r.BaseRepository.Save(ctx, event)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEvent
	}
	return err
}

// MarkProcessed flips the event to processed exactly once, recording either
// the first triggered campaign or the failure reason.
func (r *WebhookEventRepositoryImpl) MarkProcessed(ctx context.Context, id uint, campaignID *uint, errorMessage *string) error {
	db := r.getDB(ctx)
	return db.Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed":             true,
			"processed_at":          utils.UTCNow(),
			"campaign_triggered_id": campaignID,
			"error_message":         errorMessage,
		}).Error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (r *WebhookEventRepositoryImpl) applyFilter(db *gorm.DB, f models.WebhookEventFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
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
	if f.ExternalID != nil {
		db = db.Where("external_id = ?", *f.ExternalID)
	}
	if f.Processed != nil {
		db = db.Where("processed = ?", *f.Processed)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *WebhookEventRepositoryImpl) ByFilter(ctx context.Context, filter models.WebhookEventFilter, orderBy string, limit, offset int) ([]*models.WebhookEvent, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.WebhookEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.WebhookEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *WebhookEventRepositoryImpl) Count(ctx context.Context, filter models.WebhookEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.WebhookEvent{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *WebhookEventRepositoryImpl) Exists(ctx context.Context, filter models.WebhookEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
