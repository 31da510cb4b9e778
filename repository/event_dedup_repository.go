package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// EventDedupRepositoryImpl implements EventDedupRepository
type EventDedupRepositoryImpl struct {
	*BaseRepository[models.EventDedup, models.EventDedupFilter]
}

func NewEventDedupRepository(db *gorm.DB) EventDedupRepository {
	return &EventDedupRepositoryImpl{BaseRepository: NewBaseRepository[models.EventDedup, models.EventDedupFilter](db)}
}

// ByScope looks up the ledger entry for one (instance, external id, event type)
// tuple. A nil result means the delivery has not been seen before; this is the
// fast path only, the table's unique index is the correctness guarantee.
func (r *EventDedupRepositoryImpl) ByScope(ctx context.Context, instanceID uint, externalID string, eventType models.WebhookEventType) (*models.EventDedup, error) {
	db := r.getDB(ctx)
	var row models.EventDedup
	err := db.Where("instance_id = ? AND external_id = ? AND event_type = ?", instanceID, externalID, eventType).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Save inserts the ledger row, mapping a lost insert race to ErrDuplicateEvent.
func (r *EventDedupRepositoryImpl) Save(ctx context.Context, row *models.EventDedup) error {
	err := r.BaseRepository.Save(ctx, row)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEvent
	}
	return err
}

func (r *EventDedupRepositoryImpl) applyFilter(db *gorm.DB, f models.EventDedupFilter) *gorm.DB {
	if f.InstanceID != nil {
		db = db.Where("instance_id = ?", *f.InstanceID)
	}
	if f.ExternalID != nil {
		db = db.Where("external_id = ?", *f.ExternalID)
	}
	if f.EventType != nil {
		db = db.Where("event_type = ?", *f.EventType)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *EventDedupRepositoryImpl) ByFilter(ctx context.Context, filter models.EventDedupFilter, orderBy string, limit, offset int) ([]*models.EventDedup, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.EventDedup{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.EventDedup
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *EventDedupRepositoryImpl) Count(ctx context.Context, filter models.EventDedupFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.EventDedup{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EventDedupRepositoryImpl) Exists(ctx context.Context, filter models.EventDedupFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
