package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// MessageLogRepositoryImpl implements MessageLogRepository
type MessageLogRepositoryImpl struct {
	*BaseRepository[models.MessageLog, models.MessageLogFilter]
}

func NewMessageLogRepository(db *gorm.DB) MessageLogRepository {
	return &MessageLogRepositoryImpl{BaseRepository: NewBaseRepository[models.MessageLog, models.MessageLogFilter](db)}
}

// ByExternalID resolves a send attempt by the id the messaging backend
// assigned to it. Returns the newest match; backends may reuse ids across
// reconnects.
func (r *MessageLogRepositoryImpl) ByExternalID(ctx context.Context, externalID string) (*models.MessageLog, error) {
	db := r.getDB(ctx)
	var row models.MessageLog
	err := db.Where("external_id = ?", externalID).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *MessageLogRepositoryImpl) applyFilter(db *gorm.DB, f models.MessageLogFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.InstanceID != nil {
		db = db.Where("instance_id = ?", *f.InstanceID)
	}
	if f.Recipient != nil {
		db = db.Where("recipient = ?", *f.Recipient)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.ExternalID != nil {
		db = db.Where("external_id = ?", *f.ExternalID)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *MessageLogRepositoryImpl) ByFilter(ctx context.Context, filter models.MessageLogFilter, orderBy string, limit, offset int) ([]*models.MessageLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MessageLog{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.MessageLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MessageLogRepositoryImpl) Count(ctx context.Context, filter models.MessageLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MessageLog{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageLogRepositoryImpl) Exists(ctx context.Context, filter models.MessageLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
