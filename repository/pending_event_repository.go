package repository

import (
	"context"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// PendingEventRepositoryImpl implements PendingEventRepository
type PendingEventRepositoryImpl struct {
	*BaseRepository[models.PendingEvent, models.PendingEventFilter]
}

func NewPendingEventRepository(db *gorm.DB) PendingEventRepository {
	return &PendingEventRepositoryImpl{BaseRepository: NewBaseRepository[models.PendingEvent, models.PendingEventFilter](db)}
}

func (r *PendingEventRepositoryImpl) applyFilter(db *gorm.DB, f models.PendingEventFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ProjectID != nil {
		db = db.Where("project_id = ?", *f.ProjectID)
	}
	if f.EventType != nil {
		db = db.Where("event_type = ?", *f.EventType)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *PendingEventRepositoryImpl) ByFilter(ctx context.Context, filter models.PendingEventFilter, orderBy string, limit, offset int) ([]*models.PendingEvent, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PendingEvent{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.PendingEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PendingEventRepositoryImpl) Count(ctx context.Context, filter models.PendingEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PendingEvent{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PendingEventRepositoryImpl) Exists(ctx context.Context, filter models.PendingEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
