package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// IntegrationRepositoryImpl implements IntegrationRepository
type IntegrationRepositoryImpl struct {
	*BaseRepository[models.Integration, models.IntegrationFilter]
}

func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &IntegrationRepositoryImpl{BaseRepository: NewBaseRepository[models.Integration, models.IntegrationFilter](db)}
}

func (r *IntegrationRepositoryImpl) ByIDAndProvider(ctx context.Context, id uint, provider string) (*models.Integration, error) {
	db := r.getDB(ctx)
	var row models.Integration
	if err := db.Where("id = ? AND provider = ?", id, provider).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *IntegrationRepositoryImpl) applyFilter(db *gorm.DB, f models.IntegrationFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.InstanceID != nil {
		db = db.Where("instance_id = ?", *f.InstanceID)
	}
	if f.Provider != nil {
		db = db.Where("provider = ?", *f.Provider)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *IntegrationRepositoryImpl) ByFilter(ctx context.Context, filter models.IntegrationFilter, orderBy string, limit, offset int) ([]*models.Integration, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Integration{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Integration
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *IntegrationRepositoryImpl) Count(ctx context.Context, filter models.IntegrationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Integration{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *IntegrationRepositoryImpl) Exists(ctx context.Context, filter models.IntegrationFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
