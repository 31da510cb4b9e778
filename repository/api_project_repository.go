package repository

import (
	"context"
	"errors"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// APIProjectRepositoryImpl implements APIProjectRepository
type APIProjectRepositoryImpl struct {
	*BaseRepository[models.APIProject, models.APIProjectFilter]
}

func NewAPIProjectRepository(db *gorm.DB) APIProjectRepository {
	return &APIProjectRepositoryImpl{BaseRepository: NewBaseRepository[models.APIProject, models.APIProjectFilter](db)}
}

// ByCredentials resolves a project by the exact key/secret pair. A nil result
// covers both unknown key and wrong secret; the caller answers the same way
// for either so the response does not leak which half was wrong.
func (r *APIProjectRepositoryImpl) ByCredentials(ctx context.Context, apiKey, apiSecret string) (*models.APIProject, error) {
	db := r.getDB(ctx)
	var row models.APIProject
	err := db.Where("api_key = ? AND api_secret = ?", apiKey, apiSecret).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *APIProjectRepositoryImpl) applyFilter(db *gorm.DB, f models.APIProjectFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.APIKey != nil {
		db = db.Where("api_key = ?", *f.APIKey)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	return db
}

func (r *APIProjectRepositoryImpl) ByFilter(ctx context.Context, filter models.APIProjectFilter, orderBy string, limit, offset int) ([]*models.APIProject, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.APIProject{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.APIProject
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *APIProjectRepositoryImpl) Count(ctx context.Context, filter models.APIProjectFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.APIProject{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *APIProjectRepositoryImpl) Exists(ctx context.Context, filter models.APIProjectFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
