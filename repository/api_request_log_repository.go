package repository

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// APIRequestLogRepositoryImpl implements APIRequestLogRepository
type APIRequestLogRepositoryImpl struct {
	*BaseRepository[models.APIRequestLog, models.APIRequestLogFilter]
}

func NewAPIRequestLogRepository(db *gorm.DB) APIRequestLogRepository {
	return &APIRequestLogRepositoryImpl{BaseRepository: NewBaseRepository[models.APIRequestLog, models.APIRequestLogFilter](db)}
}

// CountSince counts the project's logged calls with created_at >= since.
// The rate limiter runs this twice per request (rolling minute, calendar day)
// against the (project_id, created_at) index.
func (r *APIRequestLogRepositoryImpl) CountSince(ctx context.Context, projectID uint, since time.Time) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.APIRequestLog{}).
		Where("project_id = ? AND created_at >= ?", projectID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *APIRequestLogRepositoryImpl) applyFilter(db *gorm.DB, f models.APIRequestLogFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ProjectID != nil {
		db = db.Where("project_id = ?", *f.ProjectID)
	}
	if f.Method != nil {
		db = db.Where("method = ?", *f.Method)
	}
	if f.Endpoint != nil {
		db = db.Where("endpoint = ?", *f.Endpoint)
	}
	if f.StatusCode != nil {
		db = db.Where("status_code = ?", *f.StatusCode)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *APIRequestLogRepositoryImpl) ByFilter(ctx context.Context, filter models.APIRequestLogFilter, orderBy string, limit, offset int) ([]*models.APIRequestLog, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.APIRequestLog{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.APIRequestLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *APIRequestLogRepositoryImpl) Count(ctx context.Context, filter models.APIRequestLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.APIRequestLog{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *APIRequestLogRepositoryImpl) Exists(ctx context.Context, filter models.APIRequestLogFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
