package repository

import (
	"context"

	"github.com/amirphl/Susanoo/models"
	"gorm.io/gorm"
)

// MessagingInstanceRepositoryImpl implements MessagingInstanceRepository
type MessagingInstanceRepositoryImpl struct {
	*BaseRepository[models.MessagingInstance, models.MessagingInstanceFilter]
}

func NewMessagingInstanceRepository(db *gorm.DB) MessagingInstanceRepository {
	return &MessagingInstanceRepositoryImpl{BaseRepository: NewBaseRepository[models.MessagingInstance, models.MessagingInstanceFilter](db)}
}

// ListActiveByProject returns the instances the project is linked to through
// active links, newest link first.
func (r *MessagingInstanceRepositoryImpl) ListActiveByProject(ctx context.Context, projectID uint) ([]*models.MessagingInstance, error) {
	db := r.getDB(ctx)
	var rows []*models.MessagingInstance
	err := db.Model(&models.MessagingInstance{}).
		Joins("JOIN project_instance_links pil ON pil.instance_id = messaging_instances.id").
		Where("pil.project_id = ? AND pil.is_active = ?", projectID, true).
		Order("pil.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsLinkedToProject reports whether an active link ties the instance to the
// project. This is the tenancy check behind every project-scoped send.
func (r *MessagingInstanceRepositoryImpl) IsLinkedToProject(ctx context.Context, projectID, instanceID uint) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.ProjectInstanceLink{}).
		Where("project_id = ? AND instance_id = ? AND is_active = ?", projectID, instanceID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MessagingInstanceRepositoryImpl) applyFilter(db *gorm.DB, f models.MessagingInstanceFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *MessagingInstanceRepositoryImpl) ByFilter(ctx context.Context, filter models.MessagingInstanceFilter, orderBy string, limit, offset int) ([]*models.MessagingInstance, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MessagingInstance{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.MessagingInstance
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MessagingInstanceRepositoryImpl) Count(ctx context.Context, filter models.MessagingInstanceFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MessagingInstance{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessagingInstanceRepositoryImpl) Exists(ctx context.Context, filter models.MessagingInstanceFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
