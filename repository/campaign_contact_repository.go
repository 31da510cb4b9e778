package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignContactRepositoryImpl implements CampaignContactRepository
type CampaignContactRepositoryImpl struct {
	*BaseRepository[models.CampaignContact, models.CampaignContactFilter]
}

func NewCampaignContactRepository(db *gorm.DB) CampaignContactRepository {
	return &CampaignContactRepositoryImpl{BaseRepository: NewBaseRepository[models.CampaignContact, models.CampaignContactFilter](db)}
}

// Upsert enrolls the phone into the campaign, replacing name, status and the
// whole metadata block when the phone is already enrolled (last event wins).
func (r *CampaignContactRepositoryImpl) Upsert(ctx context.Context, contact *models.CampaignContact) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if contact.UpdatedAt == nil {
		contact.UpdatedAt = utils.UTCNowPtr()
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "campaign_id"}, {Name: "phone"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"status",
			"metadata",
			"updated_at",
		}),
	}).Create(contact).Error
	if err != nil {
		return fmt.Errorf("failed to upsert campaign contact: %w", err)
	}

	return nil
}

func (r *CampaignContactRepositoryImpl) applyFilter(db *gorm.DB, f models.CampaignContactFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CampaignID != nil {
		db = db.Where("campaign_id = ?", *f.CampaignID)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	return db
}

func (r *CampaignContactRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignContactFilter, orderBy string, limit, offset int) ([]*models.CampaignContact, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CampaignContact{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.CampaignContact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CampaignContactRepositoryImpl) Count(ctx context.Context, filter models.CampaignContactFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CampaignContact{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CampaignContactRepositoryImpl) Exists(ctx context.Context, filter models.CampaignContactFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
