package models

import (
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// APIProject is a registered external client identity. Credentials, limits and
// instance links are managed outside the gateway; the gateway only reads them.
type APIProject struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"size:255;not null" json:"name"`
	APIKey             string     `gorm:"size:128;not null;uniqueIndex:uk_api_projects_key" json:"-"`
	APISecret          string     `gorm:"size:128;not null" json:"-"`
	IsActive           *bool      `gorm:"default:true;index:idx_api_projects_is_active" json:"is_active"`
	RateLimitPerMinute int        `gorm:"not null;default:60" json:"rate_limit_per_minute"`
	RateLimitPerDay    int        `gorm:"not null;default:10000" json:"rate_limit_per_day"`
	CreatedAt          time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`

	// Relations
	InstanceLinks []ProjectInstanceLink `gorm:"foreignKey:ProjectID" json:"instance_links,omitempty"`
}

// TableName returns the table name for the model
func (APIProject) TableName() string {
	return "api_projects"
}

// BeforeCreate is called before creating a new record
func (p *APIProject) BeforeCreate(tx *gorm.DB) error {
	if p.IsActive == nil {
		p.IsActive = utils.ToPtr(true)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// Active reports whether the project may authenticate
func (p *APIProject) Active() bool {
	return utils.IsTrue(p.IsActive)
}

// APIProjectFilter represents filter criteria for API projects
type APIProjectFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Name     *string `json:"name,omitempty"`
	APIKey   *string `json:"api_key,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
