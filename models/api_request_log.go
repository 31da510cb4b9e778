package models

import (
	"encoding/json"
	"time"

	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
)

// APIRequestLog is one append-only row per authenticated API call, written
// regardless of outcome. It is both the audit trail and the counting source
// for the per-project rate limiter, so every limiting decision can be
// reconstructed from it.
type APIRequestLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ProjectID    uint            `gorm:"not null;index:idx_api_request_logs_project_created,priority:1" json:"project_id"`
	Method       string          `gorm:"size:10;not null" json:"method"`
	Endpoint     string          `gorm:"size:255;not null;index:idx_api_request_logs_endpoint" json:"endpoint"`
	StatusCode   int             `gorm:"not null" json:"status_code"`
	LatencyMS    int64           `gorm:"not null" json:"latency_ms"`
	RequestBody  json.RawMessage `gorm:"type:jsonb" json:"request_body,omitempty"`
	ResponseBody json.RawMessage `gorm:"type:jsonb" json:"response_body,omitempty"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_api_request_logs_project_created,priority:2" json:"created_at"`
}

// TableName returns the table name for the model
func (APIRequestLog) TableName() string {
	return "api_request_logs"
}

// BeforeCreate is called before creating a new record
func (l *APIRequestLog) BeforeCreate(tx *gorm.DB) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// IsError reports whether the logged call failed
func (l *APIRequestLog) IsError() bool {
	return l.StatusCode >= 400
}

// APIRequestLogFilter represents filter criteria for request log queries
type APIRequestLogFilter struct {
	ID            *uint      `json:"id,omitempty"`
	ProjectID     *uint      `json:"project_id,omitempty"`
	Method        *string    `json:"method,omitempty"`
	Endpoint      *string    `json:"endpoint,omitempty"`
	StatusCode    *int       `json:"status_code,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
