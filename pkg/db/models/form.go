package models

import (
	"time"

	"github.com/google/uuid"
)

// Form is a lead-generation form discovered on (or manually added for) a
// Facebook page. FacebookAppID references the owning credential by app id so
// the scheduler can resolve the right token per form.
type Form struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_forms_user_form"`
	FormID        string     `gorm:"column:form_id;not null;uniqueIndex:idx_forms_user_form"`
	FormName      *string    `gorm:"column:form_name"`
	PageID        *string    `gorm:"column:page_id"`
	PageName      *string    `gorm:"column:page_name"`
	FacebookAppID *string    `gorm:"column:facebook_app_id"`
	LastFetchedAt *time.Time `gorm:"column:last_fetched_at"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
