package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. LegacyAccessToken carries
// the single-token field kept for accounts created before named credentials
// existed; new code should resolve credentials instead of reading it directly.
type User struct {
	ID                uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string               `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash      string               `gorm:"column:password_hash;not null"`
	FirstName         *string              `gorm:"column:first_name"`
	LastName          *string              `gorm:"column:last_name"`
	LegacyAccessToken *string              `gorm:"column:legacy_access_token"`
	IsActive          bool                 `gorm:"column:is_active;not null;default:true"`
	LastLoginAt       *time.Time           `gorm:"column:last_login_at"`
	Credentials       []FacebookCredential `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
