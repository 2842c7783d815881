package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

// FacebookCredential is a named Facebook app credential owned by a user.
// AppName is never blank; credential writes generate a default when the
// caller omits one.
type FacebookCredential struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	AppID       string          `gorm:"column:app_id;not null"`
	AppName     string          `gorm:"column:app_name;not null"`
	AccessToken string          `gorm:"column:access_token;not null"`
	AppSecret   *string         `gorm:"column:app_secret"`
	TokenType   enums.TokenType `gorm:"column:token_type;type:token_type;not null;default:'short_lived'"`
	ExpiresAt   *time.Time      `gorm:"column:expires_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
