package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

// Lead is one normalized form submission. LeadID is the upstream identifier
// and is globally unique, which makes the sync upsert idempotent. Status and
// Notes are user-owned; sync never touches them after the first insert.
type Lead struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	FormID       string                `gorm:"column:form_id;not null;index"`
	FormName     *string               `gorm:"column:form_name"`
	PageID       *string               `gorm:"column:page_id"`
	PageName     *string               `gorm:"column:page_name"`
	LeadID       string                `gorm:"column:lead_id;not null;uniqueIndex"`
	FullName     *string               `gorm:"column:full_name"`
	Email        *string               `gorm:"column:email"`
	Phone        *string               `gorm:"column:phone"`
	CreatedTime  time.Time             `gorm:"column:created_time;not null;index"`
	FieldData    dbtypes.LeadFieldList `gorm:"column:field_data;type:jsonb"`
	RawData      dbtypes.JSONMap       `gorm:"column:raw_data;type:jsonb"`
	Status       enums.LeadStatus      `gorm:"column:status;type:lead_status;not null;default:'new'"`
	Notes        *string               `gorm:"column:notes"`
	LastSyncedAt time.Time             `gorm:"column:last_synced_at;not null"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
