package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

// InsightsCacheEntry caches one ads-insights fetch. Breakdown is the empty
// string when no breakdown was requested; the uniqueness constraint and every
// lookup use that same canonical value, never NULL.
type InsightsCacheEntry struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID            `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_insights_cache_key"`
	AdAccountID string               `gorm:"column:ad_account_id;not null;uniqueIndex:idx_insights_cache_key"`
	DatePreset  enums.DatePreset     `gorm:"column:date_preset;not null;uniqueIndex:idx_insights_cache_key"`
	Breakdown   string               `gorm:"column:breakdown;not null;default:'';uniqueIndex:idx_insights_cache_key"`
	Data        dbtypes.JSONDocument `gorm:"column:data;type:jsonb"`
	FetchedAt   time.Time            `gorm:"column:fetched_at;not null"`
	ExpiresAt   time.Time            `gorm:"column:expires_at;not null;index"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
