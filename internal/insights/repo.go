package insights

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

// Repository exposes insights cache persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an insights cache repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find loads the cache entry for one (user, account, preset, breakdown) key.
func (r *Repository) Find(ctx context.Context, userID uuid.UUID, adAccountID string, preset enums.DatePreset, breakdown string) (*models.InsightsCacheEntry, error) {
	var entry models.InsightsCacheEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND ad_account_id = ? AND date_preset = ? AND breakdown = ?",
			userID, adAccountID, preset, breakdown).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert writes a cache entry keyed by its unique tuple as a single
// ON CONFLICT statement, replacing the data and expiry of an existing row.
// A concurrent refresh of the same key converges instead of hitting the
// unique index.
func (r *Repository) Upsert(ctx context.Context, entry *models.InsightsCacheEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "ad_account_id"},
				{Name: "date_preset"},
				{Name: "breakdown"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"data", "fetched_at", "expires_at"}),
		}).
		Create(entry).Error
}

// ListExpiringWithin returns entries whose expiry falls inside the window
// starting at now. The refresh job walks these.
func (r *Repository) ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]models.InsightsCacheEntry, error) {
	var entries []models.InsightsCacheEntry
	err := r.db.WithContext(ctx).
		Where("expires_at <= ?", now.Add(window)).
		Order("expires_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
