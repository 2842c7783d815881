package insights

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

func setupInsightsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS insights_cache_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  ad_account_id TEXT NOT NULL,
  date_preset TEXT NOT NULL,
  breakdown TEXT NOT NULL DEFAULT '',
  data TEXT,
  fetched_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, ad_account_id, date_preset, breakdown)
);`
	require.NoError(t, db.Exec(table).Error)
	return db
}

func cacheEntry(userID uuid.UUID, adAccountID, breakdown string, fetchedAt time.Time) *models.InsightsCacheEntry {
	return &models.InsightsCacheEntry{
		ID:          uuid.New(),
		UserID:      userID,
		AdAccountID: adAccountID,
		DatePreset:  enums.DatePresetLast7d,
		Breakdown:   breakdown,
		Data:        dbtypes.JSONDocument(`[{"impressions":"100"}]`),
		FetchedAt:   fetchedAt,
		ExpiresAt:   fetchedAt.Add(6 * time.Hour),
	}
}

func TestRepositoryUpsertConvergesOnCacheKey(t *testing.T) {
	db := setupInsightsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, cacheEntry(userID, "act_1", "", base)))

	// a second refresh of the same key arrives with its own candidate id,
	// as an overlapping scheduled and manual refresh would
	refreshed := cacheEntry(userID, "act_1", "", base.Add(time.Hour))
	refreshed.Data = dbtypes.JSONDocument(`[{"impressions":"250"}]`)
	require.NoError(t, repo.Upsert(ctx, refreshed))

	var count int64
	require.NoError(t, db.Model(&models.InsightsCacheEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	stored, err := repo.Find(ctx, userID, "act_1", enums.DatePresetLast7d, "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"impressions":"250"}]`, string(stored.Data))
	assert.Equal(t, base.Add(time.Hour).Unix(), stored.FetchedAt.Unix())
	assert.Equal(t, base.Add(7*time.Hour).Unix(), stored.ExpiresAt.Unix())
}

func TestRepositoryUpsertKeepsBreakdownsDistinct(t *testing.T) {
	db := setupInsightsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, cacheEntry(userID, "act_1", "", base)))
	require.NoError(t, repo.Upsert(ctx, cacheEntry(userID, "act_1", "age", base)))

	var count int64
	require.NoError(t, db.Model(&models.InsightsCacheEntry{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRepositoryListExpiringWithin(t *testing.T) {
	db := setupInsightsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	soon := cacheEntry(userID, "act_soon", "", now.Add(-6*time.Hour).Add(30*time.Minute))
	later := cacheEntry(userID, "act_later", "", now)
	require.NoError(t, repo.Upsert(ctx, soon))
	require.NoError(t, repo.Upsert(ctx, later))

	entries, err := repo.ListExpiringWithin(ctx, now, time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "act_soon", entries[0].AdAccountID)
}
