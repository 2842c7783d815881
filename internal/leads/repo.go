package leads

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/pagination"
)

// Repository exposes lead persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a leads repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes a synced lead keyed by its upstream lead id as a single
// ON CONFLICT statement, so overlapping sync runs converge on one row instead
// of racing the unique index. An existing row gets its sync-owned fields
// refreshed; status and notes are user-owned and never touched here.
func (r *Repository) Upsert(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "lead_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"form_name",
				"page_id",
				"page_name",
				"full_name",
				"email",
				"phone",
				"created_time",
				"field_data",
				"raw_data",
				"last_synced_at",
			}),
		}).
		Create(lead).Error
}

// MaxCreatedTime returns the newest stored submission time for the user,
// optionally scoped to one form. The zero time means no leads are stored yet.
func (r *Repository) MaxCreatedTime(ctx context.Context, userID uuid.UUID, formID string) (time.Time, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("user_id = ?", userID)
	if formID != "" {
		q = q.Where("form_id = ?", formID)
	}

	var max *time.Time
	if err := q.Select("MAX(created_time)").Scan(&max).Error; err != nil {
		return time.Time{}, err
	}
	if max == nil {
		return time.Time{}, nil
	}
	return *max, nil
}

// List returns one filtered page of the user's leads, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Lead, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Pagination.Limit)
	normalized := pagination.NormalizeLimit(params.Pagination.Limit)

	q := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("user_id = ?", userID)
	q = applyFilters(q, params.Filters)

	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		q = q.Where("(created_time, id) < (?, ?)", cursor.CreatedTime, cursor.ID)
	}

	var rows []models.Lead
	if err := q.Order("created_time DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		return rows, &pagination.Cursor{CreatedTime: next.CreatedTime, ID: next.ID}, nil
	}
	return rows, nil, nil
}

// ListAll returns every lead matching the filters, newest first. The CSV
// export walks this.
func (r *Repository) ListAll(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]models.Lead, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("user_id = ?", userID)
	q = applyFilters(q, filters)

	var rows []models.Lead
	if err := q.Order("created_time DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads one lead scoped to the owner.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Update persists the user-owned fields of an existing lead.
func (r *Repository) Update(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ? AND user_id = ?", lead.ID, lead.UserID).
		Updates(map[string]any{
			"status": lead.Status,
			"notes":  lead.Notes,
		}).Error
}

// Delete removes a lead scoped to the owner. Deleting an absent row is not
// an error.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Lead{}).Error
}

func applyFilters(q *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.FormID != "" {
		q = q.Where("form_id = ?", filters.FormID)
	}
	if filters.PageID != "" {
		q = q.Where("page_id = ?", filters.PageID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.DateFrom != nil {
		q = q.Where("created_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("created_time <= ?", *filters.DateTo)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where(
			"(LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(phone) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	return q
}
