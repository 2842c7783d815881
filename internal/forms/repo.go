package forms

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
)

// Repository exposes form persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a forms repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's forms ordered by creation time.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Form, error) {
	var forms []models.Form
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&forms).Error
	if err != nil {
		return nil, err
	}
	return forms, nil
}

// ListActiveByUser returns the user's active forms, optionally filtered by
// the owning Facebook app.
func (r *Repository) ListActiveByUser(ctx context.Context, userID uuid.UUID, appID string) ([]models.Form, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true)
	if appID != "" {
		q = q.Where("facebook_app_id = ?", appID)
	}

	var forms []models.Form
	if err := q.Order("created_at ASC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

// ListAllActive returns every active form across users. The scheduler walks
// this list.
func (r *Repository) ListAllActive(ctx context.Context) ([]models.Form, error) {
	var forms []models.Form
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&forms).Error
	if err != nil {
		return nil, err
	}
	return forms, nil
}

// FindByID loads one form scoped to the owner.
func (r *Repository) FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Form, error) {
	var form models.Form
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// FindByUserAndFormID loads one form by its upstream form id.
func (r *Repository) FindByUserAndFormID(ctx context.Context, userID uuid.UUID, formID string) (*models.Form, error) {
	var form models.Form
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND form_id = ?", userID, formID).
		First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

// Create inserts a new form row.
func (r *Repository) Create(ctx context.Context, form *models.Form) error {
	return r.db.WithContext(ctx).Create(form).Error
}

// Update persists the mutable fields of an existing form.
func (r *Repository) Update(ctx context.Context, form *models.Form) error {
	return r.db.WithContext(ctx).
		Model(&models.Form{}).
		Where("id = ? AND user_id = ?", form.ID, form.UserID).
		Updates(map[string]any{
			"form_name":       form.FormName,
			"page_id":         form.PageID,
			"page_name":       form.PageName,
			"facebook_app_id": form.FacebookAppID,
			"is_active":       form.IsActive,
		}).Error
}

// UpdateLastFetchedAt stamps the form's last successful sync attempt.
func (r *Repository) UpdateLastFetchedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Form{}).
		Where("id = ?", id).
		UpdateColumn("last_fetched_at", at).Error
}

// Delete removes a form scoped to the owner. Deleting an absent row is not
// an error.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Form{}).Error
}
