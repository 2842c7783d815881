package credentials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
)

// Repository exposes credential persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a credentials repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns the user's credentials ordered by creation time.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.FacebookCredential, error) {
	var creds []models.FacebookCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// FindByUserAndAppID loads the credential for one Facebook app, if present.
func (r *Repository) FindByUserAndAppID(ctx context.Context, userID uuid.UUID, appID string) (*models.FacebookCredential, error) {
	var cred models.FacebookCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND app_id = ?", userID, appID).
		First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Create inserts a new credential row.
func (r *Repository) Create(ctx context.Context, cred *models.FacebookCredential) error {
	return r.db.WithContext(ctx).Create(cred).Error
}

// Update persists the mutable fields of an existing credential.
func (r *Repository) Update(ctx context.Context, cred *models.FacebookCredential) error {
	return r.db.WithContext(ctx).
		Model(&models.FacebookCredential{}).
		Where("id = ? AND user_id = ?", cred.ID, cred.UserID).
		Updates(map[string]any{
			"app_name":     cred.AppName,
			"access_token": cred.AccessToken,
			"app_secret":   cred.AppSecret,
			"token_type":   cred.TokenType,
			"expires_at":   cred.ExpiresAt,
		}).Error
}

// DeleteByID removes the credential by id scoped to the owner. Deleting an
// absent row is not an error.
func (r *Repository) DeleteByID(ctx context.Context, userID, credentialID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", credentialID, userID).
		Delete(&models.FacebookCredential{}).Error
}
