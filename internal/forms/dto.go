package forms

import (
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
)

// AddFormRequest is the payload for manually registering a form.
type AddFormRequest struct {
	FormID        string  `json:"form_id" validate:"required"`
	FormName      *string `json:"form_name,omitempty"`
	PageID        *string `json:"page_id,omitempty"`
	PageName      *string `json:"page_name,omitempty"`
	FacebookAppID *string `json:"facebook_app_id,omitempty"`
}

// UpdateFormRequest carries the mutable form fields. Nil means unchanged.
type UpdateFormRequest struct {
	FormName      *string `json:"form_name,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
	FacebookAppID *string `json:"facebook_app_id,omitempty"`
}

// FormDTO is the transport shape for a tracked form.
type FormDTO struct {
	ID            uuid.UUID  `json:"id"`
	FormID        string     `json:"form_id"`
	FormName      *string    `json:"form_name,omitempty"`
	PageID        *string    `json:"page_id,omitempty"`
	PageName      *string    `json:"page_name,omitempty"`
	FacebookAppID *string    `json:"facebook_app_id,omitempty"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func fromModel(f *models.Form) FormDTO {
	return FormDTO{
		ID:            f.ID,
		FormID:        f.FormID,
		FormName:      f.FormName,
		PageID:        f.PageID,
		PageName:      f.PageName,
		FacebookAppID: f.FacebookAppID,
		LastFetchedAt: f.LastFetchedAt,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}
