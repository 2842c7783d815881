package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	"github.com/Questdigiflex/META-CRM/pkg/pagination"
)

// ListFilters narrow the leads listing.
type ListFilters struct {
	FormID   string
	PageID   string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
}

// ListParams combines filters with cursor pagination inputs.
type ListParams struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// UpdateLeadRequest carries the user-owned mutable fields. Nil means
// unchanged.
type UpdateLeadRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// LeadDTO is the transport shape for a stored lead.
type LeadDTO struct {
	ID           uuid.UUID             `json:"id"`
	FormID       string                `json:"form_id"`
	FormName     *string               `json:"form_name,omitempty"`
	PageID       *string               `json:"page_id,omitempty"`
	PageName     *string               `json:"page_name,omitempty"`
	LeadID       string                `json:"lead_id"`
	FullName     *string               `json:"full_name,omitempty"`
	Email        *string               `json:"email,omitempty"`
	Phone        *string               `json:"phone,omitempty"`
	CreatedTime  time.Time             `json:"created_time"`
	FieldData    dbtypes.LeadFieldList `json:"field_data"`
	Status       enums.LeadStatus      `json:"status"`
	Notes        *string               `json:"notes,omitempty"`
	LastSyncedAt time.Time             `json:"last_synced_at"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ListResponse is one page of leads plus the next-page cursor.
type ListResponse struct {
	Leads      []LeadDTO `json:"leads"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func fromModel(l *models.Lead) LeadDTO {
	return LeadDTO{
		ID:           l.ID,
		FormID:       l.FormID,
		FormName:     l.FormName,
		PageID:       l.PageID,
		PageName:     l.PageName,
		LeadID:       l.LeadID,
		FullName:     l.FullName,
		Email:        l.Email,
		Phone:        l.Phone,
		CreatedTime:  l.CreatedTime,
		FieldData:    l.FieldData,
		Status:       l.Status,
		Notes:        l.Notes,
		LastSyncedAt: l.LastSyncedAt,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}
