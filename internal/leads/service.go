package leads

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/pagination"
)

// Service defines the lead management behavior used by the controllers.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResponse, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*LeadDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateLeadRequest) (*LeadDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ExportCSV(ctx context.Context, userID uuid.UUID, filters ListFilters, w io.Writer) error
}

type leadRepository interface {
	List(ctx context.Context, userID uuid.UUID, params ListParams) ([]models.Lead, *pagination.Cursor, error)
	ListAll(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]models.Lead, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	leads leadRepository
}

// NewService constructs a leads service backed by the provided repository.
func NewService(repo leadRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "lead repository required")
	}
	return &service{leads: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResponse, error) {
	if params.Filters.Status != "" {
		if _, err := enums.ParseLeadStatus(params.Filters.Status); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
	}

	rows, next, err := s.leads.List(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list leads")
	}

	out := ListResponse{Leads: make([]LeadDTO, 0, len(rows))}
	for i := range rows {
		out.Leads = append(out.Leads, fromModel(&rows[i]))
	}
	if next != nil {
		out.NextCursor = pagination.EncodeCursor(*next)
	}
	return &out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*LeadDTO, error) {
	lead, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(lead)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateLeadRequest) (*LeadDTO, error) {
	lead, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status, err := enums.ParseLeadStatus(*req.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		lead.Status = status
	}
	if req.Notes != nil {
		lead.Notes = req.Notes
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update lead")
	}

	dto := fromModel(lead)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.leads.Delete(ctx, userID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete lead")
	}
	return nil
}

func (s *service) ExportCSV(ctx context.Context, userID uuid.UUID, filters ListFilters, w io.Writer) error {
	rows, err := s.leads.ListAll(ctx, userID, filters)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load leads for export")
	}
	if err := writeCSV(w, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID, id uuid.UUID) (*models.Lead, error) {
	lead, err := s.leads.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "lead not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load lead")
	}
	return lead, nil
}
