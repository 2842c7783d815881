package forms

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/db"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
)

// Service defines the form management behavior used by the controllers.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, req AddFormRequest) (*FormDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]FormDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*FormDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateFormRequest) (*FormDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type formRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Form, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) error
	Update(ctx context.Context, form *models.Form) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	forms formRepository
}

// NewService constructs a forms service backed by the provided repository.
func NewService(repo formRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "form repository required")
	}
	return &service{forms: repo}, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddFormRequest) (*FormDTO, error) {
	formID := strings.TrimSpace(req.FormID)
	if formID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "form_id is required")
	}

	form := &models.Form{
		UserID:        userID,
		FormID:        formID,
		FormName:      req.FormName,
		PageID:        req.PageID,
		PageName:      req.PageName,
		FacebookAppID: req.FacebookAppID,
		IsActive:      true,
	}
	if err := s.forms.Create(ctx, form); err != nil {
		if db.IsUniqueViolation(err, "idx_forms_user_form") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "form already tracked")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create form")
	}

	dto := fromModel(form)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]FormDTO, error) {
	forms, err := s.forms.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list forms")
	}
	out := make([]FormDTO, 0, len(forms))
	for i := range forms {
		out = append(out, fromModel(&forms[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*FormDTO, error) {
	form, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(form)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateFormRequest) (*FormDTO, error) {
	form, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.FormName != nil {
		form.FormName = req.FormName
	}
	if req.IsActive != nil {
		form.IsActive = *req.IsActive
	}
	if req.FacebookAppID != nil {
		form.FacebookAppID = req.FacebookAppID
	}

	if err := s.forms.Update(ctx, form); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update form")
	}

	dto := fromModel(form)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.forms.Delete(ctx, userID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete form")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID, id uuid.UUID) (*models.Form, error) {
	form, err := s.forms.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "form not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load form")
	}
	return form, nil
}
