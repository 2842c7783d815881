package leadsync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

const defaultLeadsPageLimit = 100

// Request targets one sync run. FormID narrows the run to a single tracked
// form; AppID pins credential resolution to one Facebook app.
type Request struct {
	UserID uuid.UUID
	FormID string
	AppID  string
}

// SyncError records one lead or form that failed during a run.
type SyncError struct {
	FormID  string `json:"form_id"`
	LeadID  string `json:"lead_id,omitempty"`
	Message string `json:"message"`
}

// Result summarizes one sync run. TotalFetched counts every lead processed
// and Inserted counts every lead stored, fresh or re-synced; the upstream
// lead id is the authority on identity.
type Result struct {
	TotalFetched int         `json:"total_fetched"`
	Inserted     int         `json:"inserted"`
	Errors       []SyncError `json:"errors"`
}

// Service runs lead synchronization against the Graph API.
type Service interface {
	Sync(ctx context.Context, req Request) (*Result, error)
}

type graphClient interface {
	ListLeads(ctx context.Context, formID, accessToken string, params graph.LeadsParams) (*graph.LeadsPage, error)
}

type credentialResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, explicitAppID string) (*credentials.Resolved, error)
}

type formRepository interface {
	FindByUserAndFormID(ctx context.Context, userID uuid.UUID, formID string) (*models.Form, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, appID string) ([]models.Form, error)
	UpdateLastFetchedAt(ctx context.Context, id uuid.UUID, at time.Time) error
}

type leadRepository interface {
	Upsert(ctx context.Context, lead *models.Lead) error
	MaxCreatedTime(ctx context.Context, userID uuid.UUID, formID string) (time.Time, error)
}

type service struct {
	graph     graphClient
	creds     credentialResolver
	forms     formRepository
	leads     leadRepository
	logg      *logger.Logger
	pageLimit int
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build the sync engine.
type ServiceParams struct {
	GraphClient    graphClient
	CredentialsSvc credentialResolver
	FormRepo       formRepository
	LeadRepo       leadRepository
	Logger         *logger.Logger
	PageLimit      int
}

// NewService constructs the sync engine with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.GraphClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "graph client required")
	}
	if params.CredentialsSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "credential resolver required")
	}
	if params.FormRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "form repository required")
	}
	if params.LeadRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "lead repository required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "leadsync"})
	}
	if params.PageLimit <= 0 {
		params.PageLimit = defaultLeadsPageLimit
	}
	return &service{
		graph:     params.GraphClient,
		creds:     params.CredentialsSvc,
		forms:     params.FormRepo,
		leads:     params.LeadRepo,
		logg:      params.Logger,
		pageLimit: params.PageLimit,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Sync resolves a credential, picks the target forms, and pulls every lead
// newer than the stored watermark. Failures below the form level are
// collected, not fatal.
func (s *service) Sync(ctx context.Context, req Request) (*Result, error) {
	resolved, err := s.creds.Resolve(ctx, req.UserID, req.AppID)
	if err != nil {
		return nil, err
	}

	targets, err := s.targetForms(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithUserID(ctx, req.UserID.String())
	result := &Result{Errors: []SyncError{}}

	for i := range targets {
		form := &targets[i]
		formCtx := s.logg.WithFormID(ctx, form.FormID)

		if err := s.syncForm(formCtx, req.UserID, form, resolved.AccessToken, result); err != nil {
			s.logg.Error(formCtx, "form sync failed", err)
			result.Errors = append(result.Errors, SyncError{
				FormID:  form.FormID,
				Message: err.Error(),
			})
			continue
		}
	}

	return result, nil
}

func (s *service) targetForms(ctx context.Context, req Request) ([]models.Form, error) {
	if req.FormID != "" {
		form, err := s.forms.FindByUserAndFormID(ctx, req.UserID, req.FormID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "form not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup form")
		}
		return []models.Form{*form}, nil
	}

	forms, err := s.forms.ListActiveByUser(ctx, req.UserID, req.AppID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active forms")
	}
	if len(forms) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoActiveForms, "no active forms to sync")
	}
	return forms, nil
}

func (s *service) syncForm(ctx context.Context, userID uuid.UUID, form *models.Form, accessToken string, result *Result) error {
	watermark, err := s.leads.MaxCreatedTime(ctx, userID, form.FormID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load watermark")
	}

	params := graph.LeadsParams{Limit: s.pageLimit}
	if !watermark.IsZero() {
		since := watermark
		params.Since = &since
	}

	syncedAt := s.now()
	for {
		page, err := s.graph.ListLeads(ctx, form.FormID, accessToken, params)
		if err != nil {
			return err
		}

		for _, raw := range page.Leads {
			result.TotalFetched++

			lead, err := normalizeLead(userID, form, raw, syncedAt)
			if err != nil {
				result.Errors = append(result.Errors, SyncError{
					FormID:  form.FormID,
					LeadID:  raw.ID,
					Message: err.Error(),
				})
				continue
			}

			if err := s.leads.Upsert(ctx, lead); err != nil {
				result.Errors = append(result.Errors, SyncError{
					FormID:  form.FormID,
					LeadID:  raw.ID,
					Message: err.Error(),
				})
				continue
			}
			// a re-synced lead still counts, the upsert keeps it single
			result.Inserted++
		}

		if page.NextCursor == "" {
			break
		}
		params.After = page.NextCursor
	}

	// fetch succeeded, so the form was reached even if some leads failed
	if err := s.forms.UpdateLastFetchedAt(ctx, form.ID, syncedAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stamp last fetch")
	}
	return nil
}
