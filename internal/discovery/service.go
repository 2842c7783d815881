package discovery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

// Result summarizes one discovery run.
type Result struct {
	PagesScanned int         `json:"pages_scanned"`
	FormsSeen    int         `json:"forms_seen"`
	FormsAdded   int         `json:"forms_added"`
	PageErrors   []PageError `json:"page_errors"`
}

// PageError records a page whose form listing failed. Discovery keeps going
// past these.
type PageError struct {
	PageID   string `json:"page_id"`
	PageName string `json:"page_name,omitempty"`
	Message  string `json:"message"`
}

// Service defines discovery behavior used by the facebook controller.
type Service interface {
	Pages(ctx context.Context, userID uuid.UUID, appID string) ([]graph.Page, error)
	PageForms(ctx context.Context, userID uuid.UUID, appID, pageID string) ([]graph.FormSummary, error)
	AdAccounts(ctx context.Context, userID uuid.UUID, appID string) ([]graph.AdAccount, error)
	DiscoverAndSave(ctx context.Context, userID uuid.UUID, appID, pageIDFilter string) (*Result, error)
}

type graphClient interface {
	ListPages(ctx context.Context, accessToken string) ([]graph.Page, error)
	ListForms(ctx context.Context, pageID, pageAccessToken string) ([]graph.FormSummary, error)
	GetForm(ctx context.Context, formID, accessToken string) (*graph.FormDetail, error)
	ListAdAccounts(ctx context.Context, accessToken string) ([]graph.AdAccount, error)
}

type credentialResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, explicitAppID string) (*credentials.Resolved, error)
}

type formRepository interface {
	FindByUserAndFormID(ctx context.Context, userID uuid.UUID, formID string) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) error
}

type service struct {
	graph graphClient
	creds credentialResolver
	forms formRepository
	logg  *logger.Logger
}

// ServiceParams bundles the dependencies required to build a discovery service.
type ServiceParams struct {
	GraphClient    graphClient
	CredentialsSvc credentialResolver
	FormRepo       formRepository
	Logger         *logger.Logger
}

// NewService constructs a discovery service with the provided dependencies.
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
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "discovery"})
	}
	return &service{
		graph: params.GraphClient,
		creds: params.CredentialsSvc,
		forms: params.FormRepo,
		logg:  params.Logger,
	}, nil
}

func (s *service) Pages(ctx context.Context, userID uuid.UUID, appID string) ([]graph.Page, error) {
	resolved, err := s.creds.Resolve(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	return s.graph.ListPages(ctx, resolved.AccessToken)
}

func (s *service) PageForms(ctx context.Context, userID uuid.UUID, appID, pageID string) ([]graph.FormSummary, error) {
	resolved, err := s.creds.Resolve(ctx, userID, appID)
	if err != nil {
		return nil, err
	}

	pages, err := s.graph.ListPages(ctx, resolved.AccessToken)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if page.ID == pageID {
			return s.graph.ListForms(ctx, page.ID, page.AccessToken)
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "page not reachable with this credential")
}

func (s *service) AdAccounts(ctx context.Context, userID uuid.UUID, appID string) ([]graph.AdAccount, error) {
	resolved, err := s.creds.Resolve(ctx, userID, appID)
	if err != nil {
		return nil, err
	}
	return s.graph.ListAdAccounts(ctx, resolved.AccessToken)
}

// DiscoverAndSave walks every reachable page, lists its lead forms, and
// persists the ones not yet tracked. A page that fails is recorded and
// skipped; discovery continues with the rest.
func (s *service) DiscoverAndSave(ctx context.Context, userID uuid.UUID, appID, pageIDFilter string) (*Result, error) {
	resolved, err := s.creds.Resolve(ctx, userID, appID)
	if err != nil {
		return nil, err
	}

	pages, err := s.graph.ListPages(ctx, resolved.AccessToken)
	if err != nil {
		return nil, err
	}

	result := &Result{PageErrors: []PageError{}}
	for _, page := range pages {
		if pageIDFilter != "" && page.ID != pageIDFilter {
			continue
		}
		result.PagesScanned++

		pageCtx := s.logg.WithFields(ctx, map[string]any{"pageID": page.ID})
		summaries, err := s.graph.ListForms(ctx, page.ID, page.AccessToken)
		if err != nil {
			s.logg.Warn(pageCtx, "listing page forms failed")
			result.PageErrors = append(result.PageErrors, PageError{
				PageID:   page.ID,
				PageName: page.Name,
				Message:  err.Error(),
			})
			continue
		}

		for _, summary := range summaries {
			result.FormsSeen++

			_, err := s.forms.FindByUserAndFormID(ctx, userID, summary.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup form")
			}

			formName := summary.Name
			if detail, err := s.graph.GetForm(ctx, summary.ID, page.AccessToken); err == nil && detail.Name != "" {
				formName = detail.Name
			}

			form := &models.Form{
				UserID:   userID,
				FormID:   summary.ID,
				FormName: &formName,
				PageID:   strPtr(page.ID),
				PageName: strPtr(page.Name),
				IsActive: true,
			}
			if resolved.AppID != "" {
				form.FacebookAppID = strPtr(resolved.AppID)
			}
			if err := s.forms.Create(ctx, form); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save discovered form")
			}
			result.FormsAdded++
		}
	}

	return result, nil
}

func strPtr(s string) *string { return &s }
