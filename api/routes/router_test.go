package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/internal/auth"
	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/discovery"
	"github.com/Questdigiflex/META-CRM/internal/forms"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/internal/leads"
	"github.com/Questdigiflex/META-CRM/internal/leadsync"
	"github.com/Questdigiflex/META-CRM/internal/users"
	pkgauth "github.com/Questdigiflex/META-CRM/pkg/auth"
	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Profile(context.Context, uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubAuthService) UpdateLegacyToken(context.Context, uuid.UUID, auth.UpdateLegacyTokenRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubCredentialsService struct{}

func (stubCredentialsService) Save(context.Context, uuid.UUID, credentials.SaveRequest) (*credentials.CredentialDTO, error) {
	return &credentials.CredentialDTO{}, nil
}

func (stubCredentialsService) List(context.Context, uuid.UUID) ([]credentials.CredentialDTO, error) {
	return nil, nil
}

func (stubCredentialsService) Delete(context.Context, uuid.UUID, string) error { return nil }

func (stubCredentialsService) Resolve(context.Context, uuid.UUID, string) (*credentials.Resolved, error) {
	return &credentials.Resolved{AccessToken: "token"}, nil
}

func (stubCredentialsService) Exchange(context.Context, uuid.UUID, credentials.ExchangeRequest) (*credentials.ExchangeResponse, error) {
	return &credentials.ExchangeResponse{}, nil
}

type stubDiscoveryService struct{}

func (stubDiscoveryService) Pages(context.Context, uuid.UUID, string) ([]graph.Page, error) {
	return nil, nil
}

func (stubDiscoveryService) PageForms(context.Context, uuid.UUID, string, string) ([]graph.FormSummary, error) {
	return nil, nil
}

func (stubDiscoveryService) AdAccounts(context.Context, uuid.UUID, string) ([]graph.AdAccount, error) {
	return nil, nil
}

func (stubDiscoveryService) DiscoverAndSave(context.Context, uuid.UUID, string, string) (*discovery.Result, error) {
	return &discovery.Result{}, nil
}

type stubFormsService struct{}

func (stubFormsService) Add(context.Context, uuid.UUID, forms.AddFormRequest) (*forms.FormDTO, error) {
	return &forms.FormDTO{}, nil
}

func (stubFormsService) List(context.Context, uuid.UUID) ([]forms.FormDTO, error) {
	return []forms.FormDTO{{FormID: "form-1"}}, nil
}

func (stubFormsService) Get(context.Context, uuid.UUID, uuid.UUID) (*forms.FormDTO, error) {
	return &forms.FormDTO{}, nil
}

func (stubFormsService) Update(context.Context, uuid.UUID, uuid.UUID, forms.UpdateFormRequest) (*forms.FormDTO, error) {
	return &forms.FormDTO{}, nil
}

func (stubFormsService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubLeadsService struct{}

func (stubLeadsService) List(context.Context, uuid.UUID, leads.ListParams) (*leads.ListResponse, error) {
	return &leads.ListResponse{}, nil
}

func (stubLeadsService) Get(context.Context, uuid.UUID, uuid.UUID) (*leads.LeadDTO, error) {
	return &leads.LeadDTO{}, nil
}

func (stubLeadsService) Update(context.Context, uuid.UUID, uuid.UUID, leads.UpdateLeadRequest) (*leads.LeadDTO, error) {
	return &leads.LeadDTO{}, nil
}

func (stubLeadsService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubLeadsService) ExportCSV(context.Context, uuid.UUID, leads.ListFilters, io.Writer) error {
	return nil
}

type stubLeadSyncService struct{}

func (stubLeadSyncService) Sync(context.Context, leadsync.Request) (*leadsync.Result, error) {
	return &leadsync.Result{}, nil
}

type stubInsightsService struct{}

func (stubInsightsService) Get(context.Context, uuid.UUID, string, string, string, string, bool) (*insights.Result, error) {
	return &insights.Result{}, nil
}

func (stubInsightsService) AdAccounts(context.Context, string) ([]graph.AdAccount, error) {
	return nil, nil
}

func (stubInsightsService) Summarize(json.RawMessage) (*insights.Summary, error) {
	return &insights.Summary{}, nil
}

func (stubInsightsService) ExportCSV(context.Context, uuid.UUID, string, string, string, string, io.Writer) error {
	return nil
}

func routerTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "metacrm-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(
		routerTestConfig(),
		logger.New(logger.Options{ServiceName: "router-test"}),
		stubPinger{},
		nil,
		Services{
			Auth:        stubAuthService{},
			Credentials: stubCredentialsService{},
			Discovery:   stubDiscoveryService{},
			Forms:       stubFormsService{},
			Leads:       stubLeadsService{},
			LeadSync:    stubLeadSyncService{},
			Insights:    stubInsightsService{},
		},
	)
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-MetaCRM-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestRouterPublicPing(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/public/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)
	paths := []string{"/api/ping", "/api/v1/forms/", "/api/v1/leads/", "/api/v1/credentials/"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestRouterProtectedRouteWithToken(t *testing.T) {
	cfg := routerTestConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "user@example.com",
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
