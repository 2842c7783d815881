package credentials

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
)

type fakeCredentialRepo struct {
	creds []models.FacebookCredential
}

func (f *fakeCredentialRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.FacebookCredential, error) {
	var out []models.FacebookCredential
	for _, c := range f.creds {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredentialRepo) FindByUserAndAppID(_ context.Context, userID uuid.UUID, appID string) (*models.FacebookCredential, error) {
	for i := range f.creds {
		if f.creds[i].UserID == userID && f.creds[i].AppID == appID {
			cred := f.creds[i]
			return &cred, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCredentialRepo) Create(_ context.Context, cred *models.FacebookCredential) error {
	cred.ID = uuid.New()
	f.creds = append(f.creds, *cred)
	return nil
}

func (f *fakeCredentialRepo) Update(_ context.Context, cred *models.FacebookCredential) error {
	for i := range f.creds {
		if f.creds[i].ID == cred.ID {
			f.creds[i] = *cred
			return nil
		}
	}
	return nil
}

func (f *fakeCredentialRepo) DeleteByID(_ context.Context, userID, credentialID uuid.UUID) error {
	kept := f.creds[:0]
	for _, c := range f.creds {
		if !(c.UserID == userID && c.ID == credentialID) {
			kept = append(kept, c)
		}
	}
	f.creds = kept
	return nil
}

type fakeCredUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeCredUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeCredUserRepo) UpdateLegacyAccessToken(_ context.Context, id uuid.UUID, token *string) error {
	if user, ok := f.users[id]; ok {
		user.LegacyAccessToken = token
	}
	return nil
}

type fakeExchanger struct {
	lastAppID     string
	lastAppSecret string
	result        *graph.TokenExchange
	err           error
}

func (f *fakeExchanger) ExchangeToken(_ context.Context, appID, appSecret, _ string) (*graph.TokenExchange, error) {
	f.lastAppID = appID
	f.lastAppSecret = appSecret
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func buildCredentialService(t *testing.T, credRepo *fakeCredentialRepo, userRepo *fakeCredUserRepo, exchanger *fakeExchanger) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		CredentialRepo: credRepo,
		UserRepo:       userRepo,
		GraphClient:    exchanger,
		FacebookConfig: config.FacebookConfig{AppID: "global-app", AppSecret: "global-secret"},
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedUser(id uuid.UUID, legacyToken *string) *fakeCredUserRepo {
	return &fakeCredUserRepo{users: map[uuid.UUID]*models.User{
		id: {ID: id, Email: "owner@example.com", LegacyAccessToken: legacyToken, IsActive: true},
	}}
}

func strPtr(s string) *string { return &s }

func TestSaveGeneratesDefaultAppName(t *testing.T) {
	userID := uuid.New()
	credRepo := &fakeCredentialRepo{}
	userRepo := seedUser(userID, nil)
	svc := buildCredentialService(t, credRepo, userRepo, &fakeExchanger{})

	dto, err := svc.Save(context.Background(), userID, SaveRequest{
		AppID:       "123",
		AccessToken: "EAAB-token",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if dto.AppName == "" {
		t.Fatal("expected generated app name")
	}
	if !strings.HasPrefix(dto.AppName, "Facebook App (") {
		t.Fatalf("expected generated name prefix, got %q", dto.AppName)
	}

	// token mirrored into the legacy field
	user := userRepo.users[userID]
	if user.LegacyAccessToken == nil || *user.LegacyAccessToken != "EAAB-token" {
		t.Fatalf("expected mirrored legacy token, got %v", user.LegacyAccessToken)
	}
}

func TestSaveAcceptsTokenOnly(t *testing.T) {
	userID := uuid.New()
	credRepo := &fakeCredentialRepo{}
	userRepo := seedUser(userID, nil)
	svc := buildCredentialService(t, credRepo, userRepo, &fakeExchanger{})

	dto, err := svc.Save(context.Background(), userID, SaveRequest{AccessToken: "EAAB-only"})
	if err != nil {
		t.Fatalf("token-only save: %v", err)
	}
	if dto.AppID != "" {
		t.Fatalf("expected blank app id, got %q", dto.AppID)
	}
	if !strings.HasPrefix(dto.AppName, "Facebook App (") {
		t.Fatalf("expected generated name, got %q", dto.AppName)
	}

	// the blank app id keys its own row and repeat saves reuse it
	again, err := svc.Save(context.Background(), userID, SaveRequest{AccessToken: "EAAB-rotated"})
	if err != nil {
		t.Fatalf("second token-only save: %v", err)
	}
	if again.ID != dto.ID {
		t.Fatalf("expected upsert to reuse row, got %s and %s", dto.ID, again.ID)
	}

	user := userRepo.users[userID]
	if user.LegacyAccessToken == nil || *user.LegacyAccessToken != "EAAB-rotated" {
		t.Fatalf("expected mirrored legacy token, got %v", user.LegacyAccessToken)
	}
}

func TestSaveUpsertsByAppIDAndKeepsName(t *testing.T) {
	userID := uuid.New()
	credRepo := &fakeCredentialRepo{}
	svc := buildCredentialService(t, credRepo, seedUser(userID, nil), &fakeExchanger{})

	first, err := svc.Save(context.Background(), userID, SaveRequest{
		AppID:       "123",
		AppName:     "Primary App",
		AccessToken: "token-1",
	})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	second, err := svc.Save(context.Background(), userID, SaveRequest{
		AppID:       "123",
		AccessToken: "token-2",
	})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected upsert to reuse row, got %s and %s", first.ID, second.ID)
	}
	if second.AppName != "Primary App" {
		t.Fatalf("expected name to survive upsert, got %q", second.AppName)
	}
	if len(credRepo.creds) != 1 {
		t.Fatalf("expected one credential row, got %d", len(credRepo.creds))
	}
	if credRepo.creds[0].AccessToken != "token-2" {
		t.Fatalf("expected refreshed token, got %q", credRepo.creds[0].AccessToken)
	}
}

func TestListSynthesizesLegacyCredential(t *testing.T) {
	userID := uuid.New()
	svc := buildCredentialService(t, &fakeCredentialRepo{}, seedUser(userID, strPtr("legacy-token")), &fakeExchanger{})

	out, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one pseudo-credential, got %d", len(out))
	}
	if out[0].ID != LegacyCredentialID {
		t.Fatalf("expected legacy sentinel id, got %q", out[0].ID)
	}
}

func TestDeleteIsIdempotentAndHandlesLegacy(t *testing.T) {
	userID := uuid.New()
	credRepo := &fakeCredentialRepo{}
	userRepo := seedUser(userID, strPtr("legacy-token"))
	svc := buildCredentialService(t, credRepo, userRepo, &fakeExchanger{})

	// deleting an id that never existed succeeds
	if err := svc.Delete(context.Background(), userID, uuid.NewString()); err != nil {
		t.Fatalf("delete absent: %v", err)
	}

	// legacy sentinel clears the token field
	if err := svc.Delete(context.Background(), userID, LegacyCredentialID); err != nil {
		t.Fatalf("delete legacy: %v", err)
	}
	if userRepo.users[userID].LegacyAccessToken != nil {
		t.Fatal("expected legacy token cleared")
	}

	if err := svc.Delete(context.Background(), userID, "not-a-uuid"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolvePrefersExplicitThenStoredThenLegacy(t *testing.T) {
	userID := uuid.New()
	credRepo := &fakeCredentialRepo{creds: []models.FacebookCredential{
		{ID: uuid.New(), UserID: userID, AppID: "app-a", AppName: "A", AccessToken: "token-a"},
		{ID: uuid.New(), UserID: userID, AppID: "app-b", AppName: "B", AccessToken: "token-b"},
	}}
	userRepo := seedUser(userID, strPtr("legacy-token"))
	svc := buildCredentialService(t, credRepo, userRepo, &fakeExchanger{})

	resolved, err := svc.Resolve(context.Background(), userID, "app-b")
	if err != nil {
		t.Fatalf("resolve explicit: %v", err)
	}
	if resolved.AccessToken != "token-b" || resolved.Source != SourceCredential {
		t.Fatalf("expected explicit app token, got %+v", resolved)
	}

	resolved, err = svc.Resolve(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if resolved.AccessToken != "token-a" {
		t.Fatalf("expected first stored token, got %+v", resolved)
	}

	// no stored credentials falls back to the legacy token
	credRepo.creds = nil
	resolved, err = svc.Resolve(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("resolve legacy: %v", err)
	}
	if resolved.AccessToken != "legacy-token" || resolved.Source != SourceLegacy {
		t.Fatalf("expected legacy token, got %+v", resolved)
	}

	// nothing at all
	userRepo.users[userID].LegacyAccessToken = nil
	_, err = svc.Resolve(context.Background(), userID, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNoCredential) {
		t.Fatalf("expected no-credential error, got %v", err)
	}
}

func TestResolveExplicitAppMissing(t *testing.T) {
	userID := uuid.New()
	svc := buildCredentialService(t, &fakeCredentialRepo{}, seedUser(userID, strPtr("legacy")), &fakeExchanger{})

	_, err := svc.Resolve(context.Background(), userID, "missing-app")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNoCredential) {
		t.Fatalf("expected no-credential error for missing explicit app, got %v", err)
	}
}

func TestExchangePrefersStoredAppSecret(t *testing.T) {
	userID := uuid.New()
	credRepo := &fakeCredentialRepo{creds: []models.FacebookCredential{
		{ID: uuid.New(), UserID: userID, AppID: "user-app", AppName: "A", AccessToken: "tok", AppSecret: strPtr("user-secret")},
	}}
	exchanger := &fakeExchanger{result: &graph.TokenExchange{
		AccessToken: "long-lived",
		TokenType:   "bearer",
		ExpiresIn:   3600,
	}}
	svc := buildCredentialService(t, credRepo, seedUser(userID, nil), exchanger)

	before := time.Now().UTC()
	resp, err := svc.Exchange(context.Background(), userID, ExchangeRequest{AccessToken: "short"})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if exchanger.lastAppID != "user-app" || exchanger.lastAppSecret != "user-secret" {
		t.Fatalf("expected stored app credentials, got %s/%s", exchanger.lastAppID, exchanger.lastAppSecret)
	}
	if resp.TokenType != enums.TokenTypeLongLived {
		t.Fatalf("expected long-lived token type, got %s", resp.TokenType)
	}
	if resp.ExpiresAt.Before(before.Add(59*time.Minute)) || resp.ExpiresAt.After(before.Add(61*time.Minute)) {
		t.Fatalf("expected expiry about an hour out, got %s", resp.ExpiresAt)
	}
}

func TestExchangeDefaultsTo60DayTTL(t *testing.T) {
	userID := uuid.New()
	exchanger := &fakeExchanger{result: &graph.TokenExchange{AccessToken: "long-lived"}}
	svc := buildCredentialService(t, &fakeCredentialRepo{}, seedUser(userID, nil), exchanger)

	before := time.Now().UTC()
	resp, err := svc.Exchange(context.Background(), userID, ExchangeRequest{AccessToken: "short"})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if exchanger.lastAppID != "global-app" {
		t.Fatalf("expected global app fallback, got %s", exchanger.lastAppID)
	}
	want := before.Add(60 * 24 * time.Hour)
	if resp.ExpiresAt.Before(want.Add(-time.Minute)) || resp.ExpiresAt.After(want.Add(time.Minute)) {
		t.Fatalf("expected 60 day default expiry, got %s", resp.ExpiresAt)
	}
}
