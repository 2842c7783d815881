package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/internal/users"
	pkgAuth "github.com/Questdigiflex/META-CRM/pkg/auth"
	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/security"
)

type fakeUserRepo struct {
	byEmail     map[string]*models.User
	byID        map[uuid.UUID]*models.User
	legacyToken map[uuid.UUID]*string
}

func newFakeUserRepo(seed ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		byEmail:     map[string]*models.User{},
		byID:        map[uuid.UUID]*models.User{},
		legacyToken: map[uuid.UUID]*string{},
	}
	for _, u := range seed {
		repo.byEmail[u.Email] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := f.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

func (f *fakeUserRepo) UpdateLegacyAccessToken(_ context.Context, id uuid.UUID, token *string) error {
	f.legacyToken[id] = token
	if user, ok := f.byID[id]; ok {
		user.LegacyAccessToken = token
	}
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "metacrm",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hashed
}

func TestServiceLoginReturnsTokenWithClaims(t *testing.T) {
	password := "login-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, err := NewService(ServiceParams{UserRepo: newFakeUserRepo(user), JWTConfig: cfg})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Owner@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if claims.Email != user.Email {
		t.Fatalf("expected email claim %s, got %s", user.Email, claims.Email)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		PasswordHash: mustHashPassword(t, "correct"),
		IsActive:     true,
	}

	svc, err := NewService(ServiceParams{UserRepo: newFakeUserRepo(user), JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "inactive"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}

	svc, err := NewService(ServiceParams{UserRepo: newFakeUserRepo(user), JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := &models.User{
		ID:           uuid.New(),
		Email:        "dup@example.com",
		PasswordHash: mustHashPassword(t, "whatever"),
		IsActive:     true,
	}

	svc, err := NewService(ServiceParams{UserRepo: newFakeUserRepo(existing), JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "Dup@Example.com",
		Password: "password123",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceRegisterCreatesUserAndIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New@Example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if resp.User.Email != "new@example.com" {
		t.Fatalf("expected lowercased email, got %s", resp.User.Email)
	}
	if _, ok := repo.byEmail["new@example.com"]; !ok {
		t.Fatal("expected persisted user")
	}
}

func TestServiceUpdateLegacyToken(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "legacy@example.com",
		PasswordHash: mustHashPassword(t, "whatever"),
		IsActive:     true,
	}
	repo := newFakeUserRepo(user)

	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWTConfig()})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	dto, err := svc.UpdateLegacyToken(context.Background(), user.ID, UpdateLegacyTokenRequest{AccessToken: "  EAAB-token  "})
	if err != nil {
		t.Fatalf("update legacy token: %v", err)
	}
	if !dto.HasLegacyToken {
		t.Fatal("expected legacy token flag")
	}
	if stored := repo.legacyToken[user.ID]; stored == nil || *stored != "EAAB-token" {
		t.Fatalf("expected trimmed token to be stored, got %v", stored)
	}

	_, err = svc.UpdateLegacyToken(context.Background(), user.ID, UpdateLegacyTokenRequest{AccessToken: "   "})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
