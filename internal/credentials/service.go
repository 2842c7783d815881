package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
)

// defaultExchangeTTL is applied when the OAuth response omits expires_in.
const defaultExchangeTTL = 60 * 24 * time.Hour

// Service defines the credential store behavior used by controllers and the
// sync engine.
type Service interface {
	Save(ctx context.Context, userID uuid.UUID, req SaveRequest) (*CredentialDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]CredentialDTO, error)
	Delete(ctx context.Context, userID uuid.UUID, credentialID string) error
	Resolve(ctx context.Context, userID uuid.UUID, explicitAppID string) (*Resolved, error)
	Exchange(ctx context.Context, userID uuid.UUID, req ExchangeRequest) (*ExchangeResponse, error)
}

type credentialRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.FacebookCredential, error)
	FindByUserAndAppID(ctx context.Context, userID uuid.UUID, appID string) (*models.FacebookCredential, error)
	Create(ctx context.Context, cred *models.FacebookCredential) error
	Update(ctx context.Context, cred *models.FacebookCredential) error
	DeleteByID(ctx context.Context, userID, credentialID uuid.UUID) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLegacyAccessToken(ctx context.Context, id uuid.UUID, token *string) error
}

type tokenExchanger interface {
	ExchangeToken(ctx context.Context, appID, appSecret, shortLivedToken string) (*graph.TokenExchange, error)
}

type service struct {
	creds       credentialRepository
	users       userRepository
	graph       tokenExchanger
	facebookCfg config.FacebookConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build the credential service.
type ServiceParams struct {
	CredentialRepo credentialRepository
	UserRepo       userRepository
	GraphClient    tokenExchanger
	FacebookConfig config.FacebookConfig
}

// NewService constructs a credential service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CredentialRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "credential repository required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	if params.GraphClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "graph client required")
	}
	return &service{
		creds:       params.CredentialRepo,
		users:       params.UserRepo,
		graph:       params.GraphClient,
		facebookCfg: params.FacebookConfig,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Save upserts the credential keyed by (userID, appID). A token-only save is
// allowed: the blank app id keys its own credential row. The access token is
// also mirrored into the user's legacy token field so pre-migration callers
// keep working.
func (s *service) Save(ctx context.Context, userID uuid.UUID, req SaveRequest) (*CredentialDTO, error) {
	appID := strings.TrimSpace(req.AppID)
	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access_token is required")
	}

	tokenType := enums.TokenTypeShortLived
	if req.TokenType != "" {
		parsed, err := enums.ParseTokenType(req.TokenType)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid token_type")
		}
		tokenType = parsed
	}

	appName := strings.TrimSpace(req.AppName)

	existing, err := s.creds.FindByUserAndAppID(ctx, userID, appID)
	switch {
	case err == nil:
		if appName == "" {
			appName = existing.AppName
		}
		existing.AppName = appName
		existing.AccessToken = token
		if req.AppSecret != nil {
			existing.AppSecret = req.AppSecret
		}
		existing.TokenType = tokenType
		existing.ExpiresAt = req.ExpiresAt
		if err := s.creds.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update credential")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		if appName == "" {
			appName = fmt.Sprintf("Facebook App (%s)", s.now().Format("2006-01-02 15:04"))
		}
		existing = &models.FacebookCredential{
			UserID:      userID,
			AppID:       appID,
			AppName:     appName,
			AccessToken: token,
			AppSecret:   req.AppSecret,
			TokenType:   tokenType,
			ExpiresAt:   req.ExpiresAt,
		}
		if err := s.creds.Create(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create credential")
		}

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credential")
	}

	if err := s.users.UpdateLegacyAccessToken(ctx, userID, &token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mirror legacy token")
	}

	dto := fromModel(existing)
	return &dto, nil
}

// List returns the user's credentials. When none exist but a legacy token is
// set, a pseudo-credential with the sentinel id surfaces it.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]CredentialDTO, error) {
	creds, err := s.creds.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list credentials")
	}

	out := make([]CredentialDTO, 0, len(creds))
	for i := range creds {
		out = append(out, fromModel(&creds[i]))
	}
	if len(out) > 0 {
		return out, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.LegacyAccessToken != nil && *user.LegacyAccessToken != "" {
		out = append(out, CredentialDTO{
			ID:        LegacyCredentialID,
			AppName:   "Legacy Token",
			TokenType: enums.TokenTypeShortLived,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		})
	}
	return out, nil
}

// Delete removes a credential by id. The sentinel id clears the legacy token
// instead. Deleting something already gone succeeds.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, credentialID string) error {
	if credentialID == LegacyCredentialID {
		if err := s.users.UpdateLegacyAccessToken(ctx, userID, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear legacy token")
		}
		return nil
	}

	id, err := uuid.Parse(credentialID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid credential id")
	}
	if err := s.creds.DeleteByID(ctx, userID, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete credential")
	}
	return nil
}

// Resolve picks the access token to use for Graph calls: an explicitly
// requested app, else the first stored credential with a token, else the
// legacy token.
func (s *service) Resolve(ctx context.Context, userID uuid.UUID, explicitAppID string) (*Resolved, error) {
	if appID := strings.TrimSpace(explicitAppID); appID != "" {
		cred, err := s.creds.FindByUserAndAppID(ctx, userID, appID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNoCredential, "no credential for app "+appID)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credential")
		}
		if cred.AccessToken == "" {
			return nil, pkgerrors.New(pkgerrors.CodeNoCredential, "credential for app "+appID+" has no token")
		}
		return &Resolved{AccessToken: cred.AccessToken, AppID: cred.AppID, Source: SourceCredential}, nil
	}

	creds, err := s.creds.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list credentials")
	}
	for i := range creds {
		if creds[i].AccessToken != "" {
			return &Resolved{AccessToken: creds[i].AccessToken, AppID: creds[i].AppID, Source: SourceCredential}, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.LegacyAccessToken != nil && *user.LegacyAccessToken != "" {
		return &Resolved{AccessToken: *user.LegacyAccessToken, Source: SourceLegacy}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeNoCredential, "no facebook credential configured")
}

// Exchange swaps a short-lived token for a long-lived one. The app id and
// secret stored on the user's credential win over the global app config. The
// result is returned, not persisted.
func (s *service) Exchange(ctx context.Context, userID uuid.UUID, req ExchangeRequest) (*ExchangeResponse, error) {
	shortToken := strings.TrimSpace(req.AccessToken)
	if shortToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access_token is required")
	}

	appID := s.facebookCfg.AppID
	appSecret := s.facebookCfg.AppSecret

	if requested := strings.TrimSpace(req.AppID); requested != "" {
		cred, err := s.creds.FindByUserAndAppID(ctx, userID, requested)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup credential")
		}
		if cred != nil {
			appID = cred.AppID
			if cred.AppSecret != nil && *cred.AppSecret != "" {
				appSecret = *cred.AppSecret
			}
		}
	} else {
		creds, err := s.creds.ListByUser(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list credentials")
		}
		for i := range creds {
			if creds[i].AppSecret != nil && *creds[i].AppSecret != "" {
				appID = creds[i].AppID
				appSecret = *creds[i].AppSecret
				break
			}
		}
	}

	if appID == "" || appSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no app id/secret available for exchange")
	}

	exchanged, err := s.graph.ExchangeToken(ctx, appID, appSecret, shortToken)
	if err != nil {
		return nil, err
	}

	ttl := defaultExchangeTTL
	if exchanged.ExpiresIn > 0 {
		ttl = time.Duration(exchanged.ExpiresIn) * time.Second
	}

	return &ExchangeResponse{
		AccessToken: exchanged.AccessToken,
		TokenType:   enums.TokenTypeLongLived,
		ExpiresAt:   s.now().Add(ttl),
	}, nil
}
