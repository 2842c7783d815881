package credentials

import (
	"time"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

// LegacyCredentialID is the sentinel id used for the pseudo-credential that
// surfaces a pre-migration single token through the credentials listing.
const LegacyCredentialID = "legacy"

// SaveRequest is the payload accepted by the credential upsert.
type SaveRequest struct {
	AppID       string     `json:"app_id,omitempty"`
	AppName     string     `json:"app_name"`
	AccessToken string     `json:"access_token" validate:"required"`
	AppSecret   *string    `json:"app_secret,omitempty"`
	TokenType   string     `json:"token_type,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ExchangeRequest carries a short-lived token to swap for a long-lived one.
type ExchangeRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	AppID       string `json:"app_id,omitempty"`
}

// CredentialDTO is the transport shape for a stored credential. The raw
// access token is never included.
type CredentialDTO struct {
	ID        string          `json:"id"`
	AppID     string          `json:"app_id"`
	AppName   string          `json:"app_name"`
	TokenType enums.TokenType `json:"token_type"`
	HasSecret bool            `json:"has_secret"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ExchangeResponse is the result of a long-lived token exchange. The token is
// returned to the caller but not persisted.
type ExchangeResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   enums.TokenType `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// Resolved is the outcome of credential resolution: the token to call the
// Graph API with and where it came from.
type Resolved struct {
	AccessToken string
	AppID       string
	Source      string
}

// Resolution sources.
const (
	SourceCredential = "credential"
	SourceLegacy     = "legacy"
)

func fromModel(c *models.FacebookCredential) CredentialDTO {
	return CredentialDTO{
		ID:        c.ID.String(),
		AppID:     c.AppID,
		AppName:   c.AppName,
		TokenType: c.TokenType,
		HasSecret: c.AppSecret != nil && *c.AppSecret != "",
		ExpiresAt: c.ExpiresAt,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
