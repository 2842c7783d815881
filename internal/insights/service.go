package insights

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
)

const defaultCacheTTL = 6 * time.Hour

// Result is one insights fetch, cached or fresh.
type Result struct {
	AdAccountID string           `json:"ad_account_id"`
	DatePreset  enums.DatePreset `json:"date_preset"`
	Breakdown   string           `json:"breakdown,omitempty"`
	Data        json.RawMessage  `json:"data"`
	FetchedAt   time.Time        `json:"fetched_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Cached      bool             `json:"cached"`
}

// Summary aggregates the ad-level rows of one insights payload.
type Summary struct {
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Spend       decimal.Decimal `json:"spend"`
	CTR         decimal.Decimal `json:"ctr"`
	CPC         decimal.Decimal `json:"cpc"`
	Rows        int             `json:"rows"`
}

// Service defines the insights behavior used by controllers and the refresh
// job.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID, accessToken, adAccountID, datePreset, breakdown string, force bool) (*Result, error)
	AdAccounts(ctx context.Context, accessToken string) ([]graph.AdAccount, error)
	Summarize(data json.RawMessage) (*Summary, error)
	ExportCSV(ctx context.Context, userID uuid.UUID, accessToken, adAccountID, datePreset, breakdown string, w io.Writer) error
}

type insightsGraph interface {
	GetInsights(ctx context.Context, adAccountID, accessToken, datePreset, breakdown string) (json.RawMessage, error)
	ListAdAccounts(ctx context.Context, accessToken string) ([]graph.AdAccount, error)
}

type cacheRepository interface {
	Find(ctx context.Context, userID uuid.UUID, adAccountID string, preset enums.DatePreset, breakdown string) (*models.InsightsCacheEntry, error)
	Upsert(ctx context.Context, entry *models.InsightsCacheEntry) error
}

type service struct {
	graph insightsGraph
	cache cacheRepository
	ttl   time.Duration
	now   func() time.Time
}

// ServiceParams bundles the dependencies required to build the insights service.
type ServiceParams struct {
	GraphClient insightsGraph
	CacheRepo   cacheRepository
	CacheTTL    time.Duration
}

// NewService constructs an insights service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.GraphClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "graph client required")
	}
	if params.CacheRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cache repository required")
	}
	if params.CacheTTL <= 0 {
		params.CacheTTL = defaultCacheTTL
	}
	return &service{
		graph: params.GraphClient,
		cache: params.CacheRepo,
		ttl:   params.CacheTTL,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Get validates the date preset, serves a fresh cache entry when one exists,
// and otherwise fetches from the Graph API and refreshes the cache. Upstream
// failures leave the cache untouched.
func (s *service) Get(ctx context.Context, userID uuid.UUID, accessToken, adAccountID, datePreset, breakdown string, force bool) (*Result, error) {
	preset, err := enums.ParseDatePreset(datePreset)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid date_preset")
	}
	if adAccountID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ad_account_id is required")
	}
	// the cache key uses the empty string for "no breakdown", never NULL
	breakdown = strings.TrimSpace(breakdown)

	now := s.now()
	entry, err := s.cache.Find(ctx, userID, adAccountID, preset, breakdown)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cache lookup")
	}
	if entry != nil && !force && entry.ExpiresAt.After(now) {
		return &Result{
			AdAccountID: adAccountID,
			DatePreset:  preset,
			Breakdown:   breakdown,
			Data:        json.RawMessage(entry.Data),
			FetchedAt:   entry.FetchedAt,
			ExpiresAt:   entry.ExpiresAt,
			Cached:      true,
		}, nil
	}

	data, err := s.graph.GetInsights(ctx, adAccountID, accessToken, preset.String(), breakdown)
	if err != nil {
		return nil, err
	}

	fresh := &models.InsightsCacheEntry{
		UserID:      userID,
		AdAccountID: adAccountID,
		DatePreset:  preset,
		Breakdown:   breakdown,
		Data:        dbtypes.JSONDocument(data),
		FetchedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := s.cache.Upsert(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cache upsert")
	}

	return &Result{
		AdAccountID: adAccountID,
		DatePreset:  preset,
		Breakdown:   breakdown,
		Data:        data,
		FetchedAt:   fresh.FetchedAt,
		ExpiresAt:   fresh.ExpiresAt,
	}, nil
}

func (s *service) AdAccounts(ctx context.Context, accessToken string) ([]graph.AdAccount, error) {
	return s.graph.ListAdAccounts(ctx, accessToken)
}

type insightRow struct {
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Spend       string `json:"spend"`
}

// Summarize totals impressions, clicks, and spend across the ad rows and
// derives overall CTR and CPC. Spend arithmetic stays in decimals.
func (s *service) Summarize(data json.RawMessage) (*Summary, error) {
	var rows []insightRow
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode insights data")
		}
	}

	summary := &Summary{
		Spend: decimal.Zero,
		CTR:   decimal.Zero,
		CPC:   decimal.Zero,
		Rows:  len(rows),
	}
	for _, row := range rows {
		summary.Impressions += parseCount(row.Impressions)
		summary.Clicks += parseCount(row.Clicks)
		if row.Spend != "" {
			spend, err := decimal.NewFromString(row.Spend)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse spend")
			}
			summary.Spend = summary.Spend.Add(spend)
		}
	}

	if summary.Impressions > 0 {
		summary.CTR = decimal.NewFromInt(summary.Clicks).
			Div(decimal.NewFromInt(summary.Impressions)).
			Mul(decimal.NewFromInt(100)).
			Round(4)
	}
	if summary.Clicks > 0 {
		summary.CPC = summary.Spend.Div(decimal.NewFromInt(summary.Clicks)).Round(4)
	}
	return summary, nil
}

// ExportCSV streams the insights rows for the account as CSV, going through
// the same cache path as Get.
func (s *service) ExportCSV(ctx context.Context, userID uuid.UUID, accessToken, adAccountID, datePreset, breakdown string, w io.Writer) error {
	result, err := s.Get(ctx, userID, accessToken, adAccountID, datePreset, breakdown, false)
	if err != nil {
		return err
	}
	return writeInsightsCSV(w, result.Data)
}

func parseCount(value string) int64 {
	if value == "" {
		return 0
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return 0
	}
	return parsed.IntPart()
}
