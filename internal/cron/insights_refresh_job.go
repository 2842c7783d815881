package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

const (
	insightsRefreshJobName         = "insights-refresh"
	defaultInsightsRefreshInterval = 6 * time.Hour
	defaultExpiryWindow            = time.Hour
)

type expiringCacheLister interface {
	ListExpiringWithin(ctx context.Context, now time.Time, window time.Duration) ([]models.InsightsCacheEntry, error)
}

type insightsFetcher interface {
	Get(ctx context.Context, userID uuid.UUID, accessToken, adAccountID, datePreset, breakdown string, force bool) (*insights.Result, error)
}

type tokenResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID, explicitAppID string) (*credentials.Resolved, error)
}

// InsightsRefreshJobParams configures the cache warming pass.
type InsightsRefreshJobParams struct {
	Logger       *logger.Logger
	Cache        expiringCacheLister
	Insights     insightsFetcher
	Credentials  tokenResolver
	Interval     time.Duration
	ExpiryWindow time.Duration
	Now          func() time.Time
}

type insightsRefreshJob struct {
	logg     *logger.Logger
	cache    expiringCacheLister
	insights insightsFetcher
	creds    tokenResolver
	interval time.Duration
	window   time.Duration
	now      func() time.Time
}

// NewInsightsRefreshJob constructs the job that re-fetches insight cache
// entries close to expiry.
func NewInsightsRefreshJob(params InsightsRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache repository required")
	}
	if params.Insights == nil {
		return nil, fmt.Errorf("insights service required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credential resolver required")
	}
	if params.Interval <= 0 {
		params.Interval = defaultInsightsRefreshInterval
	}
	if params.ExpiryWindow <= 0 {
		params.ExpiryWindow = defaultExpiryWindow
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &insightsRefreshJob{
		logg:     params.Logger,
		cache:    params.Cache,
		insights: params.Insights,
		creds:    params.Credentials,
		interval: params.Interval,
		window:   params.ExpiryWindow,
		now:      params.Now,
	}, nil
}

func (j *insightsRefreshJob) Name() string { return insightsRefreshJobName }

func (j *insightsRefreshJob) Interval() time.Duration { return j.interval }

// Run re-fetches every cache entry expiring within the window. Users without
// a usable credential are skipped rather than treated as failures.
func (j *insightsRefreshJob) Run(ctx context.Context) error {
	entries, err := j.cache.ListExpiringWithin(ctx, j.now(), j.window)
	if err != nil {
		return fmt.Errorf("list expiring cache entries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	var errs error
	for i := range entries {
		entry := &entries[i]
		entryCtx := j.logg.WithFields(ctx, map[string]any{
			"user_id":       entry.UserID.String(),
			"ad_account_id": entry.AdAccountID,
			"date_preset":   string(entry.DatePreset),
		})

		resolved, err := j.creds.Resolve(entryCtx, entry.UserID, "")
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNoCredential) {
				j.logg.Warn(entryCtx, "skipping refresh, no credential")
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("resolve credential for %s: %w", entry.UserID, err))
			continue
		}

		_, err = j.insights.Get(entryCtx, entry.UserID, resolved.AccessToken, entry.AdAccountID, string(entry.DatePreset), entry.Breakdown, true)
		if err != nil {
			j.logg.Error(entryCtx, "insights refresh failed", err)
			errs = multierr.Append(errs, fmt.Errorf("refresh %s/%s: %w", entry.AdAccountID, entry.DatePreset, err))
			continue
		}
		j.logg.Info(entryCtx, "insights cache refreshed")
	}
	return errs
}
