package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

type fakeCacheLister struct {
	entries []models.InsightsCacheEntry
	err     error
	window  time.Duration
}

func (f *fakeCacheLister) ListExpiringWithin(_ context.Context, _ time.Time, window time.Duration) ([]models.InsightsCacheEntry, error) {
	f.window = window
	return f.entries, f.err
}

type fetchCall struct {
	userID      uuid.UUID
	adAccountID string
	datePreset  string
	breakdown   string
	force       bool
}

type fakeInsightsFetcher struct {
	calls   []fetchCall
	failFor map[string]error
}

func (f *fakeInsightsFetcher) Get(_ context.Context, userID uuid.UUID, _ string, adAccountID, datePreset, breakdown string, force bool) (*insights.Result, error) {
	f.calls = append(f.calls, fetchCall{
		userID:      userID,
		adAccountID: adAccountID,
		datePreset:  datePreset,
		breakdown:   breakdown,
		force:       force,
	})
	if err, ok := f.failFor[adAccountID]; ok {
		return nil, err
	}
	return &insights.Result{AdAccountID: adAccountID}, nil
}

type fakeTokenResolver struct {
	tokens map[uuid.UUID]string
}

func (f *fakeTokenResolver) Resolve(_ context.Context, userID uuid.UUID, _ string) (*credentials.Resolved, error) {
	token, ok := f.tokens[userID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNoCredential, "no facebook credential configured")
	}
	return &credentials.Resolved{AccessToken: token, Source: credentials.SourceCredential}, nil
}

func createInsightsRefreshTest(t *testing.T, cache *fakeCacheLister, fetcher *fakeInsightsFetcher, resolver *fakeTokenResolver) Job {
	t.Helper()
	job, err := NewInsightsRefreshJob(InsightsRefreshJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "cron-test"}),
		Cache:       cache,
		Insights:    fetcher,
		Credentials: resolver,
	})
	if err != nil {
		t.Fatalf("NewInsightsRefreshJob: %v", err)
	}
	return job
}

func TestInsightsRefreshJobForcesRefetch(t *testing.T) {
	userID := uuid.New()
	cache := &fakeCacheLister{entries: []models.InsightsCacheEntry{{
		UserID:      userID,
		AdAccountID: "act_1",
		DatePreset:  enums.DatePresetLast7d,
		Breakdown:   "age",
	}}}
	fetcher := &fakeInsightsFetcher{}
	resolver := &fakeTokenResolver{tokens: map[uuid.UUID]string{userID: "token-a"}}
	job := createInsightsRefreshTest(t, cache, fetcher, resolver)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(fetcher.calls))
	}
	call := fetcher.calls[0]
	if !call.force {
		t.Fatalf("expected forced refresh")
	}
	if call.adAccountID != "act_1" || call.datePreset != string(enums.DatePresetLast7d) || call.breakdown != "age" {
		t.Fatalf("unexpected call %+v", call)
	}
	if cache.window != defaultExpiryWindow {
		t.Fatalf("expected default expiry window, got %s", cache.window)
	}
}

func TestInsightsRefreshJobSkipsUsersWithoutCredential(t *testing.T) {
	withToken := uuid.New()
	withoutToken := uuid.New()
	cache := &fakeCacheLister{entries: []models.InsightsCacheEntry{
		{UserID: withoutToken, AdAccountID: "act_1", DatePreset: enums.DatePresetLast7d},
		{UserID: withToken, AdAccountID: "act_2", DatePreset: enums.DatePresetLast30d},
	}}
	fetcher := &fakeInsightsFetcher{}
	resolver := &fakeTokenResolver{tokens: map[uuid.UUID]string{withToken: "token-b"}}
	job := createInsightsRefreshTest(t, cache, fetcher, resolver)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected missing credential to be skipped, got %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(fetcher.calls))
	}
	if fetcher.calls[0].adAccountID != "act_2" {
		t.Fatalf("expected only the credentialed entry fetched")
	}
}

func TestInsightsRefreshJobContinuesPastFailure(t *testing.T) {
	userID := uuid.New()
	cache := &fakeCacheLister{entries: []models.InsightsCacheEntry{
		{UserID: userID, AdAccountID: "act_bad", DatePreset: enums.DatePresetLast7d},
		{UserID: userID, AdAccountID: "act_good", DatePreset: enums.DatePresetLast7d},
	}}
	fetcher := &fakeInsightsFetcher{failFor: map[string]error{
		"act_bad": pkgerrors.New(pkgerrors.CodeUpstream, "facebook: rate limited"),
	}}
	resolver := &fakeTokenResolver{tokens: map[uuid.UUID]string{userID: "token-c"}}
	job := createInsightsRefreshTest(t, cache, fetcher, resolver)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected combined error for failing entry")
	}
	if len(fetcher.calls) != 2 {
		t.Fatalf("expected both entries attempted, got %d", len(fetcher.calls))
	}
}

func TestInsightsRefreshJobNothingExpiring(t *testing.T) {
	fetcher := &fakeInsightsFetcher{}
	job := createInsightsRefreshTest(t, &fakeCacheLister{}, fetcher, &fakeTokenResolver{})
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetches, got %d", len(fetcher.calls))
	}
}

func TestInsightsRefreshJobListFailure(t *testing.T) {
	cache := &fakeCacheLister{err: errors.New("db down")}
	job := createInsightsRefreshTest(t, cache, &fakeInsightsFetcher{}, &fakeTokenResolver{})
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error when cache listing fails")
	}
}
