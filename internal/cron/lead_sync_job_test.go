package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/internal/leadsync"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

type fakeFormLister struct {
	forms []models.Form
	err   error
}

func (f *fakeFormLister) ListAllActive(context.Context) ([]models.Form, error) {
	return f.forms, f.err
}

type fakeSyncService struct {
	requests []leadsync.Request
	failFor  map[string]error
}

func (f *fakeSyncService) Sync(_ context.Context, req leadsync.Request) (*leadsync.Result, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.failFor[req.FormID]; ok {
		return nil, err
	}
	return &leadsync.Result{TotalFetched: 2, Inserted: 1}, nil
}

func createLeadSyncJobTest(t *testing.T, forms *fakeFormLister, sync *fakeSyncService) Job {
	t.Helper()
	job, err := NewLeadSyncJob(LeadSyncJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		FormRepo: forms,
		SyncSvc:  sync,
	})
	if err != nil {
		t.Fatalf("NewLeadSyncJob: %v", err)
	}
	return job
}

func strPtr(v string) *string { return &v }

func TestLeadSyncJobSyncsEveryActiveForm(t *testing.T) {
	userID := uuid.New()
	forms := &fakeFormLister{forms: []models.Form{
		{UserID: userID, FormID: "form-1", FacebookAppID: strPtr("app-9")},
		{UserID: userID, FormID: "form-2"},
	}}
	sync := &fakeSyncService{}
	job := createLeadSyncJobTest(t, forms, sync)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sync.requests) != 2 {
		t.Fatalf("expected 2 sync calls, got %d", len(sync.requests))
	}
	if sync.requests[0].AppID != "app-9" {
		t.Fatalf("expected credential app id forwarded, got %q", sync.requests[0].AppID)
	}
	if sync.requests[1].AppID != "" {
		t.Fatalf("expected blank app id for unbound form, got %q", sync.requests[1].AppID)
	}
	if sync.requests[0].UserID != userID {
		t.Fatalf("expected form owner forwarded")
	}
}

func TestLeadSyncJobContinuesPastFailingForm(t *testing.T) {
	forms := &fakeFormLister{forms: []models.Form{
		{UserID: uuid.New(), FormID: "bad"},
		{UserID: uuid.New(), FormID: "good"},
	}}
	sync := &fakeSyncService{failFor: map[string]error{"bad": errors.New("upstream down")}}
	job := createLeadSyncJobTest(t, forms, sync)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected combined error for failing form")
	}
	if len(sync.requests) != 2 {
		t.Fatalf("expected both forms attempted, got %d", len(sync.requests))
	}
}

func TestLeadSyncJobNoActiveForms(t *testing.T) {
	job := createLeadSyncJobTest(t, &fakeFormLister{}, &fakeSyncService{})
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected nil with no forms, got %v", err)
	}
}

func TestLeadSyncJobListFailure(t *testing.T) {
	forms := &fakeFormLister{err: errors.New("db down")}
	job := createLeadSyncJobTest(t, forms, &fakeSyncService{})
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error when listing forms fails")
	}
}

func TestLeadSyncJobDefaults(t *testing.T) {
	job := createLeadSyncJobTest(t, &fakeFormLister{}, &fakeSyncService{})
	if job.Name() != leadSyncJobName {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if job.Interval() != defaultLeadSyncInterval {
		t.Fatalf("expected default interval, got %s", job.Interval())
	}
}
