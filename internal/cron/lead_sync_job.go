package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Questdigiflex/META-CRM/internal/leadsync"
	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

const (
	leadSyncJobName         = "lead-sync"
	defaultLeadSyncInterval = 15 * time.Minute
)

type activeFormLister interface {
	ListAllActive(ctx context.Context) ([]models.Form, error)
}

type leadSyncRunner interface {
	Sync(ctx context.Context, req leadsync.Request) (*leadsync.Result, error)
}

// LeadSyncJobParams configures the scheduled lead pull.
type LeadSyncJobParams struct {
	Logger   *logger.Logger
	FormRepo activeFormLister
	SyncSvc  leadSyncRunner
	Interval time.Duration
}

type leadSyncJob struct {
	logg     *logger.Logger
	forms    activeFormLister
	sync     leadSyncRunner
	interval time.Duration
}

// NewLeadSyncJob constructs the recurring lead sync job.
func NewLeadSyncJob(params LeadSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.FormRepo == nil {
		return nil, fmt.Errorf("form repository required")
	}
	if params.SyncSvc == nil {
		return nil, fmt.Errorf("sync service required")
	}
	if params.Interval <= 0 {
		params.Interval = defaultLeadSyncInterval
	}
	return &leadSyncJob{
		logg:     params.Logger,
		forms:    params.FormRepo,
		sync:     params.SyncSvc,
		interval: params.Interval,
	}, nil
}

func (j *leadSyncJob) Name() string { return leadSyncJobName }

func (j *leadSyncJob) Interval() time.Duration { return j.interval }

// Run syncs every active form. A form that fails is logged and skipped; the
// combined error is reported once at the end.
func (j *leadSyncJob) Run(ctx context.Context) error {
	forms, err := j.forms.ListAllActive(ctx)
	if err != nil {
		return fmt.Errorf("list active forms: %w", err)
	}
	if len(forms) == 0 {
		j.logg.Info(ctx, "no active forms to sync")
		return nil
	}

	var errs error
	for i := range forms {
		form := &forms[i]
		formCtx := j.logg.WithFormID(ctx, form.FormID)

		req := leadsync.Request{
			UserID: form.UserID,
			FormID: form.FormID,
		}
		if form.FacebookAppID != nil {
			req.AppID = *form.FacebookAppID
		}

		result, err := j.sync.Sync(formCtx, req)
		if err != nil {
			j.logg.Error(formCtx, "form sync failed", err)
			errs = multierr.Append(errs, fmt.Errorf("form %s: %w", form.FormID, err))
			continue
		}

		formCtx = j.logg.WithFields(formCtx, map[string]any{
			"fetched":  result.TotalFetched,
			"inserted": result.Inserted,
			"errors":   len(result.Errors),
		})
		j.logg.Info(formCtx, "form synced")
	}
	return errs
}
