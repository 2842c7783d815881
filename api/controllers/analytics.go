package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Questdigiflex/META-CRM/api/responses"
	"github.com/Questdigiflex/META-CRM/api/validators"
	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/discovery"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

// GetInsights serves cached ads insights, fetching from the Graph API when
// the cache is stale or bypassed.
func GetInsights(creds credentials.Service, svc insights.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creds == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "insights service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adAccountID := strings.TrimSpace(r.URL.Query().Get("ad_account_id"))
		if adAccountID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ad_account_id is required"))
			return
		}

		datePreset := strings.TrimSpace(r.URL.Query().Get("date_preset"))
		if datePreset == "" {
			datePreset = string(enums.DatePresetLast30d)
		}
		breakdown := strings.TrimSpace(r.URL.Query().Get("breakdown"))

		force, err := validators.ParseQueryBool(r, "force")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		withSummary, err := validators.ParseQueryBool(r, "summary")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appID := strings.TrimSpace(r.URL.Query().Get("app_id"))
		resolved, err := creds.Resolve(r.Context(), userID, appID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), userID, resolved.AccessToken, adAccountID, datePreset, breakdown, force)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{"insights": result}
		if withSummary {
			summary, err := svc.Summarize(result.Data)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			payload["summary"] = summary
		}
		responses.WriteSuccess(w, payload)
	}
}

// ExportInsightsCSV streams the insights rows for an ad account as a CSV
// download, served through the same cache path as GetInsights.
func ExportInsightsCSV(creds credentials.Service, svc insights.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creds == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "insights service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adAccountID := strings.TrimSpace(r.URL.Query().Get("ad_account_id"))
		if adAccountID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ad_account_id is required"))
			return
		}

		datePreset := strings.TrimSpace(r.URL.Query().Get("date_preset"))
		if datePreset == "" {
			datePreset = string(enums.DatePresetLast30d)
		}
		if _, err := enums.ParseDatePreset(datePreset); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid date_preset"))
			return
		}
		breakdown := strings.TrimSpace(r.URL.Query().Get("breakdown"))

		appID := strings.TrimSpace(r.URL.Query().Get("app_id"))
		resolved, err := creds.Resolve(r.Context(), userID, appID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("insights-%s-%s.csv", adAccountID, datePreset)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := svc.ExportCSV(r.Context(), userID, resolved.AccessToken, adAccountID, datePreset, breakdown, w); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "insights export failed", err)
			}
			return
		}
	}
}

// ListAdAccounts returns the ad accounts visible to the user's credential.
func ListAdAccounts(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appID := strings.TrimSpace(r.URL.Query().Get("app_id"))
		result, err := svc.AdAccounts(r.Context(), userID, appID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"ad_accounts": result})
	}
}
