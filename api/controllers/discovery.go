package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Questdigiflex/META-CRM/api/responses"
	"github.com/Questdigiflex/META-CRM/internal/discovery"
	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
)

// ListPages returns the Facebook pages visible to the user's credential.
func ListPages(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
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
		result, err := svc.Pages(r.Context(), userID, appID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"pages": result})
	}
}

// ListPageForms returns the lead forms attached to one page.
func ListPageForms(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
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

		pageID := strings.TrimSpace(chi.URLParam(r, "pageId"))
		if pageID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "page id is required"))
			return
		}

		appID := strings.TrimSpace(r.URL.Query().Get("app_id"))
		result, err := svc.PageForms(r.Context(), userID, appID, pageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"forms": result})
	}
}

// DiscoverForms scans pages and registers any new lead forms.
func DiscoverForms(svc discovery.Service, logg *logger.Logger) http.HandlerFunc {
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
		pageID := strings.TrimSpace(r.URL.Query().Get("page_id"))

		result, err := svc.DiscoverAndSave(r.Context(), userID, appID, pageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
