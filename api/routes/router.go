package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Questdigiflex/META-CRM/api/controllers"
	"github.com/Questdigiflex/META-CRM/api/middleware"
	"github.com/Questdigiflex/META-CRM/internal/auth"
	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/discovery"
	"github.com/Questdigiflex/META-CRM/internal/forms"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/internal/leads"
	"github.com/Questdigiflex/META-CRM/internal/leadsync"
	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/db"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
	"github.com/Questdigiflex/META-CRM/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth        auth.Service
	Credentials credentials.Service
	Discovery   discovery.Service
	Forms       forms.Service
	Leads       leads.Service
	LeadSync    leadsync.Service
	Insights    insights.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/auth", func(r chi.Router) {
			r.Get("/profile", controllers.AuthProfile(svcs.Auth, logg))
			r.Put("/access-token", controllers.AuthUpdateLegacyToken(svcs.Auth, logg))
		})

		r.Route("/v1/credentials", func(r chi.Router) {
			r.Get("/", controllers.ListCredentials(svcs.Credentials, logg))
			r.Post("/", controllers.SaveCredential(svcs.Credentials, logg))
			r.Delete("/{credentialId}", controllers.DeleteCredential(svcs.Credentials, logg))
			r.Post("/exchange", controllers.ExchangeToken(svcs.Credentials, logg))
		})

		r.Route("/v1/facebook", func(r chi.Router) {
			r.Get("/pages", controllers.ListPages(svcs.Discovery, logg))
			r.Get("/pages/{pageId}/forms", controllers.ListPageForms(svcs.Discovery, logg))
			r.Post("/discover", controllers.DiscoverForms(svcs.Discovery, logg))
		})

		r.Route("/v1/forms", func(r chi.Router) {
			r.Get("/", controllers.ListForms(svcs.Forms, logg))
			r.Post("/", controllers.AddForm(svcs.Forms, logg))
			r.Get("/{formId}", controllers.GetForm(svcs.Forms, logg))
			r.Patch("/{formId}", controllers.UpdateForm(svcs.Forms, logg))
			r.Delete("/{formId}", controllers.DeleteForm(svcs.Forms, logg))
		})

		r.Route("/v1/leads", func(r chi.Router) {
			r.Get("/", controllers.ListLeads(svcs.Leads, logg))
			r.Post("/sync", controllers.SyncLeads(svcs.LeadSync, logg))
			r.Get("/export.csv", controllers.ExportLeadsCSV(svcs.Leads, logg))
			r.Get("/{leadId}", controllers.GetLead(svcs.Leads, logg))
			r.Patch("/{leadId}", controllers.UpdateLead(svcs.Leads, logg))
			r.Delete("/{leadId}", controllers.DeleteLead(svcs.Leads, logg))
		})

		r.Route("/v1/analytics", func(r chi.Router) {
			r.Get("/insights", controllers.GetInsights(svcs.Credentials, svcs.Insights, logg))
			r.Get("/export.csv", controllers.ExportInsightsCSV(svcs.Credentials, svcs.Insights, logg))
			r.Get("/adaccounts", controllers.ListAdAccounts(svcs.Discovery, logg))
		})
	})

	return r
}
