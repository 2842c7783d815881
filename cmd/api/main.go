package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/Questdigiflex/META-CRM/api/routes"
	"github.com/Questdigiflex/META-CRM/internal/auth"
	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/discovery"
	"github.com/Questdigiflex/META-CRM/internal/forms"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/internal/leads"
	"github.com/Questdigiflex/META-CRM/internal/leadsync"
	"github.com/Questdigiflex/META-CRM/internal/users"
	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/db"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
	"github.com/Questdigiflex/META-CRM/pkg/migrate"
	"github.com/Questdigiflex/META-CRM/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	graphClient := graph.NewClient(graph.WithBaseURL(cfg.Facebook.GraphBaseURL))

	userRepo := users.NewRepository(dbClient.DB())
	credentialRepo := credentials.NewRepository(dbClient.DB())
	formRepo := forms.NewRepository(dbClient.DB())
	leadRepo := leads.NewRepository(dbClient.DB())
	insightsRepo := insights.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	credentialsService, err := credentials.NewService(credentials.ServiceParams{
		CredentialRepo: credentialRepo,
		UserRepo:       userRepo,
		GraphClient:    graphClient,
		FacebookConfig: cfg.Facebook,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create credentials service", err)
		os.Exit(1)
	}

	discoveryService, err := discovery.NewService(discovery.ServiceParams{
		GraphClient:    graphClient,
		CredentialsSvc: credentialsService,
		FormRepo:       formRepo,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create discovery service", err)
		os.Exit(1)
	}

	formsService, err := forms.NewService(formRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create forms service", err)
		os.Exit(1)
	}

	leadsService, err := leads.NewService(leadRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create leads service", err)
		os.Exit(1)
	}

	leadSyncService, err := leadsync.NewService(leadsync.ServiceParams{
		GraphClient:    graphClient,
		CredentialsSvc: credentialsService,
		FormRepo:       formRepo,
		LeadRepo:       leadRepo,
		Logger:         logg,
		PageLimit:      cfg.Sync.LeadsLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lead sync service", err)
		os.Exit(1)
	}

	insightsService, err := insights.NewService(insights.ServiceParams{
		GraphClient: graphClient,
		CacheRepo:   insightsRepo,
		CacheTTL:    cfg.Insights.CacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create insights service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Auth:        authService,
			Credentials: credentialsService,
			Discovery:   discoveryService,
			Forms:       formsService,
			Leads:       leadsService,
			LeadSync:    leadSyncService,
			Insights:    insightsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
