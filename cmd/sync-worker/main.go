package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Questdigiflex/META-CRM/internal/credentials"
	"github.com/Questdigiflex/META-CRM/internal/cron"
	"github.com/Questdigiflex/META-CRM/internal/forms"
	"github.com/Questdigiflex/META-CRM/internal/insights"
	"github.com/Questdigiflex/META-CRM/internal/leads"
	"github.com/Questdigiflex/META-CRM/internal/leadsync"
	"github.com/Questdigiflex/META-CRM/internal/users"
	"github.com/Questdigiflex/META-CRM/pkg/config"
	"github.com/Questdigiflex/META-CRM/pkg/db"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
	"github.com/Questdigiflex/META-CRM/pkg/logger"
	"github.com/Questdigiflex/META-CRM/pkg/metrics"
	"github.com/Questdigiflex/META-CRM/pkg/migrate"
	"github.com/Questdigiflex/META-CRM/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
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

	leadSyncJob, err := cron.NewLeadSyncJob(cron.LeadSyncJobParams{
		Logger:   logg,
		FormRepo: formRepo,
		SyncSvc:  leadSyncService,
		Interval: cfg.Sync.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create lead sync job", err)
		os.Exit(1)
	}

	insightsRefreshJob, err := cron.NewInsightsRefreshJob(cron.InsightsRefreshJobParams{
		Logger:       logg,
		Cache:        insightsRepo,
		Insights:     insightsService,
		Credentials:  credentialsService,
		Interval:     cfg.Insights.RefreshInterval,
		ExpiryWindow: cfg.Insights.RefreshWindow,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create insights refresh job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(leadSyncJob, insightsRefreshJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		NewLock: func(jobName string) (cron.Lock, error) {
			return cron.NewRedisLock(redisClient, redisClient.LockKey("sync-worker:"+jobName), 0)
		},
		Metrics: metrics.NewSyncJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}
