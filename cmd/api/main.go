package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fishermenfirst/fleetquota-backend/api/controllers"
	"github.com/fishermenfirst/fleetquota-backend/api/routes"
	"github.com/fishermenfirst/fleetquota-backend/internal/allocations"
	"github.com/fishermenfirst/fleetquota-backend/internal/auth"
	"github.com/fishermenfirst/fleetquota-backend/internal/bycatch"
	"github.com/fishermenfirst/fleetquota-backend/internal/harvests"
	"github.com/fishermenfirst/fleetquota-backend/internal/ledger"
	"github.com/fishermenfirst/fleetquota-backend/internal/refdata"
	"github.com/fishermenfirst/fleetquota-backend/internal/reports"
	"github.com/fishermenfirst/fleetquota-backend/internal/transfers"
	"github.com/fishermenfirst/fleetquota-backend/pkg/auth/session"
	"github.com/fishermenfirst/fleetquota-backend/pkg/config"
	"github.com/fishermenfirst/fleetquota-backend/pkg/db"
	"github.com/fishermenfirst/fleetquota-backend/pkg/logger"
	"github.com/fishermenfirst/fleetquota-backend/pkg/metrics"
	"github.com/fishermenfirst/fleetquota-backend/pkg/migrate"
	"github.com/fishermenfirst/fleetquota-backend/pkg/pubsub"
	"github.com/fishermenfirst/fleetquota-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	// Fleet alert broadcasts are optional; without a project/topic the share
	// flow still works, it just skips the publish.
	var psClient *pubsub.Client
	if cfg.GCP.ProjectID != "" && cfg.PubSub.FleetAlertTopic != "" {
		psClient, err = pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "pubsub not configured, fleet alert publishing disabled")
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	quotaMetrics := metrics.NewQuotaMetrics(registry)

	gormDB := dbClient.DB()

	authService := auth.NewService(auth.NewRepository(gormDB), sessionManager, cfg.JWT, cfg.Password)

	ledgerRepo := ledger.NewRepository(gormDB)
	ledgerService, err := ledger.NewService(ledgerRepo, redisClient, quotaMetrics, cfg.Quota.LedgerCacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	transfersService, err := transfers.NewService(transfers.NewRepository(gormDB), ledgerRepo, dbClient, ledgerService, quotaMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create transfers service", err)
		os.Exit(1)
	}

	allocationsService := allocations.NewService(allocations.NewRepository(gormDB), ledgerService)
	harvestsService := harvests.NewService(harvests.NewRepository(gormDB), ledgerService, quotaMetrics, logg)

	var bycatchService bycatch.Service
	if psClient != nil {
		bycatchService = bycatch.NewService(bycatch.NewRepository(gormDB), psClient, quotaMetrics, logg)
	} else {
		bycatchService = bycatch.NewService(bycatch.NewRepository(gormDB), nil, quotaMetrics, logg)
	}

	refdataService := refdata.NewService(refdata.NewRepository(gormDB), dbClient)
	reportsService := reports.NewService(reports.NewRepository(gormDB), ledgerService, logg)

	healthChecks := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}
	if psClient != nil {
		healthChecks["pubsub"] = psClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Sessions:       sessionManager,
			RedisClient:    redisClient,
			HealthChecks:   healthChecks,
			HTTPMetrics:    httpMetrics,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

			AuthService:        authService,
			LedgerService:      ledgerService,
			TransfersService:   transfersService,
			AllocationsService: allocationsService,
			HarvestsService:    harvestsService,
			BycatchService:     bycatchService,
			RefdataService:     refdataService,
			ReportsService:     reportsService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeout); err != nil {
			logg.Error(ctx, "error during shutdown", err)
			os.Exit(1)
		}
	}
}
