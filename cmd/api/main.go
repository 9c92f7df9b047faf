package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfcarvalho/radiostock-backend/api/controllers"
	"github.com/dfcarvalho/radiostock-backend/api/routes"
	authsvc "github.com/dfcarvalho/radiostock-backend/internal/auth"
	"github.com/dfcarvalho/radiostock-backend/internal/catalog"
	"github.com/dfcarvalho/radiostock-backend/internal/equipment"
	"github.com/dfcarvalho/radiostock-backend/internal/invoices"
	"github.com/dfcarvalho/radiostock-backend/internal/maintenance"
	"github.com/dfcarvalho/radiostock-backend/internal/movements"
	"github.com/dfcarvalho/radiostock-backend/internal/users"
	"github.com/dfcarvalho/radiostock-backend/pkg/auth/session"
	"github.com/dfcarvalho/radiostock-backend/pkg/config"
	"github.com/dfcarvalho/radiostock-backend/pkg/db"
	"github.com/dfcarvalho/radiostock-backend/pkg/logger"
	"github.com/dfcarvalho/radiostock-backend/pkg/metrics"
	"github.com/dfcarvalho/radiostock-backend/pkg/migrate"
	"github.com/dfcarvalho/radiostock-backend/pkg/redis"
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

	userRepo := users.NewRepository(dbClient.DB())
	if seeded, err := users.EnsureAdmin(context.Background(), userRepo, cfg.Bootstrap, cfg.Password); err != nil {
		logg.Error(context.Background(), "failed to seed admin user", err)
		os.Exit(1)
	} else if seeded {
		logg.Info(context.Background(), "admin user seeded")
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	movementsService, err := movements.NewService(movements.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create movements service", err)
		os.Exit(1)
	}

	equipmentRepo := equipment.NewRepository(dbClient.DB())
	equipmentService, err := equipment.NewService(equipment.ServiceParams{
		Tx:        dbClient,
		Repo:      equipmentRepo,
		Models:    catalogService,
		Movements: movementsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create equipment service", err)
		os.Exit(1)
	}

	invoiceRepo := invoices.NewRepository(dbClient.DB())
	maintenanceService, err := maintenance.NewService(maintenance.ServiceParams{
		Tx:         dbClient,
		Repo:       maintenance.NewRepository(dbClient.DB()),
		Equipment:  equipmentRepo,
		Invoices:   invoiceRepo,
		Movements:  movementsService,
		CodePrefix: cfg.Maintenance.WorkOrderPrefix,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Tx:         dbClient,
		Repo:       invoiceRepo,
		Equipment:  equipmentRepo,
		Movements:  movementsService,
		WorkOrders: maintenanceService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Sessions:    sessionManager,
		HTTPMetrics: httpMetrics,
		MetricsH:    promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Auth:        authService,
		Catalog:     catalogService,
		Equipment:   equipmentService,
		Invoices:    invoiceService,
		Maintenance: maintenanceService,
		ReadyChecks: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
	})

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
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
