package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lucasvrm/bipolar-api-sub002/internal/audit"
	"github.com/lucasvrm/bipolar-api-sub002/internal/handler"
	"github.com/lucasvrm/bipolar-api-sub002/internal/identity"
	"github.com/lucasvrm/bipolar-api-sub002/internal/middleware"
	"github.com/lucasvrm/bipolar-api-sub002/internal/safety"
	"github.com/lucasvrm/bipolar-api-sub002/internal/store"
	"github.com/lucasvrm/bipolar-api-sub002/internal/testdata"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/config"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/database"
	"github.com/lucasvrm/bipolar-api-sub002/pkg/logger"
	"github.com/lucasvrm/bipolar-api-sub002/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting bipolar test-data service...", zap.String("environment", cfg.Server.Env))

	// Initialize the store. DB-disabled mode keeps everything in memory
	// for local development.
	var st store.Store
	if cfg.Database.Disabled {
		log.Warn("Database disabled, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		db, err := database.InitDB(cfg, log)
		if err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		st = store.NewGormStore(db)
		log.Info("Database connection established and migrations completed")
	}

	// Identity provider: external admin API or the local directory
	var idp identity.Provider
	if cfg.Identity.Provider == "http" {
		idp = identity.NewHTTPProvider(cfg.Identity, log)
	} else {
		log.Warn("Using local in-memory identity directory")
		idp = identity.NewLocalDirectory()
	}

	// Wire the lifecycle components; all dependencies are injected, no
	// package-level state.
	guard := safety.NewGuard(cfg.IsProduction(), cfg.Safety)
	recorder := audit.NewRecorder(st, log)
	provisioner := testdata.NewProvisioner(st, idp, guard, recorder, log)
	cascade := testdata.NewCascade(st, guard, recorder, log)

	testDataHandler := handler.NewTestDataHandler(provisioner)
	maintenanceHandler := handler.NewMaintenanceHandler(cascade)
	auditHandler := handler.NewAuditHandler(recorder)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Admin routes - every operation behind the admin gate
	admin := e.Group("/admin", middleware.AdminAuthMiddleware(cfg.JWT.SigningKey))

	testData := admin.Group("/test-data")
	testData.POST("/users", testDataHandler.ProvisionUsers)
	testData.POST("/check-ins", testDataHandler.ProvisionCheckIns)
	testData.POST("/delete-test-users", maintenanceHandler.DeleteTestUsers)

	admin.POST("/database/clear", maintenanceHandler.ClearDatabase)
	admin.POST("/audit-log", auditHandler.LogAdminAction)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
