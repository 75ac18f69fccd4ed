package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/rifyops/rify-engine/pkg/config"
	"github.com/rifyops/rify-engine/pkg/database"
	"github.com/rifyops/rify-engine/pkg/handlers"
	"github.com/rifyops/rify-engine/pkg/logging"
	"github.com/rifyops/rify-engine/pkg/monitoring"
	"github.com/rifyops/rify-engine/pkg/repositories"
	"github.com/rifyops/rify-engine/pkg/services"
	"github.com/rifyops/rify-engine/pkg/templates"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load("config.yaml", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("on_conflict", cfg.Dashboards.OnConflict))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Repositories
	dashboardRepo := repositories.NewDashboardRepository(db)
	variableRepo := repositories.NewVariableRepository(db)
	valueRepo := repositories.NewVariableValueRepository(db)
	templateRepo := repositories.NewTemplateRepository(db)

	// Services
	dashboardService := services.NewDashboardService(db, dashboardRepo, variableRepo, valueRepo, cfg.Dashboards.OnConflict, logger)
	variableService := services.NewVariableService(db, variableRepo, valueRepo, logger)
	valueService := services.NewVariableValueService(db, variableRepo, valueRepo, logger)
	templateService := services.NewTemplateService(db, templateRepo, logger)
	maintenanceService := services.NewMaintenanceService(db, dashboardRepo, variableRepo, valueRepo, logger)

	seedBuiltinTemplates(ctx, templateService, logger)

	executor := monitoring.NewPrometheusClient(
		cfg.Monitoring.PrometheusURL,
		time.Duration(cfg.Monitoring.TimeoutSecs)*time.Second,
		logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(mux)
	handlers.NewVariableHandler(variableService, valueService, logger).RegisterRoutes(mux)
	handlers.NewTemplateHandler(templateService, logger).RegisterRoutes(mux)
	handlers.NewMaintenanceHandler(maintenanceService, cfg.Retention.VariableValueDays, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(executor, logger).RegisterRoutes(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting rify-engine", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runMigrations applies pending migrations through database/sql, which
// golang-migrate requires.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}

// seedBuiltinTemplates reconciles the embedded catalog into the store.
// Failures are logged, not fatal: the service is usable without builtins.
func seedBuiltinTemplates(ctx context.Context, templateService services.TemplateService, logger *zap.Logger) {
	builtin, err := templates.Builtin()
	if err != nil {
		logger.Error("Failed to load builtin templates", zap.Error(err))
		return
	}

	synced := templateService.BatchSync(ctx, builtin)
	logger.Info("Seeded builtin templates",
		zap.Int("requested", len(builtin)),
		zap.Int("synced", len(synced)))
}
