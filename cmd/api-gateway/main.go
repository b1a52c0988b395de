package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly school timetable: catalog, manual placement and automatic scheduling
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()

	layout := models.Layout{Days: cfg.Timetable.Days, Periods: cfg.Timetable.Periods, Cohorts: cfg.Timetable.Cohorts}
	if err := layout.Check(); err != nil {
		logr.Warn("configured layout rejected, using default", zap.Error(err))
		layout = service.DefaultLayout()
	}
	store := repository.NewTimetableStore(layout)

	catalog := service.NewCatalogService(store, validator.New(), logr)
	if cfg.Timetable.SeedDefaults {
		seeded, err := catalog.SeedDefaults()
		if err != nil {
			logr.Warn("seed defaults failed", zap.Error(err))
		} else if seeded {
			logr.Info("seeded default catalog")
		}
	}

	checks := map[string]handler.Pinger{}
	opts := []service.TimetableServiceOption{service.WithMetrics(metrics)}

	if cfg.Persistence.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("postgres unavailable", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		snapshots := repository.NewSnapshotRepository(db)
		if err := snapshots.Migrate(ctx); err != nil {
			logr.Fatal("snapshot migration failed", zap.Error(err))
		}
		checks["postgres"] = snapshots
		opts = append(opts, service.WithSnapshots(snapshots))
	}

	var exportCache *service.CacheService
	if cfg.Export.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("export cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			checks["redis"] = repo
			exportCache = service.NewCacheService(repo, metrics, cfg.Export.CacheTTL, logr, true)
		}
	}
	exports := service.NewExportService(exportCache, service.ExportConfig{CacheTTL: cfg.Export.CacheTTL}, logr, export.NewCSVExporter(), export.NewPDFExporter())
	opts = append(opts, service.WithExports(exports))

	scheduler := service.NewAutoScheduler(service.DefaultStrategy(cfg.Scheduler), schedulerOptions(cfg.Scheduler, logr)...)
	timetable := service.NewTimetableService(store, service.NewPlacementService(logr), scheduler, logr, opts...)

	auth := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            service.TokenIssuer,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	ops := handler.NewMetricsHandler(metrics, store.Revision, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Catalog:   handler.NewCatalogHandler(catalog),
		Timetable: handler.NewTimetableHandler(timetable),
		Auth:      handler.NewAuthHandler(),
		Tokens:    auth,
	}.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "cohorts", len(layout.Cohorts))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	if exportCache != nil {
		if err := exports.Purge(shutdownCtx); err != nil {
			logr.Debug("export purge failed", zap.Error(err))
		}
	}
}

func schedulerOptions(cfg config.SchedulerConfig, logr *zap.Logger) []service.AutoSchedulerOption {
	opts := []service.AutoSchedulerOption{service.WithSchedulerLogger(logr)}
	if cfg.Seed != 0 {
		opts = append(opts, service.WithSeed(cfg.Seed))
	}
	return opts
}
