package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/meal-subscription-api/api/swagger"
	"github.com/noah-isme/meal-subscription-api/internal/handler"
	internalmiddleware "github.com/noah-isme/meal-subscription-api/internal/middleware"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	"github.com/noah-isme/meal-subscription-api/internal/service"
	"github.com/noah-isme/meal-subscription-api/pkg/cache"
	"github.com/noah-isme/meal-subscription-api/pkg/config"
	"github.com/noah-isme/meal-subscription-api/pkg/database"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
	"github.com/noah-isme/meal-subscription-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/meal-subscription-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/meal-subscription-api/pkg/middleware/requestid"
)

// @title Meal Subscription API
// @version 1.0.0
// @description Meal-skip and payment approvals, reviews and catalog for a meal subscription service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// recordStore is the docstore backend plus its health check.
type recordStore interface {
	docstore.Store
	Ping(ctx context.Context) error
}

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	store, closeStore, err := openStore(ctx, cfg, metricsSvc, logr)
	if err != nil {
		logr.Fatal("failed to open record store", zap.Error(err))
	}
	defer closeStore()

	cacheSvc, closeCache := openCatalogCache(ctx, cfg, metricsSvc, logr)
	defer closeCache()

	validate := validator.New()
	auditRepo := repository.NewAuditRepository(store)

	authSvc := service.NewAuthService(repository.NewUserRepository(store), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if created, err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		logr.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logr.Info("admin profile seeded", zap.String("email", cfg.Admin.Email))
	}

	location, err := time.LoadLocation(cfg.MealSkip.Timezone)
	if err != nil {
		logr.Warn("unknown meal skip timezone, using UTC", zap.String("timezone", cfg.MealSkip.Timezone), zap.Error(err))
		location = time.UTC
	}
	mealSkipSvc := service.NewMealSkipService(repository.NewMealSkipRepository(store), auditRepo, metricsSvc, validate, logr,
		service.WithMealSkipDatePolicy(location, cfg.MealSkip.AllowPast))
	paymentSvc := service.NewPaymentService(repository.NewPaymentRepository(store), auditRepo, metricsSvc, validate, logr,
		service.WithReceiptLimit(cfg.Uploads.MaxBytes),
		service.WithLedgerExporter(service.NewExportService(logr, nil, nil)))
	reviewSvc := service.NewReviewService(repository.NewReviewRepository(store), validate, logr)
	catalogSvc := service.NewCatalogService(repository.NewCatalogRepository(store), cacheSvc, validate, logr, cfg.Uploads.MaxBytes)
	announcementSvc := service.NewAnnouncementService(repository.NewAnnouncementRepository(store), cacheSvc, validate, logr)

	metricsHandler := handler.NewMetricsHandler(metricsSvc, store)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		MealSkips:     handler.NewMealSkipHandler(mealSkipSvc),
		Payments:      handler.NewPaymentHandler(paymentSvc),
		Reviews:       handler.NewReviewHandler(reviewSvc),
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc),
		Metrics:       metricsHandler,
	}, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (recordStore, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logr.Warn("using in-memory record store; data is lost on restart")
		return docstore.NewMemory(), func() {}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store := docstore.NewPostgres(db, docstore.WithQueryObserver(metrics.ObserveStoreOperation))
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, closer(db, logr), nil
}

func closer(db *sqlx.DB, logr *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logr.Warn("failed to close database", zap.Error(err))
		}
	}
}

// openCatalogCache returns a nil service when the cache is disabled or Redis
// is unreachable; catalog reads then go straight to the record store.
func openCatalogCache(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("catalog cache disabled, redis unreachable", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		return nil, func() {}
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, metrics, cfg.Cache.CatalogTTL, logr, true), func() {
		if err := repo.Close(); err != nil {
			logr.Warn("failed to close redis", zap.Error(err))
		}
	}
}
