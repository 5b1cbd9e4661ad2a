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
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-placement-api/api/swagger"
	"github.com/noah-isme/campus-placement-api/internal/handler"
	"github.com/noah-isme/campus-placement-api/internal/policy"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	"github.com/noah-isme/campus-placement-api/internal/service"
	"github.com/noah-isme/campus-placement-api/migrations"
	"github.com/noah-isme/campus-placement-api/pkg/cache"
	"github.com/noah-isme/campus-placement-api/pkg/config"
	"github.com/noah-isme/campus-placement-api/pkg/database"
	"github.com/noah-isme/campus-placement-api/pkg/export"
	"github.com/noah-isme/campus-placement-api/pkg/logger"
	"github.com/noah-isme/campus-placement-api/pkg/notify"
	"github.com/noah-isme/campus-placement-api/pkg/storage"
)

// @title Campus Placement API
// @version 1.0.0
// @description Eligibility and application workflow engine for campus placement drives
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.AutoMigrate {
		if err := database.Migrate(db, migrations.Files, logr); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, placement summaries will not be cached", zap.Error(err))
		redisClient = nil
	}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Placement.SummaryCacheTTL, logr, redisClient != nil)

	publisher, err := newPublisher(cfg.Notifications, logr)
	if err != nil {
		logr.Fatal("failed to init notification publisher", zap.Error(err))
	}
	defer publisher.Close() //nolint:errcheck

	notifications := service.NewNotificationService(publisher, metricsSvc, service.NotificationConfig{
		Enabled:        cfg.Notifications.Enabled,
		Workers:        cfg.Notifications.Workers,
		BufferSize:     cfg.Notifications.BufferSize,
		MaxRetries:     cfg.Notifications.MaxRetries,
		RetryDelay:     cfg.Notifications.RetryDelay,
		PublishTimeout: cfg.Notifications.PublishLimit,
	}, logr)
	notifications.Start(ctx)
	defer notifications.Stop()

	hierarchy := policy.DefaultHierarchy()
	ladder := policy.NewLadderEvaluator(policy.LadderPolicy{
		Hierarchy:          hierarchy,
		MaxOffers:          cfg.Placement.MaxOffers,
		AllowUncategorized: cfg.Placement.UncategorizedJobPolicy != config.UncategorizedDeny,
	})
	validate := validator.New()

	jobRepo := repository.NewJobRepository(db)
	applicationRepo := repository.NewApplicationRepository(db, repository.WithMaxOffers(ladder.MaxOffers()))
	studentRepo := repository.NewStudentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	summaries := service.NewPlacementStatusService(applicationRepo, ladder, cacheSvc, cfg.Placement.SummaryCacheTTL, logr)
	synchronizer := service.NewApplicationSynchronizer(applicationRepo, policy.DefaultLifecycle(), summaries, notifications, metricsSvc, logr)

	applicationSvc := service.NewApplicationService(jobRepo, studentRepo, summaries, synchronizer, ladder, notifications, validate, metricsSvc, logr,
		service.WithStudentPruner(applicationRepo))
	jobSvc := service.NewJobService(jobRepo, hierarchy, cacheSvc, validate, service.JobServiceConfig{
		SalaryBands: policy.SalaryBands{
			OpenDreamAboveLPA: cfg.Placement.OpenDreamSalaryLPA,
			DreamAboveLPA:     cfg.Placement.DreamSalaryLPA,
		},
		LockCategoryOnApplicant: cfg.Placement.LockCategoryOnApplicant,
	}, logr)
	eligibilitySvc := service.NewEligibilityService(jobRepo, applicationRepo, synchronizer, logr)
	driveSvc := service.NewDriveWorkflowService(jobRepo, applicationRepo, synchronizer, summaries, ladder, notifications, validate,
		service.DriveWorkflowConfig{RecentWindow: cfg.Placement.RecentWindow}, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	registry := export.NewRegistry(export.NewCSVExporter(export.WithUTF8BOM()), export.NewXLSXExporter(), export.NewPDFExporter())
	exportSvc := service.NewExportService(jobRepo, applicationRepo, files, signer, registry, validate, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)
	exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval)

	reconcileSvc := service.NewReconcileService(applicationRepo, summaries, metricsSvc, service.ReconcileConfig{
		Interval:   cfg.Reconcile.Interval,
		BatchLimit: cfg.Reconcile.BatchLimit,
	}, logr)
	if cfg.Reconcile.Enabled {
		reconcileSvc.Start(ctx)
	}

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cache.HealthCheck(redisClient))
	}

	r := newRouter(cfg, logr, routerDeps{
		auth:         authSvc,
		audit:        auditRepo,
		metrics:      metricsSvc,
		applications: handler.NewApplicationHandler(applicationSvc, summaries),
		jobs:         handler.NewJobHandler(jobSvc, eligibilitySvc),
		drives:       handler.NewDriveHandler(driveSvc),
		exports:      handler.NewExportHandler(exportSvc),
		reconcile:    handler.NewReconcileHandler(reconcileSvc),
		health:       handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newPublisher(cfg config.NotificationsConfig, logr *zap.Logger) (notify.Publisher, error) {
	if cfg.Driver != config.NotifyDriverRabbitMQ {
		return notify.NewLogPublisher(logr), nil
	}
	return notify.NewRabbitMQPublisher(notify.RabbitMQConfig{
		URL:            cfg.AMQPURL,
		Exchange:       cfg.Exchange,
		RoutingKey:     cfg.RoutingKey,
		Queue:          cfg.Queue,
		PublishTimeout: cfg.PublishLimit,
	}, logr)
}
