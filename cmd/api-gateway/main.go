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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/issue-tracker-api/api/swagger"
	"github.com/noah-isme/issue-tracker-api/internal/handler"
	"github.com/noah-isme/issue-tracker-api/internal/middleware"
	"github.com/noah-isme/issue-tracker-api/internal/repository"
	"github.com/noah-isme/issue-tracker-api/internal/service"
	"github.com/noah-isme/issue-tracker-api/pkg/cache"
	"github.com/noah-isme/issue-tracker-api/pkg/config"
	"github.com/noah-isme/issue-tracker-api/pkg/database"
	"github.com/noah-isme/issue-tracker-api/pkg/jobs"
	"github.com/noah-isme/issue-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/issue-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/issue-tracker-api/pkg/middleware/requestid"
	"github.com/noah-isme/issue-tracker-api/pkg/storage"
)

// @title Issue Tracker API
// @version 1.0.0
// @description Issue tracking service with optimistic-locking mutations,
// @description bulk operations, CSV import and timeline reconstruction.
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient, redisErr := cache.NewRedis(cfg.Redis); redisErr != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(redisErr))
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.Enabled)
	}

	validate := validator.New()

	issueRepo := repository.NewIssueRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	reportRepo := repository.NewReportRepository(db)

	timelineSvc := service.NewTimelineService(timelineRepo, issueRepo, cfg.Timeline.PageSize, metricsSvc, logr)
	issueSvc := service.NewIssueService(issueRepo, projectRepo, userRepo, labelRepo, timelineSvc, db, cacheSvc, metricsSvc, logr)
	bulkSvc := service.NewBulkService(issueSvc, db, cacheSvc, metricsSvc, cfg.Bulk.MaxOperations, logr)

	// Imports run through their own coordinator so the CSV row cap and the
	// interactive bulk cap can be tuned independently.
	importBulk := service.NewBulkService(issueSvc, db, cacheSvc, metricsSvc, cfg.Imports.MaxRows, logr)
	importSvc := service.NewImportService(importBulk, metricsSvc, cfg.Imports.MaxRows, logr)

	projectSvc := service.NewProjectService(projectRepo, validate, metricsSvc, logr)
	userSvc := service.NewUserService(userRepo, validate, metricsSvc, logr)
	labelSvc := service.NewLabelService(labelRepo, issueRepo, validate, metricsSvc, logr)
	commentSvc := service.NewCommentService(commentRepo, issueRepo, timelineSvc, db, metricsSvc, logr)

	attachmentStore, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare attachment storage", zap.Error(err))
	}
	attachmentSvc := service.NewAttachmentService(
		attachmentRepo,
		issueRepo,
		attachmentStore,
		timelineSvc,
		db,
		service.AttachmentLimits{
			MaxFileSizeBytes: cfg.Attachments.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Attachments.AllowedMIMEs,
		},
		metricsSvc,
		logr,
	)

	reportSvc := service.NewReportService(reportRepo, cacheSvc, metricsSvc, logr)

	var exportJobSvc *service.ExportJobService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportStorage, storageErr := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if storageErr != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(storageErr))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(reportRepo, exportStorage, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.ResultTTL,
		}, logr, nil, nil)

		exportJobRepo := repository.NewExportJobRepository(db)
		worker := service.NewExportWorker(exportJobRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportQueue.Start(ctx)

		exportJobSvc = service.NewExportJobService(exportJobRepo, exportQueue, exportSvc, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.ResultTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
	}

	issueHandler := handler.NewIssueHandler(issueSvc)
	bulkHandler := handler.NewBulkHandler(bulkSvc, importSvc)
	timelineHandler := handler.NewTimelineHandler(timelineSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	userHandler := handler.NewUserHandler(userSvc)
	commentHandler := handler.NewCommentHandler(commentSvc)
	labelHandler := handler.NewLabelHandler(labelSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	exportHandler := handler.NewExportHandler(nil)
	if exportJobSvc != nil {
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Actor())
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if pingErr := db.PingContext(c.Request.Context()); pingErr != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		issues := api.Group("/issues")
		{
			issues.POST("", issueHandler.Create)
			issues.GET("", issueHandler.List)
			issues.GET("/search", issueHandler.Search)
			issues.POST("/bulk", bulkHandler.Execute)
			issues.POST("/import", bulkHandler.Import)
			issues.GET("/:id", issueHandler.Get)
			issues.PATCH("/:id", issueHandler.Update)
			issues.DELETE("/:id", issueHandler.Delete)
			issues.POST("/:id/restore", issueHandler.Restore)
			issues.POST("/:id/transition", issueHandler.Transition)
			issues.POST("/:id/assign", issueHandler.Assign)
			issues.GET("/:id/timeline", timelineHandler.List)
			issues.GET("/:id/labels", labelHandler.ListByIssue)
			issues.POST("/:id/labels/:labelId", issueHandler.AttachLabel)
			issues.DELETE("/:id/labels/:labelId", issueHandler.DetachLabel)
			issues.GET("/:id/comments", commentHandler.ListByIssue)
			issues.POST("/:id/comments", commentHandler.Create)
			issues.GET("/:id/attachments", attachmentHandler.ListByIssue)
			issues.POST("/:id/attachments", attachmentHandler.Upload)
		}

		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.PATCH("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
			projects.POST("/:id/restore", projectHandler.Restore)
		}

		users := api.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
			users.PATCH("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
		}

		comments := api.Group("/comments")
		{
			comments.GET("/:id", commentHandler.Get)
			comments.PATCH("/:id", commentHandler.Update)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		labels := api.Group("/labels")
		{
			labels.POST("", labelHandler.Create)
			labels.GET("", labelHandler.List)
			labels.GET("/:id", labelHandler.Get)
			labels.PATCH("/:id", labelHandler.Update)
			labels.DELETE("/:id", labelHandler.Delete)
		}

		attachments := api.Group("/attachments")
		{
			attachments.GET("/:id", attachmentHandler.Get)
			attachments.GET("/:id/download", attachmentHandler.Download)
			attachments.DELETE("/:id", attachmentHandler.Delete)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/top-assignees", reportHandler.TopAssignees)
			reports.GET("/latency", reportHandler.ResolutionLatency)
			reports.GET("/velocity", reportHandler.Velocity)
			reports.GET("/statistics", reportHandler.Statistics)
			reports.GET("/system-metrics", reportHandler.SystemMetrics)
			reports.POST("/exports", exportHandler.Create)
			reports.GET("/exports/:id", exportHandler.Get)
		}

		api.GET("/exports/download/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(serveErr))
		}
	}()

	<-ctx.Done()
	stop()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
	logr.Info("server stopped")
}
