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
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/noah-isme/grading-admin-api/api/swagger"
	"github.com/noah-isme/grading-admin-api/internal/handler"
	internalmiddleware "github.com/noah-isme/grading-admin-api/internal/middleware"
	"github.com/noah-isme/grading-admin-api/internal/repository"
	"github.com/noah-isme/grading-admin-api/internal/router"
	"github.com/noah-isme/grading-admin-api/internal/service"
	"github.com/noah-isme/grading-admin-api/pkg/cache"
	"github.com/noah-isme/grading-admin-api/pkg/config"
	"github.com/noah-isme/grading-admin-api/pkg/database"
	"github.com/noah-isme/grading-admin-api/pkg/jobs"
	"github.com/noah-isme/grading-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/grading-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/grading-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/grading-admin-api/pkg/storage"
)

// @title Grading Admin API
// @version 1.0.0
// @description Grading aggregation and reporting for the tutoring admin dashboard
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	mongoClient, mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logr.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer mongoClient.Disconnect(context.Background()) //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	topicRepo := repository.NewTopicRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	classRepo := repository.NewClassRepository(mongoDB.Collection(cfg.Mongo.ClassesCollection))
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Grading.CacheTTL, logr, cfg.Grading.CacheEnabled)
	loader := service.NewSubmissionLoader(submissionRepo, cfg.Grading.FetchBatchSize, metricsSvc, logr)

	catalogSvc := service.NewCatalogService(topicRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, rosterRepo, topicRepo, logr)
	gradingSvc := service.NewGradingService(topicRepo, assignmentRepo, rosterRepo, submissionRepo, loader, cacheSvc, nil, logr)
	teacherReportSvc := service.NewTeacherReportService(topicRepo, assignmentRepo, submissionRepo, loader, cacheSvc, metricsSvc, logr)
	performanceSvc := service.NewPerformanceService(studentRepo, rosterRepo, topicRepo, classRepo, assignmentRepo, submissionRepo, cacheSvc, metricsSvc, logr, service.PerformanceConfig{
		BatchSize:    cfg.Performance.FetchBatchSize,
		DefaultRange: cfg.Performance.DefaultRange,
	})

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(performanceSvc, teacherReportSvc, gradingSvc, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil, nil)

	var reportHandler *handler.ReportHandler
	if cfg.Reports.Enabled {
		worker := service.NewReportWorker(reportRepo, exportSvc, metricsSvc, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Reports.WorkerConcurrency,
			MaxRetries:  cfg.Reports.WorkerRetries,
			OnExhausted: worker.Exhausted,
			Logger:      logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, nil, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		if recovered := reportSvc.RecoverPendingJobs(ctx); recovered > 0 {
			logr.Info("requeued report jobs", zap.Int("count", recovered))
		}
		reportSvc.StartCleanup(ctx)
		reportHandler = handler.NewReportHandler(reportSvc)
	}

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	readiness := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"mongo": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
		"redis": cacheRepo.Ping,
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	router.Register(r, router.Dependencies{
		APIPrefix:     cfg.APIPrefix,
		EnableDocs:    cfg.Env != config.EnvProduction,
		Auth:          authSvc,
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Grading:       handler.NewGradingHandler(gradingSvc),
		TeacherReport: handler.NewTeacherReportHandler(teacherReportSvc),
		Students:      handler.NewStudentHandler(studentSvc, performanceSvc, exportSvc),
		Reports:       reportHandler,
		Metrics:       handler.NewMetricsHandler(metricsSvc, readiness),
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
