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

	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/cache"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	"github.com/noah-isme/attendance-tracker-api/pkg/export"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	"github.com/noah-isme/attendance-tracker-api/pkg/mailer"
)

// @title Attendance Tracker API
// @version 1.0.0
// @description Multi-tenant student attendance tracking for teachers
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(redisClient)
	groups := repository.NewGroupRepository(db)
	students := repository.NewStudentRepository(db)
	attendance := repository.NewAttendanceRepository(db)

	metrics := service.NewMetricsService()

	notifications := service.NewNotificationService(
		mailer.NewNotifier(mailer.New(cfg.Mail, logr)),
		cfg.Notifications.Concurrency,
		metrics,
		logr,
	)
	retryQueue := jobs.NewQueue("attendance-notices", notifications.HandleRetry, jobs.QueueConfig{
		Workers:    cfg.Notifications.Concurrency,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
		OnDrop:     notifications.DropRetry,
		Logger:     logr,
	})
	// Stop owns cancellation so retries survive until the HTTP drain ends.
	retryQueue.Start(context.Background())
	notifications.UseRetryQueue(retryQueue)

	authSvc := service.NewAuthService(users, sessions, nil, logr, service.AuthConfig{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		Issuer:     cfg.Session.Issuer,
		BcryptCost: cfg.Session.BcryptCost,
	})
	groupSvc := service.NewGroupService(groups, students, nil, logr)
	studentSvc := service.NewStudentService(students, groups, logr)
	importSvc := service.NewImportService(students, groups, metrics, logr)
	attendanceSvc := service.NewAttendanceService(attendance, students, groups, notifications, metrics, logr)
	attendanceSvc.UseLocation(cfg.Location)
	reportSvc := service.NewReportService(attendanceSvc, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	readiness := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			return cache.Check(ctx, redisClient)
		},
	}

	router := newRouter(cfg, logr, routerDeps{
		auth:     authSvc,
		metrics:  metrics,
		authH:    handler.NewAuthHandler(authSvc, handler.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}),
		groupH:   handler.NewGroupHandler(groupSvc),
		studentH: handler.NewStudentHandler(studentSvc, importSvc, cfg.Import.MaxFileSizeBytes),
		attendH:  handler.NewAttendanceHandler(attendanceSvc, reportSvc),
		metricsH: handler.NewMetricsHandler(metrics, readiness),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
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
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	attendanceSvc.Wait()
	retryQueue.Stop()
}
