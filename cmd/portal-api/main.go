package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/noah-isme/fms-portal-api/api/swagger"
	"github.com/noah-isme/fms-portal-api/internal/handler"
	"github.com/noah-isme/fms-portal-api/internal/repository"
	"github.com/noah-isme/fms-portal-api/internal/router"
	"github.com/noah-isme/fms-portal-api/internal/service"
	"github.com/noah-isme/fms-portal-api/internal/session"
	"github.com/noah-isme/fms-portal-api/pkg/cache"
	"github.com/noah-isme/fms-portal-api/pkg/config"
	"github.com/noah-isme/fms-portal-api/pkg/database"
	"github.com/noah-isme/fms-portal-api/pkg/jobs"
	"github.com/noah-isme/fms-portal-api/pkg/logger"
	"github.com/noah-isme/fms-portal-api/pkg/mail"
	"github.com/noah-isme/fms-portal-api/pkg/paystack"
	"github.com/noah-isme/fms-portal-api/pkg/storage"
)

// @title FMS Portal API
// @version 1.0.0
// @description Tuition and fee management portal for students and administrators
// @BasePath /
// @schemes http https
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	// Shared session registry. Every instance converges through the
	// Redis broker, so a logout anywhere revokes everywhere.
	sessions := session.NewStore(
		session.NewRedisPersister(redisClient, cfg.Sessions.Namespace),
		session.NewRedisBroker(redisClient, cfg.Sessions.Namespace+":events", logr),
		cfg.Sessions.TTL,
		logr,
	)
	if err := sessions.Start(ctx); err != nil {
		logr.Fatal("failed to start session store", zap.Error(err))
	}

	documents, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare document storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	var mailer mail.Mailer
	if strings.EqualFold(cfg.Mail.Provider, "sendgrid") && cfg.Mail.APIKey != "" {
		mailer = mail.NewSendgridMailer(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		mailer = mail.NewConsoleMailer(logr)
	}

	mailQueue := jobs.NewQueue("mail", func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mail.Message)
		if !ok {
			return fmt.Errorf("mail job %s carries unexpected payload", job.ID)
		}
		return mailer.Send(ctx, msg)
	}, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	programmeRepo := repository.NewProgrammeRepository(db)
	billTypeRepo := repository.NewBillTypeRepository(db)
	billRepo := repository.NewBillRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	aidRepo := repository.NewFinancialAidRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsService := service.NewMetricsService()
	dashboardService := service.NewDashboardService(statsRepo, cacheRepo, metricsService, cfg.Dashboard.CacheTTL, logr)

	authService := service.NewAuthService(userRepo, sessions, mailQueue, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		ResetURL:           cfg.Mail.ResetURL,
		Issuer:             "fms-portal-api",
	})
	userService := service.NewUserService(userRepo, sessions, nil, logr)
	studentService := service.NewStudentService(userRepo, billRepo, programmeRepo, sessions, dashboardService, nil, logr)
	programmeService := service.NewProgrammeService(programmeRepo, nil, logr)
	billTypeService := service.NewBillTypeService(billTypeRepo, nil, logr)
	billService := service.NewBillService(billRepo, billTypeRepo, dashboardService, nil, logr)

	gateway := paystack.NewClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, cfg.Paystack.Timeout)
	paymentService := service.NewPaymentService(service.PaymentServiceParams{
		Payments:   paymentRepo,
		Users:      userRepo,
		Bills:      billRepo,
		Gateway:    gateway,
		Dashboards: dashboardService,
		Metrics:    metricsService,
		Logger:     logr,
		Config:     service.PaymentServiceConfig{CallbackURL: cfg.Paystack.CallbackURL},
	})

	aidService := service.NewFinancialAidService(service.FinancialAidServiceParams{
		Repo:       aidRepo,
		Users:      userRepo,
		BillTypes:  billTypeRepo,
		Documents:  documents,
		Signer:     signer,
		Dashboards: dashboardService,
		Logger:     logr,
	})

	exportService := service.NewExportService(paymentRepo, userRepo, logr)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService),
		Programmes:   handler.NewProgrammeHandler(programmeService),
		BillTypes:    handler.NewBillTypeHandler(billTypeService),
		Bills:        handler.NewBillHandler(billService),
		Payments:     handler.NewPaymentHandler(paymentService),
		FinancialAid: handler.NewFinancialAidHandler(aidService, documents),
		Students:     handler.NewStudentHandler(studentService, paymentService),
		Admins:       handler.NewAdminHandler(userService),
		Dashboards:   handler.NewDashboardHandler(dashboardService),
		Exports:      handler.NewExportHandler(exportService),
		Metrics:      handler.NewMetricsHandler(metricsService),
	}

	engine := router.New(router.Deps{
		Config:    cfg,
		Logger:    logr,
		Auth:      authService,
		Sessions:  sessions,
		Users:     userRepo,
		MetricsSv: metricsService,
	}, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
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
