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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-events-api/api/swagger"
	"github.com/noah-isme/campus-events-api/internal/handler"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/realtime"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/cache"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/database"
	"github.com/noah-isme/campus-events-api/pkg/export"
	"github.com/noah-isme/campus-events-api/pkg/jobs"
	"github.com/noah-isme/campus-events-api/pkg/logger"
	"github.com/noah-isme/campus-events-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-events-api/pkg/storage"
)

// @title Campus Events API
// @version 1.0.0
// @description Event registration, geofenced attendance and certificate issuance for campus events.
// @BasePath /api
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

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	users := repository.NewUserRepository(db)
	events := repository.NewEventRepository(db)
	registrations := repository.NewRegistrationRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	certificates := repository.NewCertificateRepository(db)
	feedback := repository.NewFeedbackRepository(db)
	announcements := repository.NewAnnouncementRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "campus-events", logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled && cacheRepo != nil)

	mail, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}
	notifications := service.NewNotificationService(mail, metrics, logr)
	queue := jobs.NewQueue("notifications", notifications.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		Observer:   metrics,
	})
	queue.Start(ctx)
	defer queue.Stop()
	notifications.UseQueue(queue)

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	eventSvc := service.NewEventService(events, validate, logr)
	eventSvc.UseCache(cacheSvc)
	registrationSvc := service.NewRegistrationService(events, users, registrations, notifications, validate, logr)
	registrationSvc.UseCache(cacheSvc)
	attendanceSvc := service.NewAttendanceService(events, attendance, validate, metrics, logr)
	attendanceSvc.UseCache(cacheSvc)
	certificateSvc := service.NewCertificateService(events, attendance, users, certificates, notifications, validate, metrics, logr)
	certificateSvc.UseCache(cacheSvc)
	feedbackSvc := service.NewFeedbackService(events, attendance, feedback, validate, logr)
	announcementSvc := service.NewAnnouncementService(events, registrations, announcements, notifications, validate, logr)
	analyticsSvc := service.NewAnalyticsService(events, analyticsRepo, cacheSvc, metrics, cfg.Analytics.CacheTTL, logr)

	store, err := newDocumentStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	documentSvc := service.NewCertificateDocumentService(certificateSvc, export.NewCertificateRenderer(), store, cfg.Certificates.IssuerName, logr)

	var liveFeed gin.HandlerFunc
	if cfg.Realtime.Enabled {
		hub := newHub(cfg, redisClient, logr)
		defer hub.Close()
		attendanceSvc.UseBroadcaster(hub)
		origins := cfg.CORS.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		liveFeed = realtime.ServeWs(hub, authSvc, attendanceSvc, origins, logr)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router := &handler.Router{
		Auth:          handler.NewAuthHandler(authSvc),
		Events:        handler.NewEventHandler(eventSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Certificates:  handler.NewCertificateHandler(certificateSvc, documentSvc),
		Feedback:      handler.NewFeedbackHandler(feedbackSvc),
		Announcements: handler.NewAnnouncementHandler(announcementSvc),
		Analytics:     handler.NewAnalyticsHandler(analyticsSvc),
		LiveFeed:      liveFeed,
		Tokens:        authSvc,
		Audit:         users,
		Logger:        logr,
	}
	router.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newDocumentStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.DocumentStore, error) {
	if cfg.Certificates.StorageDriver == config.StorageDriverS3 {
		s3, err := storage.NewS3(ctx, cfg.S3, logr)
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return s3, nil
	}
	signer := storage.NewSignedURLSigner(cfg.Certificates.SignedURLSecret, cfg.Certificates.SignedURLTTL)
	local, err := storage.NewLocal(cfg.Certificates.StorageDir, signer, cfg.Certificates.PublicBaseURL+cfg.APIPrefix+"/certificates/files")
	if err != nil {
		return nil, fmt.Errorf("init local storage: %w", err)
	}
	return local, nil
}

func newHub(cfg *config.Config, client *redis.Client, logr *zap.Logger) *realtime.Hub {
	if cfg.Realtime.RedisFanout && client != nil {
		bridge := realtime.NewRedisPubSub(client, logr)
		return realtime.NewHub(logr, bridge, bridge)
	}
	return realtime.NewHub(logr, nil, nil)
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"postgres": db}
	if client != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}
