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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-access-api/api/swagger"
	"github.com/noah-isme/lms-access-api/internal/handler"
	"github.com/noah-isme/lms-access-api/internal/middleware"
	"github.com/noah-isme/lms-access-api/internal/repository"
	"github.com/noah-isme/lms-access-api/internal/service"
	"github.com/noah-isme/lms-access-api/pkg/cache"
	"github.com/noah-isme/lms-access-api/pkg/config"
	"github.com/noah-isme/lms-access-api/pkg/database"
	"github.com/noah-isme/lms-access-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-access-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-access-api/pkg/middleware/requestid"
	securemiddleware "github.com/noah-isme/lms-access-api/pkg/middleware/secure"
	"github.com/noah-isme/lms-access-api/pkg/storage"
)

// @title LMS Access API
// @version 1.0.0
// @description Authentication, role gates and session entitlements for the LMS
// @BasePath /api/v1
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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Entitlement.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, entitlement cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	eventRepo := repository.NewEventRepository(db)
	bookRepo := repository.NewBookRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	files, err := storage.NewLocalStorage(cfg.Downloads.BaseDir)
	if err != nil {
		logr.Fatal("failed to prepare book storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Downloads.SignedURLSecret, cfg.Downloads.SignedURLTTL)
	loc := cfg.Sessions.Location()

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Entitlement.CacheTTL, logr, cfg.Entitlement.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, roleRepo, userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	roleSvc := service.NewRoleService(roleRepo, userRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, loc, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sessionSvc, cacheSvc, cfg.Entitlement.CacheTTL, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	eventSvc := service.NewEventService(eventRepo, courseRepo, sessionSvc, validate, logr)
	bookSvc := service.NewBookService(service.BookServiceDeps{
		Repo:        bookRepo,
		Sessions:    sessionSvc,
		Enrollments: enrollmentSvc,
		Files:       files,
		Signer:      signer,
		Location:    loc,
		Validator:   validate,
		Logger:      logr,
	})
	exportSvc := service.NewExportService(enrollmentSvc, logr, nil, nil)

	gates := middleware.NewGates(middleware.GateConfig{
		Verifier:   authSvc.Verifier(),
		Header:     cfg.JWT.Header,
		Admissions: enrollmentSvc,
		Metrics:    metrics,
		Logger:     logr,
	})

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Roles:       handler.NewRoleHandler(roleSvc),
		Sessions:    handler.NewSessionHandler(sessionSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc, sessionSvc, exportSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Events:      handler.NewEventHandler(eventSvc),
		Books:       handler.NewBookHandler(bookSvc),
		Metrics:     metricsHandler,
	}
	routes := handler.Routes(handlers, handler.RouteDeps{
		LoginLimit: middleware.RateLimit(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginWindow),
		Audit: func(action, resource, resourceParam string) gin.HandlerFunc {
			return middleware.Audit(userRepo, logr, action, resource, resourceParam)
		},
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(securemiddleware.New(cfg.Env == config.EnvProduction))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.JWT.Header))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), gates, routes)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
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
