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

	_ "github.com/noah-isme/obe-attainment-api/api/swagger"
	"github.com/noah-isme/obe-attainment-api/internal/handler"
	"github.com/noah-isme/obe-attainment-api/internal/middleware"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/repository"
	"github.com/noah-isme/obe-attainment-api/internal/service"
	"github.com/noah-isme/obe-attainment-api/pkg/cache"
	"github.com/noah-isme/obe-attainment-api/pkg/config"
	"github.com/noah-isme/obe-attainment-api/pkg/database"
	"github.com/noah-isme/obe-attainment-api/pkg/lock"
	"github.com/noah-isme/obe-attainment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/obe-attainment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

// @title OBE Attainment API
// @version 1.0.0
// @description Course outcome and program outcome attainment engine
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

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Attainment.CacheTTL, logr, cfg.Attainment.CacheEnabled && redisClient != nil)

	scoringConfigSvc := service.NewScoringConfigService(
		repository.NewScoringConfigRepository(db),
		cacheSvc,
		cfg.Attainment.ScoringConfigTTL,
		validate,
		logr,
	)
	attainmentSvc := service.NewAttainmentService(service.AttainmentDeps{
		Outcomes:    repository.NewOutcomeRepository(db),
		Mappings:    repository.NewMappingRepository(db),
		Assessments: repository.NewAssessmentRepository(db),
		Surveys:     repository.NewSurveyRepository(db),
		Store:       repository.NewAttainmentRepository(db),
		Configs:     scoringConfigSvc,
		Locker:      newLocker(cfg.Attainment, redisClient, logr),
		Cache:       cacheSvc,
		Metrics:     metricsSvc,
	}, service.AttainmentOptions{
		MaxParallel: cfg.Attainment.MaxParallelProjector,
		CacheTTL:    cfg.Attainment.CacheTTL,
		LockWait:    cfg.Attainment.LockWait,
	}, validate, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	registerRoutes(r, cfg, routeDeps{
		tokens:        service.NewTokenService(cfg.JWT),
		audit:         repository.NewAuditRepository(db),
		logger:        logr,
		attainment:    handler.NewAttainmentHandler(attainmentSvc),
		scoringConfig: handler.NewScoringConfigHandler(scoringConfigSvc),
		metrics:       handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type routeDeps struct {
	tokens        middleware.TokenVerifier
	audit         middleware.AuditRecorder
	logger        *zap.Logger
	attainment    *handler.AttainmentHandler
	scoringConfig *handler.ScoringConfigHandler
	metrics       *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.tokens))

	recompute := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	courses := api.Group("/courses/:courseId")
	courses.GET("/attainment", deps.attainment.CourseAttainment)
	courses.POST("/attainment/recompute", recompute,
		middleware.Audit(deps.audit, deps.logger, models.AuditActionRecomputeCourse, "course_attainment", "courseId"),
		deps.attainment.RecomputeCourse)

	programs := api.Group("/programs/:programId")
	programs.GET("/attainment", deps.attainment.ProgramAttainment)
	programs.POST("/attainment/recompute", recompute,
		middleware.Audit(deps.audit, deps.logger, models.AuditActionRecomputeProgram, "program_attainment", "programId"),
		deps.attainment.RecomputeProgram)

	api.GET("/program-outcomes/:poId/courses/:courseId/level", deps.attainment.CourseLevelPO)

	configs := api.Group("/scoring-configs")
	configs.GET("", deps.scoringConfig.History)
	configs.GET("/active", deps.scoringConfig.Active)
	configs.GET("/:id", deps.scoringConfig.Get)
	configs.POST("", adminOnly,
		middleware.Audit(deps.audit, deps.logger, models.AuditActionScoringConfig, "scoring_config", ""),
		deps.scoringConfig.Create)
}

func newLocker(cfg config.AttainmentConfig, client *redis.Client, logr *zap.Logger) lock.Locker {
	if cfg.LockBackend == config.LockBackendRedis {
		if client != nil {
			return lock.NewRedisLocker(client, cfg.LockTTL, cfg.LockPollInterval, logr)
		}
		logr.Warn("redis lock backend requested without redis; falling back to in-process locks")
	}
	return lock.NewKeyedMutex()
}
