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

	_ "github.com/edusched/alloc-api/api/swagger"
	"github.com/edusched/alloc-api/internal/engine"
	"github.com/edusched/alloc-api/internal/handler"
	"github.com/edusched/alloc-api/internal/middleware"
	"github.com/edusched/alloc-api/internal/models"
	"github.com/edusched/alloc-api/internal/repository"
	"github.com/edusched/alloc-api/internal/service"
	"github.com/edusched/alloc-api/pkg/cache"
	"github.com/edusched/alloc-api/pkg/config"
	"github.com/edusched/alloc-api/pkg/database"
	"github.com/edusched/alloc-api/pkg/logger"
	corsmiddleware "github.com/edusched/alloc-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusched/alloc-api/pkg/middleware/requestid"
)

// @title Teacher Allocation API
// @version 1.0.0
// @description Deterministic teacher-to-course allocation, scoring and conflict auditing
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	engineOpts := []engine.Option{engine.WithLogger(logr)}
	if cfg.Engine.CaseInsensitiveQualifications {
		engineOpts = append(engineOpts, engine.WithCaseInsensitiveQualifications())
	}
	eng := engine.New(engineOpts...)

	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	profileRepo := repository.NewWeightProfileRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Engine.DefaultProfileCacheTTL, logr, true)
	profileSvc := service.NewWeightProfileService(profileRepo, eng, cacheSvc, cfg.Engine.DefaultProfileCacheTTL, validate, logr)
	rosterSvc := service.NewRosterService(teacherRepo, courseRepo, validate, logr)
	allocationSvc := service.NewAllocationService(
		teacherRepo,
		courseRepo,
		assignmentRepo,
		profileSvc,
		eng,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.AllocationConfig{
			ExportEnabled:     cfg.Export.Enabled,
			AuditEnabled:      cfg.Audit.Enabled,
			AuditResultTTL:    cfg.Audit.ResultTTL,
			WorkerConcurrency: cfg.Audit.WorkerConcurrency,
			WorkerRetries:     cfg.Audit.WorkerRetries,
		},
	)

	rosterHandler := handler.NewRosterHandler(rosterSvc)
	profileHandler := handler.NewWeightProfileHandler(profileSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	read := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator, models.RoleViewer)
	write := middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator)

	teachers := api.Group("/teachers")
	{
		teachers.GET("", read, rosterHandler.ListTeachers)
		teachers.GET("/:id", read, rosterHandler.GetTeacher)
		teachers.POST("", write, rosterHandler.CreateTeacher)
		teachers.PUT("/:id", write, rosterHandler.UpdateTeacher)
		teachers.DELETE("/:id", write, rosterHandler.DeleteTeacher)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", read, rosterHandler.ListCourses)
		courses.GET("/:id", read, rosterHandler.GetCourse)
		courses.POST("", write, rosterHandler.CreateCourse)
		courses.PUT("/:id", write, rosterHandler.UpdateCourse)
		courses.DELETE("/:id", write, rosterHandler.DeleteCourse)
	}

	profiles := api.Group("/weight-profiles")
	{
		profiles.GET("", read, profileHandler.List)
		profiles.GET("/default", read, profileHandler.Default)
		profiles.POST("/validate", read, profileHandler.Validate)
		profiles.GET("/:id", read, profileHandler.Get)
		profiles.POST("", write, profileHandler.Create)
		profiles.PUT("/:id", write, profileHandler.Update)
		profiles.POST("/:id/rebalance", write, profileHandler.Rebalance)
		profiles.PUT("/:id/default", write, profileHandler.SetDefault)
		profiles.DELETE("/:id", write, profileHandler.Delete)
	}

	allocations := api.Group("/allocations")
	{
		allocations.POST("/evaluate", write, allocationHandler.Evaluate)
		allocations.POST("/score", read, allocationHandler.Score)
	}

	conflicts := api.Group("/conflicts")
	{
		conflicts.GET("", read, allocationHandler.Conflicts)
		conflicts.GET("/aggregate", read, allocationHandler.Aggregate)
		conflicts.GET("/export", read, allocationHandler.Export)
		conflicts.POST("/audit", write, allocationHandler.RequestAudit)
		conflicts.GET("/audit/:id", read, allocationHandler.GetAudit)
	}

	assignments := api.Group("/assignments")
	{
		assignments.GET("", read, allocationHandler.ListAssignments)
		assignments.POST("", write, allocationHandler.CreateAssignment)
		assignments.PUT("/:id", write, allocationHandler.UpdateAssignment)
		assignments.PATCH("/:id/status", write, allocationHandler.UpdateAssignmentStatus)
	}

	api.GET("/system/metrics", read, metricsHandler.Snapshot)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	allocationSvc.StartAudits(ctx)
	defer allocationSvc.StopAudits()

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
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
