package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fasahat78/startege-sub004/internal/metrics"
	"github.com/fasahat78/startege-sub004/internal/middleware"
	"github.com/fasahat78/startege-sub004/internal/models"
	"github.com/fasahat78/startege-sub004/internal/services"
	"github.com/fasahat78/startege-sub004/internal/utils"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterOptions carries the cross-cutting pieces mounted around the API
type RouterOptions struct {
	Verifier       middleware.TokenVerifier
	Metrics        *metrics.Metrics
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Health         HealthChecker
}

type HandlerManager struct {
	attemptHandler *AttemptHandler
	examHandler    *ExamHandler
	adminHandler   *AdminHandler
	logger         utils.Logger
	opts           RouterOptions
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, opts RouterOptions) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		examHandler:    NewExamHandler(serviceManager.Exam(), logger),
		adminHandler:   NewAdminHandler(serviceManager.Exam(), serviceManager.ImportExport(), logger),
		logger:         logger,
		opts:           opts,
	}
}

// SetupRoutes sets up middleware and all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(hm.logger))
	router.Use(utils.LoggerMiddleware(hm.logger))
	if len(hm.opts.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(hm.opts.AllowedOrigins))
	}
	if hm.opts.Metrics != nil {
		router.Use(hm.opts.Metrics.Middleware())
		router.GET("/metrics", hm.opts.Metrics.Handler())
	}

	router.GET("/health", hm.healthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	if hm.opts.RateLimiter != nil {
		v1.Use(hm.opts.RateLimiter.Middleware())
	}
	v1.Use(middleware.Authenticate(hm.opts.Verifier, hm.logger))
	{
		exams := v1.Group("/exams")
		{
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.POST("/:id/start", hm.attemptHandler.StartAttempt)
			exams.GET("/:id/eligibility", hm.attemptHandler.GetEligibility)
			exams.GET("/:id/attempts", hm.attemptHandler.ListAttempts)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/questions/:order", hm.attemptHandler.GetQuestion)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/pause", hm.attemptHandler.PauseAttempt)
			attempts.POST("/:id/resume", hm.attemptHandler.ResumeAttempt)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/review", hm.attemptHandler.GetReview)
		}

		admin := v1.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/exams", hm.adminHandler.CreateExam)
			admin.POST("/exams/:id/publish", hm.adminHandler.PublishExam)
			admin.POST("/exams/:id/questions/import", hm.adminHandler.ImportQuestions)
			admin.GET("/exams/:id/results/export", hm.adminHandler.ExportResults)
			admin.GET("/questions/template", hm.adminHandler.DownloadTemplate)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	status := gin.H{
		"status":  "healthy",
		"service": "exam-attempt-service",
	}
	if hm.opts.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hm.opts.Health.Ping(ctx); err != nil {
			hm.logger.Warn("Health check failed", "error", err)
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
	}
	c.JSON(http.StatusOK, status)
}
