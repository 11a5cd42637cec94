package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"availability-hub/config"
	"availability-hub/internal/api/handler"
	"availability-hub/internal/api/middleware"
	"availability-hub/pkg/jwt"
	"availability-hub/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", healthCheck(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// nil *redis.Client 不能直接赋给接口
	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}
	submitLimit := middleware.RateLimit(limiter, cfg.Submission.RateLimit, cfg.Submission.RateWindow, logger)

	adminOnly := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleSuperAdmin)
	instructorOnly := middleware.RoleAuth(jwt.RoleInstructor)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.GET("/time-grid", h.Availability.GetTimeGrid)

	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtMgr))
	{
		// 可用时间模块
		availability := authorized.Group("/availability")
		{
			availability.POST("/validate", h.Availability.ValidateSlots)
			availability.POST("", instructorOnly, submitLimit, h.Availability.SubmitAvailability)
			availability.GET("/my-history", instructorOnly, h.Availability.MyHistory)
			availability.GET("/users/:user_id", adminOnly, h.Availability.UserHistory)
			availability.GET("/effective/:user_id", h.Availability.GetEffective) // 本人或管理员（Handler 层鉴权）
			availability.GET("/:id", h.Availability.GetVersion)
			availability.PATCH("/:id/final", instructorOnly, h.Availability.MarkFinal)
		}

		// 学期模块
		periods := authorized.Group("/periods")
		{
			periods.GET("/:id", h.Period.GetPeriod)
			periods.PUT("/:id/window", adminOnly, h.Period.UpdateWindow)
		}

		// 报表模块
		reports := authorized.Group("/reports")
		{
			reports.GET("/consolidated", adminOnly, h.Report.ExportConsolidated)
			reports.GET("/dashboard", adminOnly, h.Report.Dashboard)
			reports.GET("/instructors/:user_id", h.Report.ExportIndividual)
		}
	}

	return r
}

// healthCheck 数据库不可用时返回 503；Redis 仅影响限流，不可用时标记为 degraded
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": "down"})
			return
		}

		status := gin.H{"status": "ok", "db": "up", "redis": "disabled"}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				status["status"], status["redis"] = "degraded", "down"
			} else {
				status["redis"] = "up"
			}
		}
		c.JSON(http.StatusOK, status)
	}
}
