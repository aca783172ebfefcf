package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edusync/backend/config"
	"edusync/backend/internal/api/handler"
	"edusync/backend/internal/api/middleware"
	"edusync/backend/pkg/jwt"
	"edusync/backend/pkg/redis"
)

// 生成接口限流：每个管理员每分钟最多 3 次
const (
	generateRateLimit  = 3
	generateRateWindow = time.Minute
	maxBodyBytes       = 1 << 20
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"], status["database"] = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(c.Request.Context()); err != nil {
				status["redis"] = "unreachable"
			}
		}
		c.JSON(code, status)
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 院系目录
		departments := v1.Group("/departments")
		{
			departments.GET("", h.Department.ListDepartments)
			departments.GET("/:id", h.Department.GetDepartment)
		}

		timetable := v1.Group("/timetable")
		{
			// 生成与运行记录（仅管理员）
			timetable.POST("/generate",
				middleware.RoleAuth("admin"),
				middleware.RateLimit(rdb, generateRateLimit, generateRateWindow, logger),
				h.Timetable.Generate,
			)
			timetable.GET("/runs/latest", middleware.RoleAuth("admin"), h.Timetable.GetLatestRun)
			timetable.GET("/runs/:id", middleware.RoleAuth("admin"), h.Timetable.GetRun)

			// 查询
			timetable.GET("/slots", middleware.RoleAuth("admin"), h.Timetable.ListSlots)
			timetable.GET("/sections/:id", h.Timetable.GetSectionTimetable)
			timetable.GET("/faculty/:id", h.Timetable.GetFacultyTimetable)

			// 导出
			timetable.GET("/export", middleware.RoleAuth("admin"), h.Export.ExportTimetable)
			timetable.GET("/sections/:id/calendar.ics", h.Export.SectionCalendar)
			timetable.GET("/faculty/:id/calendar.ics", h.Export.FacultyCalendar)
		}
	}

	return r
}
