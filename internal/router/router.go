package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/maxhub/max-backend/internal/config"
	"github.com/maxhub/max-backend/internal/handler"
	"github.com/maxhub/max-backend/internal/middleware"
	"github.com/maxhub/max-backend/internal/model"
	"github.com/maxhub/max-backend/internal/response"
	"github.com/maxhub/max-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Schedule   *handler.ScheduleHandler
	Attendance *handler.AttendanceHandler
	Group      *handler.GroupHandler
	Subject    *handler.SubjectHandler
	User       *handler.UserHandler
	Report     *handler.ReportHandler
	Monitor    *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)

	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// ─── 2. Authenticated Group (teachers and admins) ──────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(authService), middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
	{
		api.GET("/schedule", handlers.Schedule.GetSchedule)
		api.GET("/schedule/subjects", handlers.Schedule.GetSubjects)
		api.GET("/lessons/:id", handlers.Schedule.GetLesson)

		api.GET("/subjects", handlers.Subject.ListSubjects)

		api.GET("/groups", handlers.Group.ListGroups)
		api.GET("/groups/:id", handlers.Group.GetGroup)
		api.GET("/groups/:id/students", handlers.Group.GetGroupStudents)

		api.GET("/attendance/lesson/:id", handlers.Attendance.GetLessonAttendance)
		api.PUT("/attendance/lesson/:id", handlers.Attendance.SaveLessonAttendance)
	}

	// ─── 3. WebSocket Group (token via ?token=) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuth(authService), middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
	{
		ws.GET("/groups/:id/attendance", handlers.Monitor.GroupMonitorStream)
	}

	// ─── 4. Admin Group (JWT + role) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAuth(authService), middleware.RequireAdmin())
	{
		// Account management
		adminAPI.GET("/users", handlers.User.ListUsers)
		adminAPI.GET("/users/:id", handlers.User.GetUser)
		adminAPI.POST("/users", handlers.User.CreateUser)
		adminAPI.PUT("/users/:id", handlers.User.UpdateUser)
		adminAPI.DELETE("/users/:id", handlers.User.DeleteUser)

		// Group management
		adminAPI.POST("/groups", handlers.Group.CreateGroup)
		adminAPI.PUT("/groups/:id", handlers.Group.UpdateGroup)
		adminAPI.DELETE("/groups/:id", handlers.Group.DeleteGroup)

		// Subject management
		adminAPI.POST("/subjects", handlers.Subject.CreateSubject)
		adminAPI.PUT("/subjects/:id", handlers.Subject.UpdateSubject)
		adminAPI.DELETE("/subjects/:id", handlers.Subject.DeleteSubject)

		// Schedule slot management
		adminAPI.POST("/schedule-slots", handlers.Schedule.CreateSlot)
		adminAPI.PUT("/schedule-slots/:id", handlers.Schedule.UpdateSlot)
		adminAPI.DELETE("/schedule-slots/:id", handlers.Schedule.DeleteSlot)

		// Reports
		adminAPI.GET("/reports/attendance", handlers.Report.DetailedReport)
		adminAPI.GET("/reports/groups", handlers.Report.GroupsStats)
	}

	return router
}
