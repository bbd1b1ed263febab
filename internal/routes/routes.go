package routes

import (
	"github.com/civicpulse/backend/internal/config"
	"github.com/civicpulse/backend/internal/controllers"
	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/middleware"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/civicpulse/backend/internal/services"
	"github.com/civicpulse/backend/internal/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies are the long-lived collaborators the routes are built from.
type Dependencies struct {
	Config    *config.Config
	Store     *repository.Store
	DB        *gorm.DB
	Publisher events.Publisher
	Media     storage.MediaStore
}

// SetupRoutes configures all application routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	// Initialize services
	reportService := services.NewReportService(deps.Store, deps.Publisher, cfg.ReportCacheTTL, cfg.BulkWorkers)
	voteService := services.NewVoteService(reportService, deps.Store.Votes, deps.Publisher)
	commentService := services.NewCommentService(reportService, deps.Store.Comments, deps.Publisher)
	mediaService := services.NewMediaService(deps.Media, cfg.MaxUploadBytes)

	// Initialize controllers
	healthController := controllers.NewHealthController(deps.DB, cfg.StoreDriver)
	authController := controllers.NewAuthController(deps.Store.Users, cfg.JWTSecret, cfg.TokenTTL)
	userController := controllers.NewUserController(deps.Store.Users)
	reportController := controllers.NewReportController(reportService)
	engagementController := controllers.NewEngagementController(voteService, commentService)
	mediaController := controllers.NewMediaController(mediaService)
	departmentController := controllers.NewDepartmentController(reportService)
	adminController := controllers.NewAdminController(reportService)

	r.GET("/health", healthController.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.MediaDir != "" {
		r.Static("/media", cfg.MediaDir)
	}

	// API routes
	api := r.Group("/api/v1")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authController.Login)
			auth.POST("/register", authController.Register)
		}

		// Public routes, identity optional
		public := api.Group("/")
		public.Use(middleware.OptionalAuth(cfg.JWTSecret))
		{
			public.GET("/meta", reportController.Meta)
			public.GET("/reports", reportController.ListReports)
			public.GET("/reports/top", reportController.TopReports)
			public.GET("/reports/map", reportController.MapReports)
			public.GET("/reports/:id", reportController.GetReport)
			public.GET("/reports/:id/votes", engagementController.GetVotes)
			public.GET("/reports/:id/comments", engagementController.ListComments)
			public.POST("/reports", reportController.CreateReport)
			public.POST("/media", mediaController.Upload)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			protected.POST("/auth/refresh", authController.RefreshToken)
			protected.PUT("/auth/password", authController.ChangePassword)

			// Users
			users := protected.Group("/users")
			{
				users.GET("/me", userController.GetCurrentUser)
				users.PUT("/me", userController.UpdateCurrentUser)
			}

			protected.GET("/reports/mine", reportController.MyReports)
			protected.POST("/reports/:id/votes", engagementController.CastVote)
			protected.POST("/reports/:id/comments", engagementController.AddComment)

			// Department queue
			department := protected.Group("/department")
			department.Use(middleware.RequireRole(models.RoleDepartment, models.RoleAdmin))
			{
				department.GET("/reports", departmentController.ListReports)
				department.POST("/reports/:id/transition", departmentController.Transition)
				department.POST("/reports/:id/resolve", departmentController.Resolve)
				department.POST("/reports/:id/notes", departmentController.AddNote)
			}

			// Admin routes
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/reports", adminController.ListReports)
				admin.GET("/reports/assignable", adminController.Assignable)
				admin.GET("/reports/export", adminController.Export)
				admin.GET("/reports/:id/activity", adminController.Activity)
				admin.PUT("/reports/:id", adminController.UpdateReport)
				admin.POST("/reports/:id/notes", adminController.AddNote)
				admin.POST("/reports/bulk-assign", adminController.BulkAssign)
				admin.GET("/analytics", adminController.Analytics)
				admin.GET("/users", userController.GetUsers)
				admin.PUT("/users/:id/role", userController.UpdateUserRole)
			}
		}
	}
}
