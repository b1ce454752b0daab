package handlers

import (
	"context"
	"net/http"

	"taskboard/config"
	"taskboard/internal/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies are the stores the router wires into its handlers.
type Dependencies struct {
	Users     UserStore
	Tasks     TaskStore
	Analytics AnalyticsStore
	// Ping reports database health; nil means always healthy
	Ping func(ctx context.Context) error
}

// NewRouter builds the gin engine with every API route.
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	authHandler := NewAuthHandler(cfg, deps.Users)
	userHandler := NewUserHandler(deps.Users, cfg.RequestTimeout)
	peopleHandler := NewPeopleHandler(deps.Users)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Analytics, deps.Users)

	r := gin.Default()
	r.Use(middleware.CORS(cfg))

	// Public routes
	public := r.Group("/api")
	{
		public.GET("/health", func(c *gin.Context) {
			status, db := http.StatusOK, "connected"
			if deps.Ping != nil {
				if err := deps.Ping(c.Request.Context()); err != nil {
					status, db = http.StatusServiceUnavailable, "unreachable"
				}
			}
			c.JSON(status, gin.H{
				"status":   http.StatusText(status),
				"message":  "Task board API is running",
				"database": db,
			})
		})

		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)

		auth := public.Group("/auth")
		{
			auth.POST("/google", authHandler.GoogleAuth)
			auth.POST("/refresh", authHandler.RefreshToken)
		}

		public.GET("/share/tasks/:id", taskHandler.SharedTask)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/user", userHandler.GetMe)
		protected.PUT("/user", userHandler.UpdateMe)

		protected.GET("/people", peopleHandler.GetPeople)
		protected.POST("/people", peopleHandler.AddPerson)
		protected.GET("/people/suggestions", peopleHandler.GetSuggestions)

		protected.GET("/tasks", taskHandler.ListTasks)
		protected.POST("/tasks", taskHandler.CreateTask)
		protected.GET("/tasks/analytics", taskHandler.GetAnalytics)
		protected.GET("/tasks/:id", taskHandler.GetTask)
		protected.PUT("/tasks/:id", taskHandler.UpdateTask)
		protected.DELETE("/tasks/:id", taskHandler.DeleteTask)
		protected.PATCH("/tasks/:id/state", taskHandler.MoveTask)
		protected.PATCH("/tasks/:id/checklist/:itemId", taskHandler.ToggleChecklistItem)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
