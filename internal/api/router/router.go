package router

import (
	"net/http"

	"github.com/cuongbtq/task-service/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "task-api-service",
		})
	})

	taskHandler := handler.NewTaskHandler(deps)
	authHandler := handler.NewAuthHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/token", authHandler.Token)
			authRoutes.POST("/token/refresh", authHandler.TokenRefresh)
		}

		tasks := v1.Group("/tasks")
		tasks.Use(AuthMiddleware(deps.Tokens))
		{
			// POST /api/v1/tasks - Submit a new task
			tasks.POST("", taskHandler.CreateTask)

			// GET /api/v1/tasks - List the caller's tasks
			tasks.GET("", taskHandler.ListTasks)

			// GET /api/v1/tasks/:task_id - Get task details
			tasks.GET("/:task_id", taskHandler.GetTask)
		}
	}

	return r
}
