package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/auth"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/handlers"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Tokens         *auth.Manager
	AuthService    *services.AuthService
	UserService    *services.UserService
	TaskService    *services.TaskService
	RequestTimeout time.Duration
	// Health reports storage reachability for /health. Optional.
	Health func(ctx context.Context) error
}

// New builds the gin engine with every route registered.
func New(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestTimeout(deps.RequestTimeout))

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.UserService)
	userHandler := handlers.NewUserHandler(deps.UserService)
	taskHandler := handlers.NewTaskHandler(deps.TaskService)

	requireAuth := middleware.RequireAuth(deps.Tokens)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unavailable",
					"message": "Database is unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "TaskFlow API is running",
		})
	})

	user := r.Group("/user")
	{
		user.POST("/register", authHandler.Register)
		user.POST("/login", authHandler.Login)
		user.POST("/forgot-password", authHandler.ForgotPassword)
		user.POST("/reset-password", authHandler.ResetPassword)

		user.GET("/me", requireAuth, authHandler.GetCurrentUser)
		user.PATCH("/name", requireAuth, authHandler.ChangeName)
		user.PATCH("/password", requireAuth, authHandler.ChangePassword)
		user.DELETE("", requireAuth, authHandler.DeleteCurrentUser)
	}

	users := r.Group("/users")
	users.Use(requireAuth, middleware.RequireAdmin(deps.UserService))
	{
		users.GET("", userHandler.ListUsers)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:id", middleware.RequireTaskID(), taskHandler.GetTask)
		tasks.PUT("/:id", middleware.RequireTaskID(), taskHandler.ReplaceTask)
		tasks.PATCH("/:id", middleware.RequireTaskID(), taskHandler.PatchTask)
		tasks.DELETE("/:id", middleware.RequireTaskID(), taskHandler.DeleteTask)
	}

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	return r
}
