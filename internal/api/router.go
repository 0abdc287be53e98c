package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskmgr/task-manager-api/internal/api/handler"
	"github.com/taskmgr/task-manager-api/internal/api/middleware"
	"github.com/taskmgr/task-manager-api/internal/core/ports"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Users       ports.UserService
	Tokens      ports.TokenService
	Tasks       ports.TaskService
	Comments    ports.CommentService
	Attachments ports.AttachmentService

	Mongo *mongo.Database
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// Task and comment reads are open to anonymous callers; every write and the
// user directory require a valid bearer token. Admin routes additionally
// pass the service-level role checks.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("taskapi"))

	required := middleware.Required(deps.Tokens)
	optional := middleware.Optional(deps.Tokens)

	authHandler := handler.NewAuthHandler(deps.Users, deps.Tokens)
	userHandler := handler.NewUserHandler(deps.Users)
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	commentHandler := handler.NewCommentHandler(deps.Comments)
	attachmentHandler := handler.NewAttachmentHandler(deps.Attachments)
	adminHandler := handler.NewAdminHandler(deps.Users)

	// Auth and own profile.
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout, required)
	e.GET("/users/me", authHandler.Me, required)
	e.PUT("/users/me", authHandler.UpdateMe, required)

	// User directory.
	users := e.Group("/api/users", required)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)

	// Tasks. Reads allow anonymous access, writes do not.
	tasks := e.Group("/api/tasks")
	tasks.GET("", taskHandler.List, optional)
	tasks.GET("/:id", taskHandler.Get, optional)
	tasks.POST("", taskHandler.Create, required)
	tasks.PUT("/:id", taskHandler.Update, required)
	tasks.DELETE("/:id", taskHandler.Delete, required)

	// Comments live under their task.
	tasks.GET("/:id/comments", commentHandler.List, optional)
	tasks.POST("/:id/comments", commentHandler.Create, required)
	tasks.PUT("/:id/comments/:commentId", commentHandler.Update, required)
	tasks.DELETE("/:id/comments/:commentId", commentHandler.Delete, required)

	// Attachments require authentication even for reads.
	tasks.GET("/:id/files", attachmentHandler.List, required)
	tasks.POST("/:id/files", attachmentHandler.Upload, required)
	tasks.GET("/:id/files/:attachmentId", attachmentHandler.Download, required)
	tasks.DELETE("/:id/files/:attachmentId", attachmentHandler.Delete, required)

	// Admin panel.
	admin := e.Group("/admin", required)
	admin.GET("/stats", adminHandler.Stats)
	admin.PUT("/users/:id/role", adminHandler.SetRole)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	// Probes and metrics.
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Mongo, deps.Redis)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
