package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"user-rest-service/api/openapi"
	"user-rest-service/internal/adapter/gin/handler"
	"user-rest-service/internal/adapter/gin/middleware"
	"user-rest-service/pkg/security"
)

// OpenAPIPath is where the OpenAPI document is served
const OpenAPIPath = "/openapi/users.json"

// Options holds the optional parts of the router
type Options struct {
	ServiceName string
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, log *zap.Logger, opts Options) *gin.Engine {
	// binding errors report JSON field names
	security.UseJSONFieldNames(binding.Validator.Engine())

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.Handler())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	router.GET(OpenAPIPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openapi.Users)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(OpenAPIPath))))

	users := router.Group("/users")
	{
		users.POST("/", userHandler.CreateUser)
		users.GET("/", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.ReplaceUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
