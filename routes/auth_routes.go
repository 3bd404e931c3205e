package routes

import (
	"safetrack/internal/handlers"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up routes for registration and authentication
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, jwtSecret string) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	me := r.Group("/auth")
	me.Use(middleware.AuthRequired(jwtSecret))
	{
		me.GET("/me", authHandler.Me)
	}
}
