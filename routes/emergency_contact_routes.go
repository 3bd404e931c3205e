package routes

import (
	"safetrack/internal/handlers"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupEmergencyContactRoutes sets up routes for the emergency contact
// lifecycle
func SetupEmergencyContactRoutes(r *gin.RouterGroup, contactHandler *handlers.EmergencyContactHandler, jwtSecret string) {
	// Public token routes: reached from email links, no auth required
	public := r.Group("/emergency-contacts")
	{
		public.GET("/verify/:token", contactHandler.VerifyContact)
		public.GET("/decline/:token", contactHandler.DeclineContact)
	}

	// Owner-scoped routes keyed by user ID
	users := r.Group("/users/:userId")
	users.Use(middleware.AuthRequired(jwtSecret))
	{
		users.POST("/emergency-contacts", contactHandler.AddContact)
		users.GET("/emergency-contacts", contactHandler.ListContacts)
		users.GET("/emergency-contacts/active", contactHandler.ListActiveContacts)
		users.GET("/emergency-contacts/pending", contactHandler.CheckPendingContacts)
		users.GET("/designated-by", contactHandler.ListDesignatingContacts)
		users.POST("/emergency-contacts/alert", contactHandler.SendAlert)
	}

	// Contact-scoped routes keyed by contact ID
	contacts := r.Group("/emergency-contacts")
	contacts.Use(middleware.AuthRequired(jwtSecret))
	{
		contacts.GET("/:id", contactHandler.GetContact)
		contacts.PUT("/:id", contactHandler.UpdateContact)
		contacts.DELETE("/:id", contactHandler.RemoveContact)
		contacts.POST("/:id/resend", contactHandler.ResendVerification)
	}

	// Admin maintenance routes
	admin := r.Group("/admin/emergency-contacts")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.POST("/cleanup", contactHandler.CleanupExpiredTokens)
	}
}
