package routes

import (
	"safetrack/internal/handlers"
	"safetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupLocationRoutes sets up routes for location tracking and SOS
func SetupLocationRoutes(r *gin.RouterGroup, locationHandler *handlers.LocationHandler, jwtSecret string) {
	locations := r.Group("/users/:userId/locations")
	locations.Use(middleware.AuthRequired(jwtSecret))
	{
		locations.POST("", locationHandler.RecordLocation)
		locations.POST("/batch", locationHandler.RecordLocationBatch)
		locations.POST("/sos", locationHandler.TriggerSOS)
		locations.GET("/current", locationHandler.GetCurrentLocation)
		locations.GET("", locationHandler.GetLocationHistory)
		locations.GET("/emergencies", locationHandler.GetEmergencyHistory)
	}

	admin := r.Group("/admin/locations")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.GET("/emergencies/nearby", locationHandler.GetNearbyEmergencies)
	}
}
