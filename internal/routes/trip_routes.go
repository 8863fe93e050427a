package routes

import (
	"truck_log/internal/controllers"

	"github.com/gin-gonic/gin"
)

func TripRoutes(r *gin.Engine) {
	trips := r.Group("/trips")
	{
		trips.GET("", controllers.ListTrips)
		trips.POST("", controllers.CreateTrip)
		trips.GET("/:id", controllers.GetTrip)
		trips.DELETE("/:id", controllers.DeleteTrip)
	}
}
