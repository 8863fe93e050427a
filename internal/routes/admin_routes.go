package routes

import (
	"truck_log/internal/controllers"
	"truck_log/internal/middleware"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/trips", controllers.ListTrips)
		admin.GET("/trips/:id/compliance", controllers.CheckTripCompliance)
	}
}
