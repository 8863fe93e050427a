package routes

import (
	"truck_log/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RouteRoutes(r *gin.Engine) {
	route := r.Group("/routes")
	{
		route.POST("/calculate", controllers.CalculateRoute)
	}
}
