package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// CalculateRoute computes a route with fuel and service stops between two
// locations without creating a trip.
func CalculateRoute(c *gin.Context) {
	var input struct {
		StartLocation     string  `json:"start_location" binding:"required"`
		EndLocation       string  `json:"end_location" binding:"required"`
		FuelIntervalMiles float64 `json:"fuel_interval_miles"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_location and end_location are required"})
		return
	}

	fuelInterval := input.FuelIntervalMiles
	if fuelInterval <= 0 {
		fuelInterval = defaultFuelIntervalMiles
	}

	route, err := routeCalc.CalculateCompleteRoute(c.Request.Context(), input.StartLocation, input.EndLocation, fuelInterval)
	if err != nil {
		logrus.WithError(err).Warn("CalculateRoute: route calculation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	geometry := ""
	if route.Geometry != nil {
		if b, err := gjson.Marshal(route.Geometry); err == nil {
			geometry = string(b)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"route":          route.Route,
		"waypoints":      route.Waypoints,
		"route_geometry": geometry,
	})
}
