package controllers

import (
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"truck_log/internal/config"
	"truck_log/internal/hos"
	"truck_log/internal/models"
	"truck_log/internal/routing"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// routeCalc is the routing collaborator used for trip creation and detail.
// Tests replace it with a calculator pointed at fake upstreams.
var routeCalc hos.RouteCalculator = routing.NewCalculator()

const defaultFuelIntervalMiles = 1000.0

// lineStringToWKB converts route geometry to WKB bytes for storage.
func lineStringToWKB(line *geom.LineString) ([]byte, error) {
	if line == nil {
		return nil, nil
	}
	return wkb.Marshal(line, binary.LittleEndian)
}

// wkbToGeoJSON converts stored WKB bytes into a GeoJSON string for API output.
func wkbToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ListTrips returns all trips, newest first.
func ListTrips(c *gin.Context) {
	var trips []models.Trip
	if err := config.DB.Order("created_at DESC").Find(&trips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch trips"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// CreateTrip creates a trip, calculates its route, schedules it under HOS
// constraints, and persists the trip with its stops and log entries as one
// transaction. Nothing is committed when scheduling fails.
func CreateTrip(c *gin.Context) {
	var input struct {
		PickupLocation    string  `json:"pickup_location" binding:"required"`
		DropoffLocation   string  `json:"dropoff_location" binding:"required"`
		CurrentLocation   string  `json:"current_location"`
		StartTime         string  `json:"start_time"`
		FuelIntervalMiles float64 `json:"fuel_interval_miles"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateTrip: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	currentLocation := input.CurrentLocation
	if currentLocation == "" {
		currentLocation = input.PickupLocation
	}

	startTime := time.Now()
	if input.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, input.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_time: " + err.Error()})
			return
		}
		startTime = parsed
	}

	fuelInterval := input.FuelIntervalMiles
	if fuelInterval <= 0 {
		fuelInterval = defaultFuelIntervalMiles
	}

	trip := models.Trip{
		CurrentLocation: currentLocation,
		PickupLocation:  input.PickupLocation,
		DropoffLocation: input.DropoffLocation,
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	if err := tx.Create(&trip).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create trip failed: " + err.Error()})
		return
	}

	route, stops, logEntries, err := hos.ScheduleTripWithRoute(c.Request.Context(), routeCalc, &trip, startTime, fuelInterval)
	if err != nil {
		tx.Rollback()
		logrus.WithError(err).Error("CreateTrip: trip scheduling failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if wkbGeom, err := lineStringToWKB(route.Geometry); err == nil {
		trip.RouteGeometry = wkbGeom
	} else {
		logrus.WithError(err).Warn("CreateTrip: could not encode route geometry")
	}

	// Stops carry the trip ID assigned above; entries likewise.
	for i := range stops {
		stops[i].TripID = trip.ID
	}
	for i := range logEntries {
		logEntries[i].TripID = trip.ID
	}

	if len(stops) > 0 {
		if err := tx.Create(&stops).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create stops failed: " + err.Error()})
			return
		}
	}
	if len(logEntries) > 0 {
		if err := tx.Create(&logEntries).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create log entries failed: " + err.Error()})
			return
		}
	}
	if err := tx.Save(&trip).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update trip failed: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"trip":        trip,
		"route":       route.Route,
		"waypoints":   route.Waypoints,
		"stops":       stops,
		"log_entries": logEntries,
		"summary": gin.H{
			"total_stops":          len(stops),
			"total_log_entries":    len(logEntries),
			"trip_duration_days":   tripDurationDays(logEntries),
			"total_driving_hours":  round1(sumHours(logEntries, models.StatusDriving)),
			"route_distance_miles": route.Route.DistanceMiles,
			"route_duration_hours": route.Route.DurationHours,
		},
	})
}

// GetTrip returns trip details: stops, daily log sheets, and route info for
// the map view.
func GetTrip(c *gin.Context) {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		return
	}

	var trip models.Trip
	if err := config.DB.First(&trip, tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		} else {
			logrus.WithError(err).Error("GetTrip: database error fetching trip")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	var stops []models.Stop
	config.DB.Where("trip_id = ?", trip.ID).Order("start_time").Find(&stops)

	var logEntries []models.LogEntry
	config.DB.Where("trip_id = ?", trip.ID).Order("day, start_hour").Find(&logEntries)

	stopsByType := make(map[models.StopType][]models.Stop)
	for _, stop := range stops {
		stopsByType[stop.Type] = append(stopsByType[stop.Type], stop)
	}

	sheets := buildLogSheets(logEntries)

	// Route info for the map; fall back to empty figures when the routing
	// collaborator is unavailable so the trip detail still renders.
	var routeSummary routing.Summary
	var waypoints []routing.Waypoint
	if full, err := routeCalc.CalculateCompleteRoute(c.Request.Context(), trip.PickupLocation, trip.DropoffLocation, defaultFuelIntervalMiles); err != nil {
		logrus.WithError(err).Warn("GetTrip: route calculation failed, using fallback")
	} else {
		routeSummary = full.Route
		waypoints = full.Waypoints
	}

	geometry, err := wkbToGeoJSON(trip.RouteGeometry)
	if err != nil {
		logrus.WithError(err).Warn("GetTrip: could not decode stored route geometry")
	}

	c.JSON(http.StatusOK, gin.H{
		"trip": trip,
		"route": gin.H{
			"distance_miles": routeSummary.DistanceMiles,
			"duration_hours": routeSummary.DurationHours,
			"driving_hours":  routeSummary.DrivingHours,
			"stops_hours":    routeSummary.StopsHours,
			"route_geometry": geometry,
		},
		"waypoints": waypoints,
		"stops": gin.H{
			"all":         stops,
			"by_type":     stopsByType,
			"total_count": len(stops),
		},
		"log_sheets": gin.H{
			"daily":               sheets,
			"total_days":          len(sheets),
			"total_driving_hours": round1(sumHours(logEntries, models.StatusDriving)),
			"total_entries":       len(logEntries),
		},
		"summary": gin.H{
			"trip_duration_days":  len(sheets),
			"total_stops":         len(stops),
			"total_log_entries":   len(logEntries),
			"total_driving_hours": round1(sumHours(logEntries, models.StatusDriving)),
			"pickup_location":     trip.PickupLocation,
			"dropoff_location":    trip.DropoffLocation,
			"created_at":          trip.CreatedAt,
		},
	})
}

// DeleteTrip removes a trip together with its stops and log entries.
func DeleteTrip(c *gin.Context) {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		return
	}

	var trip models.Trip
	if err := config.DB.First(&trip, tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.LogEntry{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete log entries: " + err.Error()})
		return
	}
	if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.Stop{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stops: " + err.Error()})
		return
	}
	if err := tx.Delete(&trip).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete trip: " + err.Error()})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted successfully"})
}

// CheckTripCompliance runs the rolling 70/8 check over a trip's log entries
// for the given date (default today).
func CheckTripCompliance(c *gin.Context) {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		return
	}

	checkDate := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		checkDate = parsed
	}

	var logEntries []models.LogEntry
	if err := config.DB.Where("trip_id = ?", tripID).Find(&logEntries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch log entries"})
		return
	}

	constraints := hos.DefaultConstraints()
	compliant := hos.NewScheduler(constraints).ValidateRollingWindow(logEntries, checkDate)

	c.JSON(http.StatusOK, gin.H{
		"trip_id":          tripID,
		"check_date":       checkDate.Format("2006-01-02"),
		"compliant":        compliant,
		"max_hours_8_days": constraints.MaxHours8Days,
	})
}

// buildLogSheets groups ordered log entries into one sheet per day with
// daily driving and on-duty totals.
func buildLogSheets(entries []models.LogEntry) []gin.H {
	var sheets []gin.H
	var dayEntries []models.LogEntry

	flush := func() {
		if len(dayEntries) == 0 {
			return
		}
		day := dayEntries[0].Day
		sheets = append(sheets, gin.H{
			"date":          day.Format("2006-01-02"),
			"day_name":      day.Weekday().String(),
			"entries":       dayEntries,
			"driving_hours": round1(sumHours(dayEntries, models.StatusDriving)),
			"on_duty_hours": round1(sumHours(dayEntries, models.StatusDriving, models.StatusOnDuty)),
			"total_entries": len(dayEntries),
		})
	}

	for _, entry := range entries {
		if len(dayEntries) > 0 && !entry.Day.Equal(dayEntries[0].Day) {
			flush()
			dayEntries = nil
		}
		dayEntries = append(dayEntries, entry)
	}
	flush()

	return sheets
}

// tripDurationDays counts calendar days from the first to the last log entry.
func tripDurationDays(entries []models.LogEntry) int {
	if len(entries) == 0 {
		return 0
	}
	first, last := entries[0].Day, entries[0].Day
	for _, entry := range entries[1:] {
		if entry.Day.Before(first) {
			first = entry.Day
		}
		if entry.Day.After(last) {
			last = entry.Day
		}
	}
	return int(last.Sub(first).Hours()/24) + 1
}

func sumHours(entries []models.LogEntry, statuses ...models.DutyStatus) float64 {
	total := 0.0
	for _, entry := range entries {
		for _, status := range statuses {
			if entry.Status == status {
				total += entry.Hours()
				break
			}
		}
	}
	return total
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
