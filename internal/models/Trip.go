// internal/models/trip.go
package models

import (
	"gorm.io/gorm"
)

// Trip represents a single freight movement from pickup to dropoff.
// A trip owns its stops and log entries; deleting the trip removes both.
type Trip struct {
	gorm.Model

	CurrentLocation string  `json:"current_location"`
	PickupLocation  string  `json:"pickup_location" binding:"required"`
	DropoffLocation string  `json:"dropoff_location" binding:"required"`
	CycleHours      float64 `json:"cycle_hours"`

	// Route geometry stored as WKB (SRID 4326 LINESTRING).
	// API input/output uses GeoJSON; conversion happens in the controller.
	RouteGeometry []byte `gorm:"type:bytea" json:"-"`

	// Associations
	Stops      []Stop     `gorm:"foreignKey:TripID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"stops,omitempty"`
	LogEntries []LogEntry `gorm:"foreignKey:TripID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"log_entries,omitempty"`
}
