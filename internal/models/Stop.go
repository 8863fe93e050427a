package models

import (
	"time"

	"gorm.io/gorm"
)

// StopType classifies a stop along a trip.
type StopType string

const (
	StopPickup  StopType = "pickup"
	StopDropoff StopType = "dropoff"
	StopFuel    StopType = "fuel"
	StopRest    StopType = "rest"
)

// Stop represents a scheduled halt during a trip: rest stops derived from
// the HOS schedule, plus pickup/dropoff/fuel stops from the route plan.
type Stop struct {
	gorm.Model

	TripID    uint      `json:"trip_id" gorm:"index"`
	Location  string    `json:"location"`
	Type      StopType  `json:"type" gorm:"type:varchar(10)"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
