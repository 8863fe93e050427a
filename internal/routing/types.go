package routing

import "github.com/twpayne/go-geom"

// WaypointKind classifies a point along the planned route. The *_stop kinds
// are timed service halts inserted by the calculator, distinct from the
// route endpoints themselves.
type WaypointKind string

const (
	WaypointPickup      WaypointKind = "pickup"
	WaypointDropoff     WaypointKind = "dropoff"
	WaypointFuel        WaypointKind = "fuel"
	WaypointPickupStop  WaypointKind = "pickup_stop"
	WaypointDropoffStop WaypointKind = "dropoff_stop"
)

// Waypoint is a named point on the route.
type Waypoint struct {
	Name string       `json:"name"`
	Kind WaypointKind `json:"type"`
	Lat  float64      `json:"lat"`
	Lng  float64      `json:"lng"`
}

// RouteInfo is a routed leg between two locations as returned by OSRM.
type RouteInfo struct {
	DistanceMiles float64
	DurationHours float64
	Waypoints     []Waypoint
	Geometry      *geom.LineString
}

// Summary carries the headline figures of a complete route. DurationHours
// includes stop time; DrivingHours is wheel time only.
type Summary struct {
	DistanceMiles float64 `json:"distance_miles"`
	DurationHours float64 `json:"duration_hours"`
	DrivingHours  float64 `json:"driving_hours"`
	StopsHours    float64 `json:"stops_hours"`
}

// CompleteRoute is the full plan: totals, ordered waypoints including
// service and fuel stops, and the route geometry for map display.
type CompleteRoute struct {
	Route     Summary          `json:"route"`
	Waypoints []Waypoint       `json:"waypoints"`
	Geometry  *geom.LineString `json:"-"`
}
