package routing

import (
	"context"
	"fmt"
	"math"
)

// Calculator turns a raw routed leg into a complete trip plan: fuel stops at
// a fixed mileage interval, then timed pickup/dropoff service stops.
type Calculator struct {
	client *Client
}

func NewCalculator() *Calculator {
	return &Calculator{client: NewClient()}
}

// NewCalculatorWithClient is used by tests to inject a client pointed at
// fake upstreams.
func NewCalculatorWithClient(client *Client) *Calculator {
	return &Calculator{client: client}
}

// CalculateCompleteRoute routes between the two locations and layers fuel
// and service stops onto the result. Stop time is added to the total
// duration but not to driving hours.
func (r *Calculator) CalculateCompleteRoute(
	ctx context.Context,
	startLocation, endLocation string,
	fuelIntervalMiles float64,
) (*CompleteRoute, error) {
	info, err := r.client.Route(ctx, startLocation, endLocation)
	if err != nil {
		return nil, fmt.Errorf("complete route calculation: %w", err)
	}

	info = addFuelStops(info, fuelIntervalMiles)
	info = addServiceStops(info)

	stopsHours := 0.0
	for _, wp := range info.Waypoints {
		switch wp.Kind {
		case WaypointPickupStop, WaypointDropoffStop:
			stopsHours += 1.0
		case WaypointFuel:
			stopsHours += 0.5
		}
	}

	return &CompleteRoute{
		Route: Summary{
			DistanceMiles: round2(info.DistanceMiles),
			DurationHours: round2(info.DurationHours + stopsHours),
			DrivingHours:  round2(info.DurationHours),
			StopsHours:    round2(stopsHours),
		},
		Waypoints: info.Waypoints,
		Geometry:  info.Geometry,
	}, nil
}

// addFuelStops inserts a fuel waypoint every fuelIntervalMiles, positioned by
// linear interpolation between the route endpoints and capped at 95% of the
// way so the last fuel stop never lands on the dropoff.
func addFuelStops(info *RouteInfo, fuelIntervalMiles float64) *RouteInfo {
	if fuelIntervalMiles <= 0 || info.DistanceMiles <= fuelIntervalMiles || len(info.Waypoints) < 2 {
		return info
	}

	numStops := int(info.DistanceMiles / fuelIntervalMiles)
	first := info.Waypoints[0]
	last := info.Waypoints[len(info.Waypoints)-1]

	waypoints := make([]Waypoint, 0, numStops+2)
	waypoints = append(waypoints, first)
	for i := 1; i <= numStops; i++ {
		progress := float64(i) * fuelIntervalMiles / info.DistanceMiles
		progress = math.Min(progress, 0.95)
		waypoints = append(waypoints, Waypoint{
			Name: fmt.Sprintf("Fuel Stop %d", i),
			Kind: WaypointFuel,
			Lat:  first.Lat + (last.Lat-first.Lat)*progress,
			Lng:  first.Lng + (last.Lng-first.Lng)*progress,
		})
	}
	waypoints = append(waypoints, last)

	info.Waypoints = waypoints
	return info
}

// addServiceStops inserts a one-hour service stop after the pickup waypoint
// and before the dropoff waypoint.
func addServiceStops(info *RouteInfo) *RouteInfo {
	waypoints := make([]Waypoint, 0, len(info.Waypoints)+2)
	for _, wp := range info.Waypoints {
		switch wp.Kind {
		case WaypointPickup:
			waypoints = append(waypoints, wp, Waypoint{
				Name: "Pickup Stop - " + wp.Name,
				Kind: WaypointPickupStop,
				Lat:  wp.Lat,
				Lng:  wp.Lng,
			})
		case WaypointDropoff:
			waypoints = append(waypoints, Waypoint{
				Name: "Dropoff Stop - " + wp.Name,
				Kind: WaypointDropoffStop,
				Lat:  wp.Lat,
				Lng:  wp.Lng,
			}, wp)
		default:
			waypoints = append(waypoints, wp)
		}
	}

	info.Waypoints = waypoints
	return info
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
