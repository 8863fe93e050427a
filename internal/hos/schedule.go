package hos

import (
	"context"
	"time"

	"truck_log/internal/models"
	"truck_log/internal/routing"
)

// defaultAverageSpeedMPH is used when the caller does not control speed,
// e.g. when scheduling from a calculated route.
const defaultAverageSpeedMPH = 50.0

// RouteCalculator is the routing collaborator consumed by
// ScheduleTripWithRoute. routing.Calculator is the production implementation.
type RouteCalculator interface {
	CalculateCompleteRoute(ctx context.Context, pickup, dropoff string, fuelIntervalMiles float64) (*routing.CompleteRoute, error)
}

// ScheduleTrip builds an HOS-compliant schedule for a known distance using
// the default constraints.
func ScheduleTrip(
	trip *models.Trip,
	distanceMiles float64,
	startTime time.Time,
	averageSpeed float64,
) ([]models.Stop, []models.LogEntry, error) {
	return NewScheduler(DefaultConstraints()).CalculateTripSchedule(trip, distanceMiles, startTime, averageSpeed)
}

// ScheduleTripWithRoute calculates the real route between the trip's pickup
// and dropoff, schedules it under HOS constraints, and appends the route's
// pickup/dropoff/fuel stops to the rest stops. Any collaborator failure is
// returned as a *RouteError and no partial schedule is produced.
func ScheduleTripWithRoute(
	ctx context.Context,
	calc RouteCalculator,
	trip *models.Trip,
	startTime time.Time,
	fuelIntervalMiles float64,
) (*routing.CompleteRoute, []models.Stop, []models.LogEntry, error) {
	route, err := calc.CalculateCompleteRoute(ctx, trip.PickupLocation, trip.DropoffLocation, fuelIntervalMiles)
	if err != nil {
		return nil, nil, nil, &RouteError{Err: err}
	}

	trip.CycleHours = route.Route.DrivingHours

	stops, logEntries, err := NewScheduler(DefaultConstraints()).CalculateTripSchedule(
		trip,
		route.Route.DistanceMiles,
		startTime,
		defaultAverageSpeedMPH,
	)
	if err != nil {
		return nil, nil, nil, err
	}

	stops = append(stops, routeStops(trip, route, startTime)...)

	return route, stops, logEntries, nil
}

// routeStops turns plan waypoints into timed service stops: one hour for
// pickup and dropoff, thirty minutes for fuel. The clock here advances
// independently of the HOS event clock; both start at startTime, so the two
// stop lists are not reconciled against each other.
func routeStops(trip *models.Trip, route *routing.CompleteRoute, startTime time.Time) []models.Stop {
	var stops []models.Stop
	current := startTime

	for _, wp := range route.Waypoints {
		switch wp.Kind {
		case routing.WaypointPickupStop, routing.WaypointDropoffStop:
			stopType := models.StopPickup
			if wp.Kind == routing.WaypointDropoffStop {
				stopType = models.StopDropoff
			}
			end := current.Add(time.Hour)
			stops = append(stops, models.Stop{
				TripID:    trip.ID,
				Location:  wp.Name,
				Type:      stopType,
				StartTime: current,
				EndTime:   end,
			})
			current = end

		case routing.WaypointFuel:
			end := current.Add(30 * time.Minute)
			stops = append(stops, models.Stop{
				TripID:    trip.ID,
				Location:  wp.Name,
				Type:      models.StopFuel,
				StartTime: current,
				EndTime:   end,
			})
			current = end
		}
	}

	return stops
}
