package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNominatim answers geocode queries with fixed coordinates per city.
func fakeNominatim(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		var lat, lon string
		switch {
		case strings.Contains(q, "New York"):
			lat, lon = "40.7128", "-74.0060"
		case strings.Contains(q, "Los Angeles"):
			lat, lon = "34.0522", "-118.2437"
		default:
			fmt.Fprint(w, "[]")
			return
		}
		fmt.Fprintf(w, `[{"lat":%q,"lon":%q}]`, lat, lon)
	}))
}

// fakeOSRM answers every route request with the given distance and duration.
func fakeOSRM(t *testing.T, distanceMeters, durationSeconds float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/route/v1/driving/") {
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"code": "Ok",
			"routes": []map[string]any{{
				"distance": distanceMeters,
				"duration": durationSeconds,
				"geometry": map[string]any{
					"type":        "LineString",
					"coordinates": [][]float64{{-74.0060, 40.7128}, {-118.2437, 34.0522}},
				},
			}},
			"waypoints": []map[string]any{
				{"location": []float64{-74.0060, 40.7128}},
				{"location": []float64{-118.2437, 34.0522}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCalculateCompleteRoute(t *testing.T) {
	nominatim := fakeNominatim(t)
	defer nominatim.Close()
	// 2800 miles, 56 hours of driving
	osrm := fakeOSRM(t, 2800*metersPerMile, 56*3600)
	defer osrm.Close()

	calc := NewCalculatorWithClient(NewClientWithBaseURLs(osrm.URL, nominatim.URL))

	route, err := calc.CalculateCompleteRoute(context.Background(), "New York, NY", "Los Angeles, CA", 1000)
	require.NoError(t, err)

	assert.Equal(t, 2800.0, route.Route.DistanceMiles)
	assert.Equal(t, 56.0, route.Route.DrivingHours)
	// Two fuel stops at 30 minutes plus one hour each for pickup and dropoff.
	assert.Equal(t, 3.0, route.Route.StopsHours)
	assert.Equal(t, 59.0, route.Route.DurationHours)

	kinds := make([]WaypointKind, 0, len(route.Waypoints))
	for _, wp := range route.Waypoints {
		kinds = append(kinds, wp.Kind)
	}
	assert.Equal(t, []WaypointKind{
		WaypointPickup,
		WaypointPickupStop,
		WaypointFuel,
		WaypointFuel,
		WaypointDropoffStop,
		WaypointDropoff,
	}, kinds)

	// Fuel stops interpolate between the endpoints.
	fuel1, fuel2 := route.Waypoints[2], route.Waypoints[3]
	assert.Equal(t, "Fuel Stop 1", fuel1.Name)
	assert.Equal(t, "Fuel Stop 2", fuel2.Name)
	assert.Less(t, fuel1.Lat, 40.7128)
	assert.Greater(t, fuel1.Lat, fuel2.Lat)
	assert.Greater(t, fuel2.Lat, 34.0522)

	require.NotNil(t, route.Geometry)
	assert.Equal(t, 2, route.Geometry.NumCoords())
}

func TestCalculateCompleteRouteShortHaul(t *testing.T) {
	nominatim := fakeNominatim(t)
	defer nominatim.Close()
	// 500 miles fits inside one fuel interval
	osrm := fakeOSRM(t, 500*metersPerMile, 10*3600)
	defer osrm.Close()

	calc := NewCalculatorWithClient(NewClientWithBaseURLs(osrm.URL, nominatim.URL))

	route, err := calc.CalculateCompleteRoute(context.Background(), "New York, NY", "Los Angeles, CA", 1000)
	require.NoError(t, err)

	kinds := make([]WaypointKind, 0, len(route.Waypoints))
	for _, wp := range route.Waypoints {
		kinds = append(kinds, wp.Kind)
	}
	assert.Equal(t, []WaypointKind{
		WaypointPickup,
		WaypointPickupStop,
		WaypointDropoffStop,
		WaypointDropoff,
	}, kinds)
	assert.Equal(t, 2.0, route.Route.StopsHours)
	assert.Equal(t, 12.0, route.Route.DurationHours)
}

func TestGeocodeNotFound(t *testing.T) {
	nominatim := fakeNominatim(t)
	defer nominatim.Close()
	osrm := fakeOSRM(t, 1000, 60)
	defer osrm.Close()

	client := NewClientWithBaseURLs(osrm.URL, nominatim.URL)

	_, _, err := client.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location not found")
}

func TestGeocodeRetriesTransientFailures(t *testing.T) {
	attempts := 0
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"lat":"40.7128","lon":"-74.0060"}]`)
	}))
	defer nominatim.Close()

	client := NewClientWithBaseURLs("http://unused.invalid", nominatim.URL)

	lat, lng, err := client.Geocode(context.Background(), "New York, NY")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 40.7128, lat)
	assert.Equal(t, -74.0060, lng)
}

func TestRouteFailurePropagatesMessage(t *testing.T) {
	nominatim := fakeNominatim(t)
	defer nominatim.Close()
	osrm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"NoRoute","message":"no route between points"}`)
	}))
	defer osrm.Close()

	client := NewClientWithBaseURLs(osrm.URL, nominatim.URL)

	_, err := client.Route(context.Background(), "New York, NY", "Los Angeles, CA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route between points")
}
