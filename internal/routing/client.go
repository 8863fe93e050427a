package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"
	geojson "github.com/twpayne/go-geom/encoding/geojson"
)

const (
	defaultOSRMBaseURL      = "http://router.project-osrm.org"
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	userAgent               = "TruckLogManagement/1.0"

	metersPerMile = 1609.344
)

// Client resolves locations through Nominatim and routes between them with
// OSRM. It is safe for concurrent use.
type Client struct {
	session      *http.Client
	osrmURL      string
	nominatimURL string
}

func NewClient() *Client {
	return &Client{
		session:      &http.Client{Timeout: 30 * time.Second},
		osrmURL:      defaultOSRMBaseURL,
		nominatimURL: defaultNominatimBaseURL,
	}
}

// NewClientWithBaseURLs is used by tests to point the client at fake
// upstreams.
func NewClientWithBaseURLs(osrmURL, nominatimURL string) *Client {
	return &Client{
		session:      &http.Client{Timeout: 10 * time.Second},
		osrmURL:      strings.TrimRight(osrmURL, "/"),
		nominatimURL: strings.TrimRight(nominatimURL, "/"),
	}
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429/5xx responses)
// with exponential backoff while respecting context cancellation.
func (c *Client) doWithRetry(ctx context.Context, rawURL string) (*http.Response, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, rawURL)
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

// Geocode resolves a free-text location to coordinates via Nominatim.
func (c *Client) Geocode(ctx context.Context, location string) (lat, lng float64, err error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	resp, err := c.doWithRetry(ctx, c.nominatimURL+"/search?"+q.Encode())
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", location, err)
	}
	defer resp.Body.Close()

	// Nominatim encodes coordinates as strings.
	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, fmt.Errorf("decode geocode response for %q: %w", location, err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("location not found: %q", location)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse latitude for %q: %w", location, err)
	}
	lng, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse longitude for %q: %w", location, err)
	}
	return lat, lng, nil
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64         `json:"distance"`
		Duration float64         `json:"duration"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
	Waypoints []struct {
		Location [2]float64 `json:"location"` // [lng, lat]
	} `json:"waypoints"`
}

// Route calculates the driving route between two locations, geocoding both
// ends first. The returned waypoints are the pickup and dropoff endpoints.
func (c *Client) Route(ctx context.Context, startLocation, endLocation string) (*RouteInfo, error) {
	startLat, startLng, err := c.Geocode(ctx, startLocation)
	if err != nil {
		return nil, fmt.Errorf("route calculation: %w", err)
	}
	endLat, endLng, err := c.Geocode(ctx, endLocation)
	if err != nil {
		return nil, fmt.Errorf("route calculation: %w", err)
	}

	coords := fmt.Sprintf("%f,%f;%f,%f", startLng, startLat, endLng, endLat)
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")

	resp, err := c.doWithRetry(ctx, c.osrmURL+"/route/v1/driving/"+coords+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("route calculation: %w", err)
	}
	defer resp.Body.Close()

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode routing response: %w", err)
	}
	if decoded.Code != "Ok" {
		msg := decoded.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("routing failed: %s", msg)
	}
	if len(decoded.Routes) == 0 || len(decoded.Waypoints) < 2 {
		return nil, errors.New("routing response missing route or waypoints")
	}

	route := decoded.Routes[0]

	var line *geom.LineString
	if len(route.Geometry) > 0 {
		var g geom.T
		if err := geojson.Unmarshal(route.Geometry, &g); err == nil {
			if ls, ok := g.(*geom.LineString); ok {
				line = ls
			}
		}
	}

	return &RouteInfo{
		DistanceMiles: route.Distance / metersPerMile,
		DurationHours: route.Duration / 3600,
		Waypoints: []Waypoint{
			{
				Name: startLocation,
				Kind: WaypointPickup,
				Lat:  decoded.Waypoints[0].Location[1],
				Lng:  decoded.Waypoints[0].Location[0],
			},
			{
				Name: endLocation,
				Kind: WaypointDropoff,
				Lat:  decoded.Waypoints[1].Location[1],
				Lng:  decoded.Waypoints[1].Location[0],
			},
		},
		Geometry: line,
	}, nil
}
