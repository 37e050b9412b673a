// Package osrm computes routes with an OSRM HTTP server.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/emissions"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://router.project-osrm.org"
	DefaultTimeout = 10 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// ComputeRoute asks OSRM for a route through every point, in the given order.
// Distance is returned in km, duration in minutes and emissions in kg CO2.
func (c *Client) ComputeRoute(ctx context.Context, points []geo.Coordinate, vc da.VehicleClass) (*da.Route, error) {
	if len(points) < 2 {
		return nil, util.NewErrorf(util.ErrBadParamInput, "a route needs at least 2 points, got %d", len(points))
	}

	url := c.routeURL(points, vc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRouteUnavailable, "osrm: failed to create request")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrRouteUnavailable, "osrm: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, util.NewErrorf(util.ErrRouteUnavailable, "osrm: unexpected status %d", resp.StatusCode)
	}

	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, util.WrapErrorf(err, util.ErrRouteUnavailable, "osrm: failed to decode response")
	}
	if body.Code != "Ok" {
		return nil, util.NewErrorf(util.ErrRouteUnavailable, "osrm: code %q: %s", body.Code, body.Message)
	}
	if len(body.Routes) == 0 {
		return nil, util.NewErrorf(util.ErrRouteUnavailable, "osrm: no routes")
	}

	best := body.Routes[0]
	path := make([]geo.Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			return nil, util.NewErrorf(util.ErrRouteUnavailable, "osrm: malformed geometry position")
		}
		// geojson positions are [lon, lat]
		path = append(path, geo.NewCoordinate(pair[1], pair[0]))
	}
	if len(path) < 2 {
		return nil, util.NewErrorf(util.ErrRouteUnavailable, "osrm: route geometry has %d points", len(path))
	}

	distanceKm := util.MetersToKilometers(best.Distance)
	durationMin := util.SecondsToMinutes(best.Duration)

	c.log.Debug("osrm route computed",
		zap.String("profile", vc.Profile()),
		zap.Int("waypoints", len(points)),
		zap.Int("geometry_points", len(path)),
		zap.Float64("distance_km", distanceKm),
		zap.Duration("took", time.Since(start)))

	return da.NewRoute(path, distanceKm, durationMin, emissions.Estimate(distanceKm, vc), vc), nil
}

func (c *Client) routeURL(points []geo.Coordinate, vc da.VehicleClass) string {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	return fmt.Sprintf("%s/route/v1/%s/%s?overview=full&geometries=geojson",
		c.baseURL, vc.Profile(), strings.Join(coords, ";"))
}
