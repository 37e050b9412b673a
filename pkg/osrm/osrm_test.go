package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const caliRoute = `{
	"code": "Ok",
	"routes": [{
		"distance": 21450.5,
		"duration": 1530,
		"geometry": {"type": "LineString", "coordinates": [[-76.53, 3.45], [-76.45, 3.50], [-76.38, 3.54]]}
	}]
}`

func TestComputeRouteCaliCentroToAirport(t *testing.T) {
	var calls int32
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(caliRoute))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	route, err := c.ComputeRoute(context.Background(), []geo.Coordinate{
		geo.NewCoordinate(3.45, -76.53),
		geo.NewCoordinate(3.54, -76.38),
	}, da.CAR)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "/route/v1/driving/-76.530000,3.450000;-76.380000,3.540000", gotPath)
	assert.Contains(t, gotQuery, "overview=full")
	assert.Contains(t, gotQuery, "geometries=geojson")

	assert.InDelta(t, 21.4505, route.DistanceKm(), 1e-9)
	assert.InDelta(t, 25.5, route.DurationMin(), 1e-9)
	assert.InDelta(t, route.DistanceKm()*0.12, route.EmissionsKg(), 1e-12)
	require.Equal(t, 3, route.NumPoints())
	assert.Equal(t, geo.NewCoordinate(3.45, -76.53), route.Path()[0])
	assert.Equal(t, da.CAR, route.Vehicle())
}

func TestComputeRouteForwardsEveryWaypointInOrder(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(caliRoute))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ComputeRoute(context.Background(), []geo.Coordinate{
		geo.NewCoordinate(3.45, -76.53),
		geo.NewCoordinate(3.48, -76.50),
		geo.NewCoordinate(3.51, -76.44),
		geo.NewCoordinate(3.54, -76.38),
	}, da.FOOT)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/route/v1/walking/"))
	coords := strings.Split(strings.TrimPrefix(gotPath, "/route/v1/walking/"), ";")
	assert.Equal(t, []string{"-76.530000,3.450000", "-76.500000,3.480000", "-76.440000,3.510000",
		"-76.380000,3.540000"}, coords)
}

func TestComputeRouteProfiles(t *testing.T) {
	tests := []struct {
		vehicle da.VehicleClass
		profile string
	}{
		{da.CAR, "driving"},
		{da.BIKE, "cycling"},
		{da.FOOT, "walking"},
		{da.BUS, "driving"},
		{da.MOTORCYCLE, "driving"},
	}
	for _, tt := range tests {
		t.Run(tt.vehicle.String(), func(t *testing.T) {
			c := NewClient("http://osrm.local", time.Second, zap.NewNop())
			url := c.routeURL([]geo.Coordinate{geo.NewCoordinate(1, 2), geo.NewCoordinate(3, 4)}, tt.vehicle)
			assert.Contains(t, url, "/route/v1/"+tt.profile+"/")
		})
	}
}

func TestComputeRouteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"malformed json", http.StatusOK, `{"code":`},
		{"no route", http.StatusOK, `{"code":"NoRoute","message":"Impossible route","routes":[]}`},
		{"zero routes", http.StatusOK, `{"code":"Ok","routes":[]}`},
		{"single point geometry", http.StatusOK,
			`{"code":"Ok","routes":[{"distance":1,"duration":1,"geometry":{"coordinates":[[-76.53,3.45]]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, zap.NewNop())
			_, err := c.ComputeRoute(context.Background(), []geo.Coordinate{
				geo.NewCoordinate(3.45, -76.53), geo.NewCoordinate(3.54, -76.38),
			}, da.CAR)
			assert.ErrorIs(t, err, util.ErrRouteUnavailable)
		})
	}
}

func TestComputeRouteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zap.NewNop())
	_, err := c.ComputeRoute(context.Background(), []geo.Coordinate{
		geo.NewCoordinate(3.45, -76.53), geo.NewCoordinate(3.54, -76.38),
	}, da.CAR)
	assert.ErrorIs(t, err, util.ErrRouteUnavailable)
}

func TestComputeRouteNeedsTwoPoints(t *testing.T) {
	c := NewClient("http://osrm.local", time.Second, zap.NewNop())
	_, err := c.ComputeRoute(context.Background(), []geo.Coordinate{geo.NewCoordinate(3.45, -76.53)}, da.CAR)
	assert.ErrorIs(t, err, util.ErrBadParamInput)
}
