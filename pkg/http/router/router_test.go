package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/emissions"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/geocoder"
	"github.com/lintang-b-s/ecoflow/pkg/http/router/controllers"
	"github.com/lintang-b-s/ecoflow/pkg/http/usecases"
	"github.com/lintang-b-s/ecoflow/pkg/planner"
	"github.com/lintang-b-s/ecoflow/pkg/sensor"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type straightRouter struct {
	err error
}

func (r straightRouter) ComputeRoute(ctx context.Context, points []geo.Coordinate, vc da.VehicleClass) (*da.Route, error) {
	if r.err != nil {
		return nil, r.err
	}
	dist := geo.PathLength(points)
	return da.NewRoute(points, dist, dist, emissions.Estimate(dist, vc), vc), nil
}

type testServer struct {
	srv      *httptest.Server
	sessions *planner.Manager
}

func newTestServer(t *testing.T, router planner.Router) *testServer {
	t.Helper()
	log := zap.NewNop()
	catalog := geocoder.NewCatalog(geocoder.SeedPlaces(), log)
	sensors := sensor.NewService(sensor.NewMemoryRepository(), geo.NewCoordinate(3.45, -76.53), 1, log)

	cfg := planner.DefaultConfig()
	cfg.Debounce = 5 * time.Millisecond
	sessions := planner.NewManager(func() planner.Config { return cfg },
		planner.Deps{Router: router, Geocoder: catalog}, log)
	t.Cleanup(sessions.CloseAll)

	api := NewAPI(log, controllers.NewHub(nil, sessions, log), nil)
	handler := api.Handler(Services{
		Routing:   usecases.NewRoutingService(log, router, catalog, catalog),
		Sensors:   sensors,
		Dashboard: usecases.NewDashboardService(log, sensors, []string{"traffic_001"}),
		Sessions:  sessions,
	}, false)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, sessions: sessions}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func errorCode(t *testing.T, out map[string]json.RawMessage) string {
	t.Helper()
	var e struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(out["error"], &e))
	return e.Code
}

func TestCalculateRoute(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	status, out := ts.do(t, http.MethodPost, "/api/routes/calculate", map[string]interface{}{
		"origin":       map[string]float64{"lat": 3.45, "lon": -76.53},
		"destination":  map[string]float64{"lat": 3.54, "lon": -76.38},
		"vehicle_type": "car",
	})
	require.Equal(t, http.StatusOK, status)

	var route struct {
		Distance  float64 `json:"distance"`
		Emissions float64 `json:"emissions"`
		Vehicle   string  `json:"vehicle_type"`
		Path      []geo.Coordinate
	}
	require.NoError(t, json.Unmarshal(out["data"], &route))
	assert.Equal(t, "car", route.Vehicle)
	assert.InDelta(t, route.Distance*0.12, route.Emissions, 1e-3)
	assert.Len(t, route.Path, 2)
}

func TestCalculateRouteValidation(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	status, out := ts.do(t, http.MethodPost, "/api/routes/calculate", map[string]interface{}{
		"origin": map[string]float64{"lat": 120, "lon": -76.53},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_param_input", errorCode(t, out))

	status, _ = ts.do(t, http.MethodPost, "/api/routes/calculate", map[string]interface{}{
		"origin":       map[string]float64{"lat": 3.45, "lon": -76.53},
		"destination":  map[string]float64{"lat": 3.54, "lon": -76.38},
		"vehicle_type": "rocket",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCalculateRouteUpstreamFailure(t *testing.T) {
	ts := newTestServer(t, straightRouter{err: util.NewErrorf(util.ErrRouteUnavailable, "osrm down")})

	status, out := ts.do(t, http.MethodPost, "/api/routes/calculate", map[string]interface{}{
		"origin":      map[string]float64{"lat": 3.45, "lon": -76.53},
		"destination": map[string]float64{"lat": 3.54, "lon": -76.38},
	})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "route_unavailable", errorCode(t, out))
}

func TestOptimizeRequiresThreeWaypoints(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	status, _ := ts.do(t, http.MethodPost, "/api/routes/optimize", map[string]interface{}{
		"waypoints": []map[string]float64{{"lat": 3.45, "lon": -76.53}, {"lat": 3.54, "lon": -76.38}},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, out := ts.do(t, http.MethodPost, "/api/routes/optimize", map[string]interface{}{
		"waypoints": []map[string]float64{
			{"lat": 3.45, "lon": -76.53}, {"lat": 3.54, "lon": -76.38}, {"lat": 3.375, "lon": -76.533},
		},
		"vehicle_type": "bus",
	})
	require.Equal(t, http.StatusOK, status)
	var resp struct {
		Waypoints []geo.Coordinate `json:"waypoints"`
		Criteria  string           `json:"optimization_criteria"`
	}
	require.NoError(t, json.Unmarshal(out["data"], &resp))
	assert.Len(t, resp.Waypoints, 3)
	assert.Equal(t, 3.45, resp.Waypoints[0].Lat)
	assert.Equal(t, "distance", resp.Criteria)
}

func TestSearchAndEmissions(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	status, out := ts.do(t, http.MethodGet, "/api/routes/search?q=museo", nil)
	require.Equal(t, http.StatusOK, status)
	var places []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(out["data"], &places))
	require.Len(t, places, 1)
	assert.Equal(t, "Museo del Oro", places[0].Name)

	status, _ = ts.do(t, http.MethodGet, "/api/routes/search", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, out = ts.do(t, http.MethodGet, "/api/emissions?distance_km=10&vehicle_type=bus", nil)
	require.Equal(t, http.StatusOK, status)
	var est struct {
		EmissionsKg    float64 `json:"emissions_kg"`
		SavingsVsCarKg float64 `json:"savings_vs_car_kg"`
	}
	require.NoError(t, json.Unmarshal(out["data"], &est))
	assert.InDelta(t, 0.8, est.EmissionsKg, 1e-9)
	assert.InDelta(t, 0.4, est.SavingsVsCarKg, 1e-9)

	status, out = ts.do(t, http.MethodGet, "/api/routes/nearby?lat=4.5981&lon=-74.0758&radius=0.2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(out["data"]), "Plaza de Bol")
}

func TestSensorEndpoints(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	status, out := ts.do(t, http.MethodPost, "/api/sensors/data", map[string]interface{}{
		"sensor_id": "traffic_001",
		"readings": []map[string]interface{}{
			{"value": 42.0, "timestamp": "2026-10-16T08:00:00Z"},
			{"timestamp": "2026-10-16T09:00:00Z"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	var result struct {
		ProcessedCount int `json:"processed_count"`
	}
	require.NoError(t, json.Unmarshal(out["data"], &result))
	assert.Equal(t, 1, result.ProcessedCount)

	status, out = ts.do(t, http.MethodGet,
		"/api/sensors/history/traffic_001?start_date=2026-10-16T00:00:00Z&end_date=2026-10-17T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, status)
	var readings []sensor.Reading
	require.NoError(t, json.Unmarshal(out["data"], &readings))
	require.Len(t, readings, 1)
	assert.Equal(t, 42.0, readings[0].Value)

	status, _ = ts.do(t, http.MethodGet, "/api/sensors/history/traffic_001?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, out = ts.do(t, http.MethodGet, "/api/charts/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	var charts []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out["data"], &charts))
	assert.Len(t, charts, 3)

	status, _ = ts.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, status)
}

type sessionView struct {
	ID        string `json:"id"`
	Waypoints []struct {
		Name string `json:"name"`
	} `json:"waypoints"`
	Computing bool `json:"computing"`
	Route     *struct {
		Distance float64 `json:"distance"`
	} `json:"route"`
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	status, out := ts.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, status)
	var view sessionView
	require.NoError(t, json.Unmarshal(out["data"], &view))
	require.NotEmpty(t, view.ID)
	base := "/api/sessions/" + view.ID

	status, _ = ts.do(t, http.MethodPost, base+"/waypoints", map[string]interface{}{
		"name": "Cali Centro", "lat": 3.45, "lon": -76.53,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = ts.do(t, http.MethodPost, base+"/waypoints", map[string]interface{}{
		"name": "Aeropuerto", "lat": 3.54, "lon": -76.38,
	})
	require.Equal(t, http.StatusOK, status)

	require.Eventually(t, func() bool {
		_, out := ts.do(t, http.MethodGet, base, nil)
		var v sessionView
		require.NoError(t, json.Unmarshal(out["data"], &v))
		return v.Route != nil && !v.Computing
	}, 2*time.Second, 10*time.Millisecond)

	status, out = ts.do(t, http.MethodPost, base+"/waypoints/reorder", map[string]int{"from": 0, "to": 1})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(out["data"], &view))
	assert.Equal(t, "Aeropuerto", view.Waypoints[0].Name)
	assert.Equal(t, "true", string(out["changed"]))

	status, out = ts.do(t, http.MethodPost, base+"/optimize", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_param_input", errorCode(t, out))

	status, _ = ts.do(t, http.MethodPut, base+"/vehicle", map[string]string{"vehicle_type": "bike"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = ts.do(t, http.MethodPost, base+"/location/error", map[string]interface{}{"code": 1})
	assert.Equal(t, http.StatusOK, status)

	status, out = ts.do(t, http.MethodGet, base+"/scene", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(out["data"]), "FeatureCollection")

	status, out = ts.do(t, http.MethodDelete, base+"/waypoints/0", nil)
	require.Equal(t, http.StatusOK, status)
	view = sessionView{}
	require.NoError(t, json.Unmarshal(out["data"], &view))
	assert.Len(t, view.Waypoints, 1)
	assert.Nil(t, view.Route)

	status, _ = ts.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, out = ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorCode(t, out))
}

func TestMiddleware(t *testing.T) {
	ts := newTestServer(t, straightRouter{})

	resp, err := http.Get(ts.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/routes/calculate", bytes.NewReader([]byte("a=b")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
