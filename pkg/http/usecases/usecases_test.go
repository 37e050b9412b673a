package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/ecoflow/pkg/chart"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/geocoder"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRouter struct {
	calls [][]geo.Coordinate
	err   error
}

func (r *stubRouter) ComputeRoute(ctx context.Context, points []geo.Coordinate, vc da.VehicleClass) (*da.Route, error) {
	r.calls = append(r.calls, points)
	if r.err != nil {
		return nil, r.err
	}
	return da.NewRoute(points, 10, 20, 1.2, vc), nil
}

func newRoutingService(router Router) *RoutingService {
	catalog := geocoder.NewCatalog(geocoder.SeedPlaces(), zap.NewNop())
	return NewRoutingService(zap.NewNop(), router, catalog, catalog)
}

func TestOptimizeKeepsOrder(t *testing.T) {
	router := &stubRouter{}
	rs := newRoutingService(router)
	waypoints := []geo.Coordinate{
		geo.NewCoordinate(3.45, -76.53),
		geo.NewCoordinate(3.54, -76.38),
		geo.NewCoordinate(3.375, -76.533),
	}

	route, ordered, err := rs.Optimize(context.Background(), waypoints, da.BUS, "distance")
	require.NoError(t, err)
	assert.Equal(t, waypoints, ordered)
	assert.Equal(t, da.BUS, route.Vehicle())
	require.Len(t, router.calls, 1)
	assert.Equal(t, waypoints, router.calls[0])

	_, _, err = rs.Optimize(context.Background(), waypoints[:2], da.CAR, "distance")
	assert.True(t, errors.Is(err, util.ErrBadParamInput))
	assert.Len(t, router.calls, 1)
}

func TestCalculatePropagatesRouteError(t *testing.T) {
	router := &stubRouter{err: util.NewErrorf(util.ErrRouteUnavailable, "no route")}
	rs := newRoutingService(router)

	_, err := rs.Calculate(context.Background(), geo.NewCoordinate(3.45, -76.53), geo.NewCoordinate(3.54, -76.38),
		da.CAR)
	assert.True(t, errors.Is(err, util.ErrRouteUnavailable))
}

func TestSearchAndNearby(t *testing.T) {
	rs := newRoutingService(&stubRouter{})

	_, err := rs.Search(context.Background(), "  ")
	assert.True(t, errors.Is(err, util.ErrBadParamInput))

	places, err := rs.Search(context.Background(), "parque")
	require.NoError(t, err)
	assert.NotEmpty(t, places)

	assert.NotNil(t, rs.Nearby(0, 0, 0.1))
}

type stubTraffic map[string][]float64

func (s stubTraffic) HourlyAverages(ctx context.Context, sensorID string) ([]float64, error) {
	v, ok := s[sensorID]
	if !ok {
		return nil, util.NewErrorf(util.ErrNotFound, "unknown sensor %s", sensorID)
	}
	return v, nil
}

func constant(v float64) []float64 {
	out := make([]float64, 24)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestDashboardAveragesTrafficSensors(t *testing.T) {
	traffic := stubTraffic{"traffic_a": constant(20), "traffic_b": constant(40)}
	ds := NewDashboardService(zap.NewNop(), traffic, []string{"traffic_a", "traffic_b", "traffic_missing"})

	charts, err := ds.Charts(context.Background())
	require.NoError(t, err)
	require.Len(t, charts, 3)

	var found bool
	for _, c := range charts {
		if c.ID == chart.TrafficChartID {
			found = true
			assert.Equal(t, constant(30), c.Data.Datasets[0].Data)
		}
	}
	assert.True(t, found)
}

func TestDashboardFallsBackToDefaultTraffic(t *testing.T) {
	ds := NewDashboardService(zap.NewNop(), stubTraffic{}, []string{"traffic_missing"})
	charts, err := ds.Charts(context.Background())
	require.NoError(t, err)
	for _, c := range charts {
		if c.ID == chart.TrafficChartID {
			assert.Equal(t, chart.DefaultTrafficByHour, c.Data.Datasets[0].Data)
		}
	}
}
