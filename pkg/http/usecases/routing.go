package usecases

import (
	"context"
	"strings"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/spatialindex"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

type RoutingService struct {
	log      *zap.Logger
	router   Router
	geocoder Geocoder
	places   PlaceIndex
}

func NewRoutingService(log *zap.Logger, router Router, geocoder Geocoder, places PlaceIndex) *RoutingService {
	return &RoutingService{
		log:      log,
		router:   router,
		geocoder: geocoder,
		places:   places,
	}
}

func (rs *RoutingService) Search(ctx context.Context, query string) ([]da.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, util.NewErrorf(util.ErrBadParamInput, "search query is empty")
	}
	return rs.geocoder.Search(ctx, query)
}

func (rs *RoutingService) Nearby(lat, lon, radiusKm float64) []spatialindex.Nearby {
	nearby := rs.places.Nearby(lat, lon, radiusKm)
	if nearby == nil {
		return []spatialindex.Nearby{}
	}
	return nearby
}

func (rs *RoutingService) Calculate(ctx context.Context, origin, destination geo.Coordinate,
	vc da.VehicleClass) (*da.Route, error) {
	route, err := rs.router.ComputeRoute(ctx, []geo.Coordinate{origin, destination}, vc)
	if err != nil {
		return nil, err
	}
	rs.log.Debug("route calculated", zap.Float64("distance_km", route.DistanceKm()),
		zap.String("vehicle", vc.String()))
	return route, nil
}

// Optimize routes through every waypoint. The visiting order is kept as given.
func (rs *RoutingService) Optimize(ctx context.Context, waypoints []geo.Coordinate, vc da.VehicleClass,
	criteria string) (*da.Route, []geo.Coordinate, error) {
	if len(waypoints) < 3 {
		return nil, nil, util.NewErrorf(util.ErrBadParamInput, "at least 3 waypoints are required to optimize, got %d",
			len(waypoints))
	}
	route, err := rs.router.ComputeRoute(ctx, waypoints, vc)
	if err != nil {
		return nil, nil, err
	}
	rs.log.Debug("route optimized", zap.Int("waypoints", len(waypoints)), zap.String("criteria", criteria))
	return route, append([]geo.Coordinate(nil), waypoints...), nil
}
