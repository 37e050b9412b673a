package usecases

import (
	"context"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/geo"
	"github.com/lintang-b-s/ecoflow/pkg/spatialindex"
)

type Router interface {
	ComputeRoute(ctx context.Context, points []geo.Coordinate, vc da.VehicleClass) (*da.Route, error)
}

type Geocoder interface {
	Search(ctx context.Context, query string) ([]da.Place, error)
}

type PlaceIndex interface {
	Nearby(lat, lon, radiusKm float64) []spatialindex.Nearby
}

type TrafficSource interface {
	HourlyAverages(ctx context.Context, sensorID string) ([]float64, error)
}
